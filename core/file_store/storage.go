package file_store

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// BlobStore 对象存储封装，提交文档原件读取和衍生产物写入
type BlobStore struct {
	client *minio.Client
	bucket string
}

// InitializeBlobStore 从配置初始化对象存储
func InitializeBlobStore(ctx context.Context) (*BlobStore, error) {
	endpoint := g.Cfg().MustGet(ctx, "storage.endpoint", "").String()
	accessKey := g.Cfg().MustGet(ctx, "storage.accessKey", "").String()
	secretKey := g.Cfg().MustGet(ctx, "storage.secretKey", "").String()
	bucket := g.Cfg().MustGet(ctx, "storage.bucket", "").String()
	useSSL := g.Cfg().MustGet(ctx, "storage.useSSL", false).Bool()

	if endpoint == "" || bucket == "" {
		return nil, errors.Newf(errors.ErrInvalidConfig,
			"storage.endpoint and storage.bucket are required but not found in config file")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrInternalError, "failed to create MinIO client: %v", err)
	}

	store := &BlobStore{client: client, bucket: bucket}

	// 创建 bucket，如果已存在则跳过
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Newf(errors.ErrInternalError, "failed to check if bucket exists: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: ""}); err != nil {
			return nil, errors.Newf(errors.ErrInternalError, "failed to create bucket: %v", err)
		}
		g.Log().Infof(ctx, "Created bucket '%s'", bucket)
	}

	return store, nil
}

// NewBlobStore 用已有 minio 客户端构建存储封装，方便测试注入
func NewBlobStore(client *minio.Client, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

// Bucket 当前使用的 bucket 名称
func (s *BlobStore) Bucket() string {
	return s.bucket
}

// Get 按 key 读取对象内容和用户元数据。
// 对象不存在返回 ErrObjectNotFound，调用方据此区分坏 key 和暂时性失败。
func (s *BlobStore) Get(ctx context.Context, key string) (*schema.RawDocument, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Newf(errors.ErrFileReadFailed, "failed to get object %s: %v", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, errors.Newf(errors.ErrObjectNotFound, "object %s not found in bucket %s", key, s.bucket)
		}
		return nil, errors.Newf(errors.ErrFileReadFailed, "failed to read object %s: %v", key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, errors.Newf(errors.ErrObjectNotFound, "object %s not found in bucket %s", key, s.bucket)
		}
		return nil, errors.Newf(errors.ErrFileReadFailed, "failed to stat object %s: %v", key, err)
	}

	metadata := make(map[string]string, len(stat.UserMetadata))
	for k, v := range stat.UserMetadata {
		metadata[strings.ToLower(k)] = v
	}

	return &schema.RawDocument{
		Key:      key,
		Data:     data,
		Metadata: metadata,
	}, nil
}

// Put 写入对象，contentType 为空时按二进制流处理
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Newf(errors.ErrFileUploadFailed, "failed to upload object %s: %v", key, err)
	}
	return nil
}

// ListPDFKeys 列出指定前缀下所有 PDF 对象的 key
func (s *BlobStore) ListPDFKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Newf(errors.ErrFileReadFailed, "failed to list objects with prefix %s: %v", prefix, obj.Err)
		}
		if strings.HasSuffix(strings.ToLower(obj.Key), ".pdf") {
			keys = append(keys, obj.Key)
		}
	}
	g.Log().Infof(ctx, "Found %d PDF objects under prefix '%s'", len(keys), prefix)
	return keys, nil
}
