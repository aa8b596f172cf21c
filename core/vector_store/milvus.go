package vector_store

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/pecunia-ai/findex/core/config"
	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// MilvusIndex Milvus向量索引实现
type MilvusIndex struct {
	client     *milvusclient.Client
	collection string
	dim        int
}

// InitializeMilvusIndex 从配置初始化 Milvus 索引
func InitializeMilvusIndex(ctx context.Context) (VectorIndex, error) {
	address := g.Cfg().MustGet(ctx, "milvus.address", "").String()
	database := g.Cfg().MustGet(ctx, "milvus.database", "default").String()
	collection := g.Cfg().MustGet(ctx, "milvus.collection", "sem_search_index").String()
	dim := g.Cfg().MustGet(ctx, "milvus.dim", config.EmbeddingDim).Int()

	if address == "" {
		return nil, errors.Newf(errors.ErrVectorStoreInit,
			"milvus.address is required but not found in config file. Please check your config.yaml file and ensure milvus.address is properly set")
	}

	g.Log().Infof(ctx, "Connecting to Milvus at: %s, database: %s, collection: %s", address, database, collection)

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: address,
		DBName:  database,
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrVectorStoreInit,
			"failed to create milvus client (address: %s, database: %s): %v", address, database, err)
	}

	return NewMilvusIndex(client, collection, dim)
}

// NewMilvusIndex 创建 Milvus 索引实例
func NewMilvusIndex(client *milvusclient.Client, collection string, dim int) (*MilvusIndex, error) {
	if client == nil {
		return nil, errors.Newf(errors.ErrVectorStoreInit, "milvus client cannot be nil")
	}
	if collection == "" {
		return nil, errors.Newf(errors.ErrVectorStoreInit, "collection name cannot be empty")
	}
	if dim <= 0 {
		return nil, errors.Newf(errors.ErrVectorStoreInit, "vector dimension must be positive, got %d", dim)
	}
	return &MilvusIndex{
		client:     client,
		collection: collection,
		dim:        dim,
	}, nil
}

// Dim 索引的固定向量维度
func (m *MilvusIndex) Dim() int {
	return m.dim
}

// EnsureCollection 创建集合（如果不存在）并加载到内存
func (m *MilvusIndex) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return errors.Newf(errors.ErrVectorStoreInit, "failed to check if collection exists: %v", err)
	}
	if has {
		g.Log().Infof(ctx, "Collection '%s' already exists, skipping creation", m.collection)
		return nil
	}

	collSchema := &entity.Schema{
		CollectionName: m.collection,
		Description:    "存储文档分片/表格标题向量及元数据",
		AutoID:         false,
		Fields:         collectionFields(m.dim),
	}

	err = m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(m.collection, collSchema).WithIndexOptions(
		milvusclient.NewCreateIndexOption(m.collection, "vector", index.NewHNSWIndex(entity.COSINE, 64, 128))))
	if err != nil {
		return errors.Newf(errors.ErrVectorStoreInit, "failed to create Milvus collection: %v", err)
	}

	_, err = m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection))
	if err != nil {
		return errors.Newf(errors.ErrVectorStoreInit, "failed to load Milvus collection: %v", err)
	}

	g.Log().Infof(ctx, "Collection '%s' created with dimension %d, index built and loaded", m.collection, m.dim)
	return nil
}

// collectionFields 集合字段定义：id 主键 + 定长向量 + JSON 元数据
func collectionFields(dim int) []*entity.Field {
	return []*entity.Field{
		{
			Name:        "id",
			DataType:    entity.FieldTypeVarChar,
			TypeParams:  map[string]string{"max_length": "512"},
			PrimaryKey:  true,
			AutoID:      false,
			Description: "Record unique ID (primary key)",
		},
		{
			Name:        "vector",
			DataType:    entity.FieldTypeFloatVector,
			TypeParams:  map[string]string{"dim": fmt.Sprintf("%d", dim)},
			Description: "Embedding vector",
		},
		{
			Name:        "metadata",
			DataType:    entity.FieldTypeJSON,
			Description: "Record metadata (JSON)",
		},
	}
}

// Upsert 按 id 插入或覆盖一批向量记录。
// 调用方负责记录校验，这里只做长度一致性兜底。
func (m *MilvusIndex) Upsert(ctx context.Context, records []*schema.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	metadataList := make([][]byte, len(records))

	for i, r := range records {
		if len(r.Values) != m.dim {
			return errors.Newf(errors.ErrIndexUpsert,
				"record %s vector length %d does not match index dimension %d", r.ID, len(r.Values), m.dim)
		}
		ids[i] = r.ID
		vectors[i] = r.Values

		metaBytes, err := sonic.Marshal(r.Metadata)
		if err != nil {
			return errors.Newf(errors.ErrIndexUpsert, "failed to marshal metadata for record %s: %v", r.ID, err)
		}
		metadataList[i] = metaBytes
	}

	columns := []column.Column{
		column.NewColumnVarChar("id", ids),
		column.NewColumnFloatVector("vector", m.dim, vectors),
		column.NewColumnJSONBytes("metadata", metadataList),
	}

	result, err := m.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(m.collection, columns...))
	if err != nil {
		return errors.Newf(errors.ErrIndexUpsert, "failed to upsert vectors: %v", err)
	}

	g.Log().Infof(ctx, "Successfully upserted %d vectors into collection '%s'", result.UpsertCount, m.collection)
	return nil
}

// Query 向量相似度检索，返回按分数排序的命中
func (m *MilvusIndex) Query(ctx context.Context, vector []float32, topK int, filter string) ([]*schema.SearchMatch, error) {
	if len(vector) != m.dim {
		return nil, errors.Newf(errors.ErrVectorSearch,
			"query vector length %d does not match index dimension %d", len(vector), m.dim)
	}

	searchOpt := milvusclient.NewSearchOption(m.collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField("vector").
		WithOutputFields("id", "metadata").
		WithConsistencyLevel(entity.ClBounded)

	if filter != "" {
		searchOpt = searchOpt.WithFilter(filter)
	}

	results, err := m.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, errors.Newf(errors.ErrVectorSearch, "search has error: %v", err)
	}

	if len(results) == 0 {
		return []*schema.SearchMatch{}, nil
	}

	return convertResults(ctx, results[0].Fields, results[0].Scores)
}

// convertResults 把搜索结果列转换为 SearchMatch
func convertResults(ctx context.Context, columns []column.Column, scores []float32) ([]*schema.SearchMatch, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	numDocs := columns[0].Len()
	matches := make([]*schema.SearchMatch, numDocs)
	for i := range matches {
		matches[i] = &schema.SearchMatch{}
		if i < len(scores) {
			matches[i].Score = scores[i]
		}
	}

	for _, col := range columns {
		switch col.Name() {
		case "id":
			for i := 0; i < col.Len() && i < numDocs; i++ {
				val, err := col.Get(i)
				if err != nil {
					return nil, errors.Newf(errors.ErrVectorSearch, "failed to read id column: %v", err)
				}
				if str, ok := val.(string); ok {
					matches[i].ID = str
				}
			}
		case "metadata":
			for i := 0; i < col.Len() && i < numDocs; i++ {
				val, err := col.Get(i)
				if err != nil || val == nil {
					continue
				}

				var raw []byte
				switch v := val.(type) {
				case string:
					raw = []byte(v)
				case []byte:
					raw = v
				default:
					continue
				}

				meta := make(map[string]any)
				if err := sonic.Unmarshal(raw, &meta); err != nil {
					g.Log().Warningf(ctx, "Failed to unmarshal metadata for match %s: %v", matches[i].ID, err)
					continue
				}
				matches[i].Metadata = meta
			}
		}
	}

	return matches, nil
}
