package file_store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"

	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// DocumentArtifactID 文档产物 id：源 key 的 sha256 前 16 位。
// 源 key 为空时退化为随机 uuid，同一文档内只生成一次。
func DocumentArtifactID(sourceKey string) string {
	if sourceKey == "" {
		return uuid.NewString()
	}
	sum := sha256.Sum256([]byte(sourceKey))
	return hex.EncodeToString(sum[:])[:16]
}

// TableArtifactKey 生成表格产物的对象 key
func TableArtifactKey(docID string, pageNumber, tableIndex int, prefix string) string {
	if prefix != "" {
		return fmt.Sprintf("%s/%s_page%d_table%d.csv", prefix, docID, pageNumber, tableIndex)
	}
	return fmt.Sprintf("%s_page%d_table%d.csv", docID, pageNumber, tableIndex)
}

// UploadTableCSVs 把文档里提取的表格以 CSV 形式写回对象存储，
// 并把产物 key 回填到各 TableRecord.StorageKey。
// 表格序号按文档内出现顺序从 1 递增；空网格不上传，但仍占用序号。
func (s *BlobStore) UploadTableCSVs(ctx context.Context, doc *schema.ParsedDocument, prefix string) error {
	if doc == nil {
		return errors.Newf(errors.ErrInvalidParameter, "document cannot be nil")
	}

	docID := DocumentArtifactID(doc.Key)
	uploaded := 0
	for i, table := range doc.Tables {
		if len(table.Grid) == 0 {
			continue
		}

		key := TableArtifactKey(docID, table.PageNumber, i+1, prefix)

		data, err := encodeCSV(table.Grid)
		if err != nil {
			return errors.Newf(errors.ErrFileUploadFailed,
				"failed to encode table csv (doc=%s, page=%d): %v", doc.Key, table.PageNumber, err)
		}

		if err := s.Put(ctx, key, data, "text/csv"); err != nil {
			return err
		}
		table.StorageKey = key
		uploaded++
	}

	g.Log().Debugf(ctx, "Uploaded %d table artifacts for document '%s'", uploaded, doc.Key)
	return nil
}

// encodeCSV 把网格编码为 CSV 字节
func encodeCSV(grid [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(grid); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
