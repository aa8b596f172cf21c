package retriever

import (
	"bytes"
	"context"
	"encoding/csv"
	"path"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"

	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/core/file_store"
	"github.com/pecunia-ai/findex/core/vector_store"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// Embedder 查询文本向量化能力
type Embedder interface {
	EmbedString(ctx context.Context, text string) ([]float32, error)
}

// Retriever 语义检索：查询向量化后在索引中做相似度搜索
type Retriever struct {
	embedder Embedder
	index    vector_store.VectorIndex
	store    *file_store.BlobStore
}

// NewRetriever 创建检索器
func NewRetriever(embedder Embedder, index vector_store.VectorIndex, store *file_store.BlobStore) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.Newf(errors.ErrInvalidConfig, "embedder cannot be nil")
	}
	if index == nil {
		return nil, errors.Newf(errors.ErrInvalidConfig, "vector index cannot be nil")
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		store:    store,
	}, nil
}

// Search 按查询文本检索 topK 条记录，filter 为索引侧过滤表达式，可为空
func (r *Retriever) Search(ctx context.Context, query string, topK int, filter string) ([]*schema.SearchMatch, error) {
	if query == "" {
		return nil, errors.Newf(errors.ErrInvalidParameter, "query cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	vector, err := r.embedder.EmbedString(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := r.index.Query(ctx, vector, topK, filter)
	if err != nil {
		return nil, err
	}

	g.Log().Debugf(ctx, "Search returned %d matches for query (topK=%d, filter=%q)", len(matches), topK, filter)
	return matches, nil
}

// FetchTableJSON 读取表格命中对应的 CSV 产物并转成行式 JSON：
// {"table_name": 产物文件名（去掉 .csv）, "rows": [{列名: 单元格}, ...]}。
// match 必须是表格记录（metadata.table == true），其 source_file 即产物 key。
func (r *Retriever) FetchTableJSON(ctx context.Context, match *schema.SearchMatch) ([]byte, error) {
	if match == nil {
		return nil, errors.Newf(errors.ErrInvalidParameter, "match cannot be nil")
	}
	if r.store == nil {
		return nil, errors.Newf(errors.ErrInvalidConfig, "blob store is not configured")
	}

	isTable, _ := match.Metadata["table"].(bool)
	if !isTable {
		return nil, errors.Newf(errors.ErrInvalidParameter, "match %s is not a table record", match.ID)
	}

	key, _ := match.Metadata["source_file"].(string)
	if key == "" {
		return nil, errors.Newf(errors.ErrInvalidParameter, "table record %s has no source_file key", match.ID)
	}

	raw, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	grid, err := csv.NewReader(bytes.NewReader(raw.Data)).ReadAll()
	if err != nil {
		return nil, errors.Newf(errors.ErrInternalError, "failed to parse table csv %s: %v", key, err)
	}

	data, err := sonic.Marshal(tableJSON(key, grid))
	if err != nil {
		return nil, errors.Newf(errors.ErrInternalError, "failed to marshal table json: %v", err)
	}
	return data, nil
}

// tableJSON 把 CSV 网格转成行式结构，首行作为列名
func tableJSON(key string, grid [][]string) map[string]any {
	rows := make([]map[string]string, 0, len(grid))
	if len(grid) > 1 {
		headers := grid[0]
		for _, cells := range grid[1:] {
			row := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(cells) {
					row[h] = cells[i]
				} else {
					row[h] = ""
				}
			}
			rows = append(rows, row)
		}
	}
	return map[string]any{
		"table_name": strings.TrimSuffix(path.Base(key), ".csv"),
		"rows":       rows,
	}
}
