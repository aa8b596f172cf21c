package vector_store

import (
	"context"

	"github.com/pecunia-ai/findex/pkg/schema"
)

// VectorIndexType 向量索引类型
type VectorIndexType string

const (
	VectorIndexTypeMilvus VectorIndexType = "milvus"
)

// VectorIndex 向量索引能力：按 id upsert 定长向量及元数据，支持过滤检索。
// 后端拒绝写入时返回 ErrIndexUpsert 类错误。
type VectorIndex interface {
	// EnsureCollection 创建集合（如果不存在）并加载
	EnsureCollection(ctx context.Context) error

	// Upsert 按 id 插入或覆盖一批向量记录
	Upsert(ctx context.Context, records []*schema.VectorRecord) error

	// Query 向量相似度检索，filter 为后端过滤表达式，可为空
	Query(ctx context.Context, vector []float32, topK int, filter string) ([]*schema.SearchMatch, error)

	// Dim 索引的固定向量维度
	Dim() int
}
