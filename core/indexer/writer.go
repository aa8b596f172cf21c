package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/core/vector_store"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// Embedder 文本向量化能力
type Embedder interface {
	EmbedStrings(ctx context.Context, texts []string) ([][]float32, error)
}

// requiredMetadataKeys 每条向量记录必须携带的元数据字段
var requiredMetadataKeys = []string{
	"table", "source_file", "page_number", "company_name", "filing_date", "doc_type", "og_text",
}

// Writer 向量写入器：把解析后的文档转成向量记录并分批写入索引
type Writer struct {
	embedder  Embedder
	index     vector_store.VectorIndex
	batchSize int
	dim       int
}

// NewWriter 创建向量写入器
func NewWriter(embedder Embedder, index vector_store.VectorIndex, batchSize int) (*Writer, error) {
	if embedder == nil {
		return nil, errors.Newf(errors.ErrInvalidConfig, "embedder cannot be nil")
	}
	if index == nil {
		return nil, errors.Newf(errors.ErrInvalidConfig, "vector index cannot be nil")
	}
	if batchSize <= 0 {
		return nil, errors.Newf(errors.ErrInvalidConfig, "batch size must be positive, got %d", batchSize)
	}
	return &Writer{
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
		dim:       index.Dim(),
	}, nil
}

// WriteDocument 把文档的文本分片和表格标题向量化后写入索引。
// 返回实际写入的记录数。任一批次 upsert 失败立即终止，
// 已写入的批次不回滚，重跑同一文档依赖确定性 id 覆盖。
func (w *Writer) WriteDocument(ctx context.Context, doc *schema.ParsedDocument) (int, error) {
	if doc == nil {
		return 0, errors.Newf(errors.ErrInvalidParameter, "document cannot be nil")
	}

	records, err := w.buildRecords(ctx, doc)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		g.Log().Infof(ctx, "No valid records to index for document '%s'", doc.Key)
		return 0, nil
	}

	written := 0
	for start := 0; start < len(records); start += w.batchSize {
		end := start + w.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := w.index.Upsert(ctx, records[start:end]); err != nil {
			return written, errors.Newf(errors.ErrIndexUpsert,
				"batch upsert failed for document '%s' (records %d-%d): %v", doc.Key, start, end-1, err)
		}
		written += end - start
	}

	g.Log().Infof(ctx, "Indexed document '%s': %d records in %d batches",
		doc.Key, written, (len(records)+w.batchSize-1)/w.batchSize)
	return written, nil
}

// buildRecords 生成全部向量记录：先文本分片再表格标题。
// 空白分片不送 embedding 也不产生记录，但 id 序号仍按分片原始位置占位。
func (w *Writer) buildRecords(ctx context.Context, doc *schema.ParsedDocument) ([]*schema.VectorRecord, error) {
	kept := make([]int, 0, len(doc.Chunks))
	texts := make([]string, 0, len(doc.Chunks)+len(doc.Tables))
	for i, chunk := range doc.Chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		kept = append(kept, i)
		texts = append(texts, chunk.Text)
	}
	captions := make([]string, len(doc.Tables))
	for i, table := range doc.Tables {
		caption := table.Caption
		if caption == "" {
			caption = "Table data"
		}
		captions[i] = caption
		texts = append(texts, caption)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := w.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, errors.Newf(errors.ErrEmbeddingProvider,
			"embedding count mismatch: got %d vectors for %d texts", len(vectors), len(texts))
	}

	records := make([]*schema.VectorRecord, 0, len(texts))
	dropped := 0

	for vi, ci := range kept {
		chunk := doc.Chunks[ci]
		r := &schema.VectorRecord{
			ID:     fmt.Sprintf("%s_text_%d", doc.Key, ci+1),
			Values: vectors[vi],
			Metadata: w.baseMetadata(doc, map[string]any{
				"table":       false,
				"source_file": doc.Key,
				"page_number": chunk.PageNumber,
				"og_text":     chunk.Text,
			}),
		}
		if err := w.validateRecord(r); err != nil {
			g.Log().Warningf(ctx, "Dropping invalid record %s: %v", r.ID, err)
			dropped++
			continue
		}
		records = append(records, r)
	}

	for i, table := range doc.Tables {
		// 表格记录的 source_file 是表格自身的产物 key，未上传时为空
		r := &schema.VectorRecord{
			ID:     fmt.Sprintf("%s_table_%d", doc.Key, i+1),
			Values: vectors[len(kept)+i],
			Metadata: w.baseMetadata(doc, map[string]any{
				"table":       true,
				"source_file": table.StorageKey,
				"page_number": table.PageNumber,
				"og_text":     captions[i],
			}),
		}
		if err := w.validateRecord(r); err != nil {
			g.Log().Warningf(ctx, "Dropping invalid record %s: %v", r.ID, err)
			dropped++
			continue
		}
		records = append(records, r)
	}

	if dropped > 0 {
		g.Log().Warningf(ctx, "Dropped %d invalid records for document '%s'", dropped, doc.Key)
	}
	return records, nil
}

// baseMetadata 合并文档级元数据与记录级字段，缺失的文档字段写入 nil
func (w *Writer) baseMetadata(doc *schema.ParsedDocument, fields map[string]any) map[string]any {
	meta := map[string]any{
		"company_name": nil,
		"filing_date":  nil,
		"doc_type":     nil,
	}
	if v, ok := doc.Metadata["company"]; ok && v != "" {
		meta["company_name"] = v
	}
	if v, ok := doc.Metadata["filing_date"]; ok && v != "" {
		meta["filing_date"] = v
	}
	if v, ok := doc.Metadata["doc_type"]; ok && v != "" {
		meta["doc_type"] = v
	}
	for k, v := range fields {
		meta[k] = v
	}
	return meta
}

// validateRecord 校验 id、维度和必备元数据字段
func (w *Writer) validateRecord(r *schema.VectorRecord) error {
	if r.ID == "" {
		return errors.Newf(errors.ErrRecordValidation, "record id is empty")
	}
	if len(r.Values) != w.dim {
		return errors.Newf(errors.ErrRecordValidation,
			"vector length %d does not match index dimension %d", len(r.Values), w.dim)
	}
	for _, key := range requiredMetadataKeys {
		if _, ok := r.Metadata[key]; !ok {
			return errors.Newf(errors.ErrRecordValidation, "missing required metadata key %q", key)
		}
	}
	return nil
}
