package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/pecunia-ai/findex/core/common"
	"github.com/pecunia-ai/findex/core/file_store"
	"github.com/pecunia-ai/findex/core/parser"
	"github.com/pecunia-ai/findex/internal/dao"
	gormmodel "github.com/pecunia-ai/findex/internal/model/gorm"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// DocumentIngestor 文档摄取服务：取原件、解析、落产物、写索引、记台账
type DocumentIngestor struct {
	Store       *file_store.BlobStore
	Parser      *parser.DocumentParser
	Writer      *Writer
	TablePrefix string
}

// IngestResult 单篇文档的摄取结果
type IngestResult struct {
	SourceKey string
	Success   bool
	Error     error
}

// ingestContext 摄取上下文，在 pipeline 步骤间传递数据
type ingestContext struct {
	ctx       context.Context
	sourceKey string
	raw       *schema.RawDocument
	doc       *schema.ParsedDocument
	written   int
}

// IngestDocument 摄取单篇文档（Pipeline 模式）
func (s *DocumentIngestor) IngestDocument(ctx context.Context, sourceKey string) error {
	igCtx := &ingestContext{
		ctx:       ctx,
		sourceKey: sourceKey,
	}

	pipeline := []struct {
		name string
		fn   func(*ingestContext) error
	}{
		{"Fetch source document", s.stepFetchDocument},
		{"Mark indexing", s.stepMarkIndexing},
		{"Parse document", s.stepParseDocument},
		{"Upload table artifacts", s.stepUploadArtifacts},
		{"Write vectors", s.stepWriteVectors},
		{"Mark active", s.stepMarkActive},
	}

	for _, step := range pipeline {
		g.Log().Debugf(ctx, "Executing step: %s, sourceKey=%s", step.name, sourceKey)
		if err := step.fn(igCtx); err != nil {
			return fmt.Errorf("%s failed: %w", step.name, err)
		}
	}

	return nil
}

// stepFetchDocument 第一步：从对象存储读取原件和元数据
func (s *DocumentIngestor) stepFetchDocument(igCtx *ingestContext) error {
	raw, err := s.Store.Get(igCtx.ctx, igCtx.sourceKey)
	if err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to fetch source document, sourceKey=%s, err=%v", igCtx.sourceKey, err)
		dao.UpdateFilingStatus(igCtx.ctx, igCtx.sourceKey, gormmodel.FilingStatusFailed)
		return err
	}
	igCtx.raw = raw
	return nil
}

// stepMarkIndexing 第二步：登记台账并置为 indexing
func (s *DocumentIngestor) stepMarkIndexing(igCtx *ingestContext) error {
	if err := dao.EnsureFiling(igCtx.ctx, igCtx.sourceKey, igCtx.raw.Metadata); err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to register filing, sourceKey=%s, err=%v", igCtx.sourceKey, err)
		return err
	}
	if err := dao.UpdateFilingStatus(igCtx.ctx, igCtx.sourceKey, gormmodel.FilingStatusIndexing); err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to update filing status, sourceKey=%s, err=%v", igCtx.sourceKey, err)
		return err
	}
	return nil
}

// stepParseDocument 第三步：布局解析、分片、抽表
func (s *DocumentIngestor) stepParseDocument(igCtx *ingestContext) error {
	doc, err := s.Parser.Parse(igCtx.ctx, igCtx.raw)
	if err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to parse document, sourceKey=%s, err=%v", igCtx.sourceKey, err)
		dao.UpdateFilingStatus(igCtx.ctx, igCtx.sourceKey, gormmodel.FilingStatusFailed)
		return err
	}
	igCtx.doc = doc
	return nil
}

// stepUploadArtifacts 第四步：表格网格以 CSV 回写对象存储
func (s *DocumentIngestor) stepUploadArtifacts(igCtx *ingestContext) error {
	if len(igCtx.doc.Tables) == 0 {
		return nil
	}
	if err := s.Store.UploadTableCSVs(igCtx.ctx, igCtx.doc, s.TablePrefix); err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to upload table artifacts, sourceKey=%s, err=%v", igCtx.sourceKey, err)
		dao.UpdateFilingStatus(igCtx.ctx, igCtx.sourceKey, gormmodel.FilingStatusFailed)
		return err
	}
	return nil
}

// stepWriteVectors 第五步：向量化并写入索引
func (s *DocumentIngestor) stepWriteVectors(igCtx *ingestContext) error {
	written, err := s.Writer.WriteDocument(igCtx.ctx, igCtx.doc)
	if err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to write vectors, sourceKey=%s, err=%v", igCtx.sourceKey, err)
		dao.UpdateFilingStatus(igCtx.ctx, igCtx.sourceKey, gormmodel.FilingStatusFailed)
		return err
	}
	igCtx.written = written
	return nil
}

// stepMarkActive 第六步：记录分片/表格数量并置为 active
func (s *DocumentIngestor) stepMarkActive(igCtx *ingestContext) error {
	err := dao.MarkFilingActive(igCtx.ctx, igCtx.sourceKey, len(igCtx.doc.Chunks), len(igCtx.doc.Tables), igCtx.written)
	if err != nil {
		g.Log().Errorf(igCtx.ctx, "Failed to mark filing active, sourceKey=%s, err=%v", igCtx.sourceKey, err)
		return err
	}
	return nil
}

// BatchIngest 批量摄取（异步操作），文档级并发上限为 5
func (s *DocumentIngestor) BatchIngest(ctx context.Context, sourceKeys []string) error {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // 限制并发数为5
	results := make(chan IngestResult, len(sourceKeys))

	for _, sourceKey := range sourceKeys {
		wg.Add(1)
		sourceKey := sourceKey // 捕获循环变量
		common.SafeGo(ctx, fmt.Sprintf("IngestDoc-%s", sourceKey), func() {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			err := s.IngestDocument(ctx, sourceKey)

			results <- IngestResult{
				SourceKey: sourceKey,
				Success:   err == nil,
				Error:     err,
			}

			if err != nil {
				g.Log().Errorf(ctx, "Document ingestion failed, sourceKey=%s, err=%v", sourceKey, err)
			} else {
				g.Log().Infof(ctx, "Document ingested successfully, sourceKey=%s", sourceKey)
			}
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		successCount := 0
		failCount := 0
		for result := range results {
			if result.Success {
				successCount++
			} else {
				failCount++
			}
		}
		g.Log().Infof(ctx, "Batch ingestion completed: success=%d, failed=%d, total=%d",
			successCount, failCount, len(sourceKeys))
	}()

	return nil
}

// SweepPrefix 扫描指定前缀下的全部 PDF 并逐篇摄取（同步）。
// 单篇失败只记录不中断，返回首个错误方便上层判断整体健康。
func (s *DocumentIngestor) SweepPrefix(ctx context.Context, prefix string) error {
	keys, err := s.Store.ListPDFKeys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		g.Log().Infof(ctx, "No PDF documents found under prefix '%s'", prefix)
		return nil
	}

	var firstErr error
	successCount := 0
	for _, key := range keys {
		if err := s.IngestDocument(ctx, key); err != nil {
			g.Log().Errorf(ctx, "Sweep: ingestion failed, sourceKey=%s, err=%v", key, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		successCount++
	}

	g.Log().Infof(ctx, "Sweep completed for prefix '%s': success=%d, failed=%d",
		prefix, successCount, len(keys)-successCount)
	return firstErr
}
