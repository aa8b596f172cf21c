package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gcmd"

	"github.com/pecunia-ai/findex/core/common"
	"github.com/pecunia-ai/findex/core/config"
	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/core/file_store"
	"github.com/pecunia-ai/findex/core/indexer"
	"github.com/pecunia-ai/findex/core/parser"
	"github.com/pecunia-ai/findex/core/retriever"
	"github.com/pecunia-ai/findex/core/vector_store"
	"github.com/pecunia-ai/findex/core/wordseg"
	"github.com/pecunia-ai/findex/internal/dao"
)

var (
	Main = gcmd.Command{
		Name:  "main",
		Usage: "main COMMAND [ARG...]",
		Brief: "financial filing ingestion and semantic search",
	}

	Ingest = gcmd.Command{
		Name:  "ingest",
		Usage: "ingest KEY...",
		Brief: "parse and index filings by object storage key",
		Func: func(ctx context.Context, p *gcmd.Parser) error {
			keys := commandArgs(p)
			if len(keys) == 0 {
				return errors.Newf(errors.ErrInvalidParameter, "at least one object key is required")
			}
			ing, err := buildIngestor(ctx)
			if err != nil {
				return err
			}
			var firstErr error
			for _, key := range keys {
				if err := ing.IngestDocument(ctx, key); err != nil {
					g.Log().Errorf(ctx, "Ingestion failed, sourceKey=%s, err=%v", key, err)
					if firstErr == nil {
						firstErr = err
					}
				}
			}
			return firstErr
		},
	}

	Sweep = gcmd.Command{
		Name:  "sweep",
		Usage: "sweep [PREFIX]",
		Brief: "ingest every PDF under an object storage prefix",
		Func: func(ctx context.Context, p *gcmd.Parser) error {
			prefix := ""
			if args := commandArgs(p); len(args) > 0 {
				prefix = args[0]
			}
			ing, err := buildIngestor(ctx)
			if err != nil {
				return err
			}
			return ing.SweepPrefix(ctx, prefix)
		},
	}

	Search = gcmd.Command{
		Name:  "search",
		Usage: "search QUERY... [-k TOPK] [-f FILTER]",
		Brief: "semantic search over indexed filings",
		Arguments: []gcmd.Argument{
			{Name: "topk", Short: "k", Brief: "number of results to return"},
			{Name: "filter", Short: "f", Brief: "index-side filter expression"},
		},
		Func: func(ctx context.Context, p *gcmd.Parser) error {
			args := commandArgs(p)
			if len(args) == 0 {
				return errors.Newf(errors.ErrInvalidParameter, "query is required")
			}
			query := strings.Join(args, " ")
			topK := p.GetOpt("topk", 10).Int()
			filter := p.GetOpt("filter", "").String()

			r, err := buildRetriever(ctx)
			if err != nil {
				return err
			}
			matches, err := r.Search(ctx, query, topK, filter)
			if err != nil {
				return err
			}
			for i, m := range matches {
				fmt.Printf("%2d. score=%.4f id=%s\n", i+1, m.Score, m.ID)
				if text, ok := m.Metadata["og_text"].(string); ok {
					fmt.Printf("    %s\n", text)
				}
			}
			return nil
		},
	}
)

// commandArgs 取子命令自身的参数，跳过可执行文件名和命令名
func commandArgs(p *gcmd.Parser) []string {
	args := p.GetArgAll()
	if len(args) <= 2 {
		return nil
	}
	return args[2:]
}

func init() {
	if err := Main.AddCommand(&Ingest, &Sweep, &Search); err != nil {
		panic(err)
	}
}

// buildIngestor 显式构建摄取服务的全部依赖
func buildIngestor(ctx context.Context) (*indexer.DocumentIngestor, error) {
	if err := config.ValidateConfiguration(ctx); err != nil {
		return nil, err
	}
	if err := dao.InitDB(); err != nil {
		return nil, errors.Newf(errors.ErrDatabaseInit, "failed to initialize database: %v", err)
	}

	store, err := file_store.InitializeBlobStore(ctx)
	if err != nil {
		return nil, err
	}

	index, err := vector_store.InitializeMilvusIndex(ctx)
	if err != nil {
		return nil, err
	}
	if err := index.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	writerConf := config.DefaultWriterConfig(ctx)
	embedder, err := common.NewEmbeddingClient(writerConf, index.Dim())
	if err != nil {
		return nil, err
	}

	writer, err := indexer.NewWriter(embedder, index, writerConf.BatchSize)
	if err != nil {
		return nil, err
	}

	seg := wordseg.NewDictSegmenter()
	docParser, err := parser.NewDocumentParser(parser.NewPDFLayoutProvider(), seg, config.DefaultParserConfig())
	if err != nil {
		return nil, err
	}

	return &indexer.DocumentIngestor{
		Store:       store,
		Parser:      docParser,
		Writer:      writer,
		TablePrefix: g.Cfg().MustGet(ctx, "storage.tablePrefix", "extracted-tables").String(),
	}, nil
}

// buildRetriever 显式构建检索器依赖，不触碰数据库
func buildRetriever(ctx context.Context) (*retriever.Retriever, error) {
	store, err := file_store.InitializeBlobStore(ctx)
	if err != nil {
		return nil, err
	}

	index, err := vector_store.InitializeMilvusIndex(ctx)
	if err != nil {
		return nil, err
	}

	writerConf := config.DefaultWriterConfig(ctx)
	embedder, err := common.NewEmbeddingClient(writerConf, index.Dim())
	if err != nil {
		return nil, err
	}

	return retriever.NewRetriever(embedder, index, store)
}
