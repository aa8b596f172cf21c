package parser

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/pecunia-ai/findex/core/config"
	"github.com/pecunia-ai/findex/core/wordseg"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// PageLayout 布局提供方对单页的抽取结果
type PageLayout struct {
	// Text 页面纯文本（无内容时为空串）
	Text string
	// Tokens 词级 token，带水平范围、垂直位置和字号
	Tokens []Token
	// Tables 检测到的表格区域及其网格
	Tables []TableRegion
}

// LayoutProvider PDF 布局提供能力，外部协作方，核心只依赖此接口
type LayoutProvider interface {
	Pages(ctx context.Context, data []byte) ([]PageLayout, error)
}

// DocumentParser 文档解析器：逐页驱动文本分片与表格提取
type DocumentParser struct {
	provider LayoutProvider
	tables   *TableExtractor
	cfg      config.ParserConfig
}

// NewDocumentParser 创建文档解析器，配置不合法时立即失败
func NewDocumentParser(provider LayoutProvider, seg wordseg.Segmenter, cfg config.ParserConfig) (*DocumentParser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DocumentParser{
		provider: provider,
		tables:   NewTableExtractor(seg, cfg),
		cfg:      cfg,
	}, nil
}

// Parse 解析一个原始文档，页与页之间是硬分段边界，不做跨页合并。
// 某页没有可抽取文本或表格不算错误，产出空结果继续。
func (p *DocumentParser) Parse(ctx context.Context, raw *schema.RawDocument) (*schema.ParsedDocument, error) {
	pages, err := p.provider.Pages(ctx, raw.Data)
	if err != nil {
		return nil, err
	}

	parsed := &schema.ParsedDocument{
		Key:      raw.Key,
		Metadata: raw.Metadata,
	}

	for i, page := range pages {
		pageNumber := i + 1

		chunks, err := SplitText(page.Text, p.cfg.MaxChunkSize, p.cfg.ChunkOverlap, p.cfg.NumericTokenRatio)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			parsed.Chunks = append(parsed.Chunks, schema.TextChunk{
				Text:       chunk,
				PageNumber: pageNumber,
			})
		}

		tables := p.tables.ExtractPage(pageNumber, page.Tokens, page.Tables)
		parsed.Tables = append(parsed.Tables, tables...)

		g.Log().Debugf(ctx, "Parsed page %d of %s: %d chunks, %d tables", pageNumber, raw.Key, len(chunks), len(tables))
	}

	g.Log().Infof(ctx, "Document parsing completed, key=%s, pages=%d, chunks=%d, tables=%d",
		raw.Key, len(pages), len(parsed.Chunks), len(parsed.Tables))
	return parsed, nil
}
