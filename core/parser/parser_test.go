package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pecunia-ai/findex/core/config"
	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// fakeLayoutProvider 返回预置页面，替代真实 PDF 解析
type fakeLayoutProvider struct {
	pages []PageLayout
	err   error
}

func (f *fakeLayoutProvider) Pages(_ context.Context, _ []byte) ([]PageLayout, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func newTestParser(t *testing.T, provider LayoutProvider) *DocumentParser {
	t.Helper()
	p, err := NewDocumentParser(provider, testSegmenter(), config.DefaultParserConfig())
	assert.NoError(t, err)
	return p
}

func TestNewDocumentParserInvalidConfig(t *testing.T) {
	cfg := config.DefaultParserConfig()
	cfg.ChunkOverlap = cfg.MaxChunkSize

	_, err := NewDocumentParser(&fakeLayoutProvider{}, testSegmenter(), cfg)
	assert.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestParsePageNumbersAndMetadata(t *testing.T) {
	provider := &fakeLayoutProvider{
		pages: []PageLayout{
			{Text: "Management discussed the outlook for the coming fiscal year."},
			{Text: "Liquidity remained sufficient to fund planned operations."},
		},
	}
	parser := newTestParser(t, provider)

	raw := &schema.RawDocument{
		Key:  "filings/acme-10k.pdf",
		Data: []byte("%PDF-1.7"),
		Metadata: map[string]string{
			"company":     "Acme Corp",
			"filing_date": "2024-03-31",
			"doc_type":    "10-K",
		},
	}

	parsed, err := parser.Parse(context.Background(), raw)
	assert.NoError(t, err)
	assert.Equal(t, raw.Key, parsed.Key)
	assert.Equal(t, raw.Metadata, parsed.Metadata)
	assert.Len(t, parsed.Chunks, 2)
	assert.Equal(t, 1, parsed.Chunks[0].PageNumber)
	assert.Equal(t, 2, parsed.Chunks[1].PageNumber)
	assert.Contains(t, parsed.Chunks[0].Text, "outlook")
	assert.Contains(t, parsed.Chunks[1].Text, "Liquidity")
}

func TestParseEmptyPageIsNotAnError(t *testing.T) {
	provider := &fakeLayoutProvider{
		pages: []PageLayout{
			{Text: ""},
			{Text: "   \n  "},
		},
	}
	parser := newTestParser(t, provider)

	parsed, err := parser.Parse(context.Background(), &schema.RawDocument{Key: "filings/blank.pdf"})
	assert.NoError(t, err)
	assert.Empty(t, parsed.Chunks)
	assert.Empty(t, parsed.Tables)
}

func TestParseProviderErrorPropagates(t *testing.T) {
	provider := &fakeLayoutProvider{
		err: errors.Newf(errors.ErrDocumentParseFailed, "corrupt xref table"),
	}
	parser := newTestParser(t, provider)

	_, err := parser.Parse(context.Background(), &schema.RawDocument{Key: "filings/broken.pdf"})
	assert.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrDocumentParseFailed))
}

func TestParseTablesCarryPageNumber(t *testing.T) {
	provider := &fakeLayoutProvider{
		pages: []PageLayout{
			{Text: "Narrative text before the figures were presented."},
			{
				Tokens: []Token{
					{Text: "Consolidated", X0: 0, X1: 60, Top: 90, Size: 12},
					{Text: "Revenue", X0: 70, X1: 110, Top: 90, Size: 12},
					{Text: "Analysis", X0: 120, X1: 160, Top: 90, Size: 12},
				},
				Tables: []TableRegion{
					{Top: 100, Grid: [][]string{{"Year", "Revenue"}, {"2023", "100"}}},
				},
			},
		},
	}
	parser := newTestParser(t, provider)

	parsed, err := parser.Parse(context.Background(), &schema.RawDocument{Key: "filings/tables.pdf"})
	assert.NoError(t, err)
	assert.Len(t, parsed.Tables, 1)
	assert.Equal(t, 2, parsed.Tables[0].PageNumber)
	assert.Equal(t, "Consolidated Revenue Analysis", parsed.Tables[0].Caption)
}

// 分片窗口跨过唯一句号时，第二个窗口会重新落在同一句号上，
// 产出一段重叠分片后按整窗推进收尾。
func TestParseOverlappingWindowsOnSparsePeriods(t *testing.T) {
	text := strings.Repeat("word ", 120) + "." + strings.Repeat("tail ", 89) + "tail"
	assert.Len(t, text, 1050)

	provider := &fakeLayoutProvider{pages: []PageLayout{{Text: text}}}
	parser := newTestParser(t, provider)

	parsed, err := parser.Parse(context.Background(), &schema.RawDocument{Key: "filings/sparse.pdf"})
	assert.NoError(t, err)
	assert.Len(t, parsed.Chunks, 2)
	assert.Equal(t, strings.TrimSpace(text[:600]), parsed.Chunks[0].Text)
	assert.Equal(t, strings.TrimSpace(text[500:600]), parsed.Chunks[1].Text)
	t.Logf("chunk lengths: %d, %d", len(parsed.Chunks[0].Text), len(parsed.Chunks[1].Text))
}
