package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pecunia-ai/findex/core/errors"
	"github.com/pecunia-ai/findex/core/file_store"
	"github.com/pecunia-ai/findex/pkg/schema"
)

type fakeQueryEmbedder struct {
	vector    []float32
	err       error
	lastQuery string
}

func (f *fakeQueryEmbedder) EmbedString(_ context.Context, text string) ([]float32, error) {
	f.lastQuery = text
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeSearchIndex 记录 Query 收到的参数并返回预置命中
type fakeSearchIndex struct {
	matches   []*schema.SearchMatch
	err       error
	gotVector []float32
	gotTopK   int
	gotFilter string
}

func (f *fakeSearchIndex) EnsureCollection(_ context.Context) error { return nil }

func (f *fakeSearchIndex) Upsert(_ context.Context, _ []*schema.VectorRecord) error { return nil }

func (f *fakeSearchIndex) Query(_ context.Context, vector []float32, topK int, filter string) ([]*schema.SearchMatch, error) {
	f.gotVector = vector
	f.gotTopK = topK
	f.gotFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeSearchIndex) Dim() int { return 8 }

func TestNewRetrieverValidation(t *testing.T) {
	emb := &fakeQueryEmbedder{}
	idx := &fakeSearchIndex{}

	_, err := NewRetriever(nil, idx, nil)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))

	_, err = NewRetriever(emb, nil, nil)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))

	// store 可为空，此时只有表格取数不可用
	r, err := NewRetriever(emb, idx, nil)
	assert.NoError(t, err)
	assert.NotNil(t, r)
}

func TestSearchPassthrough(t *testing.T) {
	emb := &fakeQueryEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	idx := &fakeSearchIndex{
		matches: []*schema.SearchMatch{
			{ID: "filings/acme_10k.pdf_text_1", Score: 0.92},
			{ID: "filings/acme_10k.pdf_table_1", Score: 0.88},
		},
	}
	r, err := NewRetriever(emb, idx, nil)
	assert.NoError(t, err)

	matches, err := r.Search(context.Background(), "net revenue growth", 5, `doc_type == "10-K"`)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "net revenue growth", emb.lastQuery)
	assert.Equal(t, emb.vector, idx.gotVector)
	assert.Equal(t, 5, idx.gotTopK)
	assert.Equal(t, `doc_type == "10-K"`, idx.gotFilter)
}

func TestSearchDefaultTopK(t *testing.T) {
	idx := &fakeSearchIndex{}
	r, err := NewRetriever(&fakeQueryEmbedder{vector: []float32{1}}, idx, nil)
	assert.NoError(t, err)

	_, err = r.Search(context.Background(), "liquidity", 0, "")
	assert.NoError(t, err)
	assert.Equal(t, 10, idx.gotTopK)

	_, err = r.Search(context.Background(), "liquidity", -3, "")
	assert.NoError(t, err)
	assert.Equal(t, 10, idx.gotTopK)
}

func TestSearchEmptyQuery(t *testing.T) {
	r, err := NewRetriever(&fakeQueryEmbedder{}, &fakeSearchIndex{}, nil)
	assert.NoError(t, err)

	_, err = r.Search(context.Background(), "", 5, "")
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParameter))
}

func TestSearchEmbedderErrorPropagates(t *testing.T) {
	emb := &fakeQueryEmbedder{err: errors.Newf(errors.ErrEmbeddingProvider, "provider unavailable")}
	r, err := NewRetriever(emb, &fakeSearchIndex{}, nil)
	assert.NoError(t, err)

	_, err = r.Search(context.Background(), "liquidity", 5, "")
	assert.True(t, errors.HasCode(err, errors.ErrEmbeddingProvider))
}

func TestSearchIndexErrorPropagates(t *testing.T) {
	idx := &fakeSearchIndex{err: errors.Newf(errors.ErrVectorSearch, "collection not loaded")}
	r, err := NewRetriever(&fakeQueryEmbedder{vector: []float32{1}}, idx, nil)
	assert.NoError(t, err)

	_, err = r.Search(context.Background(), "liquidity", 5, "")
	assert.True(t, errors.HasCode(err, errors.ErrVectorSearch))
}

func TestFetchTableJSONRejectsBadMatches(t *testing.T) {
	r, err := NewRetriever(&fakeQueryEmbedder{}, &fakeSearchIndex{}, nil)
	assert.NoError(t, err)
	ctx := context.Background()

	_, err = r.FetchTableJSON(ctx, nil)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParameter))

	// store 未配置
	tableMatch := &schema.SearchMatch{
		ID:       "filings/acme_10k.pdf_table_1",
		Metadata: map[string]any{"table": true, "source_file": "extracted-tables/doc_page1_table1.csv"},
	}
	_, err = r.FetchTableJSON(ctx, tableMatch)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))

	// 以下两种坏 match 在任何存储 I/O 之前就被拒绝
	r, err = NewRetriever(&fakeQueryEmbedder{}, &fakeSearchIndex{}, file_store.NewBlobStore(nil, "filings"))
	assert.NoError(t, err)

	textMatch := &schema.SearchMatch{
		ID:       "filings/acme_10k.pdf_text_1",
		Metadata: map[string]any{"table": false, "source_file": "filings/acme_10k.pdf"},
	}
	_, err = r.FetchTableJSON(ctx, textMatch)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParameter))

	noKey := &schema.SearchMatch{
		ID:       "filings/acme_10k.pdf_table_2",
		Metadata: map[string]any{"table": true},
	}
	_, err = r.FetchTableJSON(ctx, noKey)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParameter))
}

func TestTableJSONRowShape(t *testing.T) {
	out := tableJSON("extracted-tables/1a2b3c_page2_table1.csv", [][]string{
		{"Year", "Revenue"},
		{"2021", "1,200"},
		{"2022"},
	})

	assert.Equal(t, "1a2b3c_page2_table1", out["table_name"])
	rows, ok := out["rows"].([]map[string]string)
	assert.True(t, ok)
	assert.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"Year": "2021", "Revenue": "1,200"}, rows[0])
	// 短行按空单元格补齐
	assert.Equal(t, map[string]string{"Year": "2022", "Revenue": ""}, rows[1])
}

func TestTableJSONHeaderOnly(t *testing.T) {
	out := tableJSON("extracted-tables/doc_page1_table1.csv", [][]string{{"Year", "Revenue"}})
	assert.Empty(t, out["rows"])

	out = tableJSON("extracted-tables/doc_page1_table1.csv", nil)
	assert.Equal(t, "doc_page1_table1", out["table_name"])
	assert.Empty(t, out["rows"])
}
