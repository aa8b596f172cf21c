package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pecunia-ai/findex/core/config"
	"github.com/pecunia-ai/findex/core/wordseg"
)

func testSegmenter() wordseg.Segmenter {
	return wordseg.NewDictSegmenterFromWords([]string{
		"consolidated", "revenue", "analysis", "summary", "statements", "operations",
	})
}

func TestSelectCaptionLinesFontDrop(t *testing.T) {
	lines := []CaptionLine{
		{Text: "Consolidated Statements", AvgSize: 12},
		{Text: "of Operations", AvgSize: 12},
		{Text: "unrelated body text", AvgSize: 8},
	}

	selected := SelectCaptionLines(lines, 3, 0.7)
	assert.Len(t, selected, 2)
	assert.Equal(t, "Consolidated Statements", selected[0].Text)
	assert.Equal(t, "of Operations", selected[1].Text)
}

func TestSelectCaptionLinesMaxLines(t *testing.T) {
	lines := []CaptionLine{
		{Text: "a", AvgSize: 10},
		{Text: "b", AvgSize: 10},
		{Text: "c", AvgSize: 10},
		{Text: "d", AvgSize: 10},
	}

	selected := SelectCaptionLines(lines, 3, 0.7)
	assert.Len(t, selected, 3)
}

func TestSelectCaptionLinesEmpty(t *testing.T) {
	assert.Empty(t, SelectCaptionLines(nil, 3, 0.7))
}

func TestMergeWordsOnLine(t *testing.T) {
	tokens := []Token{
		{Text: "Con", X0: 0, X1: 10},
		{Text: "solidated", X0: 12, X1: 40},
		{Text: "Statements", X0: 50, X1: 90},
	}

	// 间距 2 的碎片拼成一个词，间距 10 的保持独立
	assert.Equal(t, "Consolidated Statements", mergeWordsOnLine(tokens, 3))
}

func TestGroupIntoLines(t *testing.T) {
	tokens := []Token{
		{Text: "a", Top: 10.1},
		{Text: "b", Top: 10.3},
		{Text: "c", Top: 20},
	}

	lines := groupIntoLines(tokens)
	assert.Len(t, lines, 2)
	assert.Len(t, lines[0].tokens, 2)
	assert.Len(t, lines[1].tokens, 1)
	assert.Less(t, lines[0].top, lines[1].top)
}

func TestExtractPageCaption(t *testing.T) {
	extractor := NewTableExtractor(testSegmenter(), config.DefaultParserConfig())

	tokens := []Token{
		{Text: "Consolidated", X0: 0, X1: 60, Top: 90, Size: 12},
		{Text: "Revenue", X0: 70, X1: 110, Top: 90, Size: 12},
		{Text: "Analysis", X0: 120, X1: 160, Top: 90, Size: 12},
	}
	regions := []TableRegion{
		{Top: 100, Grid: [][]string{{"Year", "Revenue"}, {"2023", "100"}}},
	}

	records := extractor.ExtractPage(2, tokens, regions)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, records[0].PageNumber)
	assert.Equal(t, "Consolidated Revenue Analysis", records[0].Caption)
	assert.Equal(t, regions[0].Grid, records[0].Grid)
}

func TestExtractPageWeakCaptionAugmented(t *testing.T) {
	extractor := NewTableExtractor(testSegmenter(), config.DefaultParserConfig())

	tokens := []Token{
		{Text: "Summary", X0: 0, X1: 40, Top: 90, Size: 12},
	}
	regions := []TableRegion{
		{Top: 100, Grid: [][]string{{"Year", "Net Income"}, {"2023", "4,500"}}},
	}

	records := extractor.ExtractPage(1, tokens, regions)
	assert.Len(t, records, 1)
	assert.Equal(t, "Summary. Columns: Year | Net Income. Sample row: 2023 | 4,500", records[0].Caption)
}

func TestExtractPageNoCaptionCandidates(t *testing.T) {
	extractor := NewTableExtractor(testSegmenter(), config.DefaultParserConfig())

	regions := []TableRegion{
		{Top: 100, Grid: [][]string{{"Year", "Revenue"}, {"2023", "100"}}},
	}

	records := extractor.ExtractPage(1, nil, regions)
	assert.Len(t, records, 1)
	assert.Contains(t, records[0].Caption, "Columns: Year | Revenue")
	assert.Contains(t, records[0].Caption, "Sample row: 2023 | 100")
}

func TestExtractPageIgnoresTokensBelowTable(t *testing.T) {
	extractor := NewTableExtractor(testSegmenter(), config.DefaultParserConfig())

	tokens := []Token{
		{Text: "Consolidated", X0: 0, X1: 60, Top: 90, Size: 12},
		{Text: "Revenue", X0: 70, X1: 110, Top: 90, Size: 12},
		{Text: "Analysis", X0: 120, X1: 160, Top: 90, Size: 12},
		{Text: "footnote", X0: 0, X1: 40, Top: 150, Size: 8},
	}
	regions := []TableRegion{
		{Top: 100, Grid: [][]string{{"h1", "h2", "h3"}, {"1", "2", "3"}}},
	}

	records := extractor.ExtractPage(1, tokens, regions)
	assert.Len(t, records, 1)
	assert.NotContains(t, records[0].Caption, "footnote")
}

func TestNeedsAugmentation(t *testing.T) {
	assert.True(t, needsAugmentation("Table"))
	assert.True(t, needsAugmentation("Summary"))
	assert.True(t, needsAugmentation("Net Income"))
	assert.True(t, needsAugmentation("Quarterly data by segment"))
	assert.True(t, needsAugmentation("20231231"))
	assert.False(t, needsAugmentation("Consolidated statement of cash flows"))
}
