package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pecunia-ai/findex/core/wordseg"
)

func TestNormalizeHeadingCamelCaseBoundary(t *testing.T) {
	assert.Equal(t, "Total Revenue", NormalizeHeading("TotalRevenue", nil))
	assert.Equal(t, "Consolidated Balance Sheet", NormalizeHeading("ConsolidatedBalanceSheet", nil))
}

func TestNormalizeHeadingDigitBoundary(t *testing.T) {
	assert.Equal(t, "2023 annual", NormalizeHeading("2023annual", nil))
}

func TestNormalizeHeadingCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "total revenue", NormalizeHeading("  total \n  revenue  ", nil))
	assert.Equal(t, "", NormalizeHeading("   ", nil))
}

func TestNormalizeHeadingWithSegmenter(t *testing.T) {
	seg := wordseg.NewDictSegmenterFromWords([]string{"consolidated", "balance", "sheet"})
	got := NormalizeHeading("consolidatedbalancesheet", seg)
	assert.Equal(t, "consolidated balance sheet", got)
}

func TestNormalizeHeadingSegmenterKeepsKnownWords(t *testing.T) {
	seg := wordseg.NewDictSegmenterFromWords([]string{"income", "statement", "net"})
	got := NormalizeHeading("net income statement", seg)
	assert.Equal(t, "net income statement", got)
}
