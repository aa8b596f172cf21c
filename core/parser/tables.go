package parser

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pecunia-ai/findex/core/config"
	"github.com/pecunia-ai/findex/core/wordseg"
	"github.com/pecunia-ai/findex/pkg/schema"
)

// genericCaptionWords 出现这些词的标题视为泛化标题，需要用表格内容补强
var genericCaptionWords = []string{"table", "summary", "figure", "data", "report"}

// TableExtractor 按页提取表格并从上方文本推断标题
type TableExtractor struct {
	seg wordseg.Segmenter
	cfg config.ParserConfig
}

// NewTableExtractor 创建表格提取器
func NewTableExtractor(seg wordseg.Segmenter, cfg config.ParserConfig) *TableExtractor {
	return &TableExtractor{seg: seg, cfg: cfg}
}

// ExtractPage 对单页的 token 与表格区域产出 TableRecord。
// 没有标题候选的表格也会产出（标题可能为空），空网格的表格不丢弃。
func (e *TableExtractor) ExtractPage(pageNumber int, tokens []Token, regions []TableRegion) []*schema.TableRecord {
	records := make([]*schema.TableRecord, 0, len(regions))

	for _, region := range regions {
		caption := e.inferCaption(tokens, region)
		if needsAugmentation(caption) {
			caption = augmentCaption(caption, region.Grid)
		}

		records = append(records, &schema.TableRecord{
			Grid:       region.Grid,
			Caption:    caption,
			PageNumber: pageNumber,
		})
	}
	return records
}

// inferCaption 从表格上方的 token 推断标题。
// 严格位于表格顶边上方的 token 为标题候选；按行分组后从近到远收集，
// 字号骤降即停。候选行拼不出内容时回退为候选全文的前 N 个字符。
func (e *TableExtractor) inferCaption(tokens []Token, region TableRegion) string {
	var candidates []Token
	for _, t := range tokens {
		if t.Top < region.Top {
			candidates = append(candidates, t)
		}
	}

	var heading string
	if len(candidates) > 0 {
		lines := groupIntoLines(candidates)

		// 距表格由近到远：top 越大离表格越近
		sort.Slice(lines, func(i, j int) bool { return lines[i].top > lines[j].top })

		captionLines := make([]CaptionLine, len(lines))
		for i, l := range lines {
			captionLines[i] = CaptionLine{
				Text:    mergeWordsOnLine(l.tokens, e.cfg.WordMergeGap),
				AvgSize: avgFontSize(l.tokens),
			}
		}

		selected := SelectCaptionLines(captionLines, e.cfg.MaxCaptionLines, e.cfg.FontDropRatio)

		// 选中的行是从近到远的，反转回自上而下的阅读顺序再拼接
		parts := make([]string, 0, len(selected))
		for i := len(selected) - 1; i >= 0; i-- {
			parts = append(parts, selected[i].Text)
		}
		heading = strings.Join(parts, " ")
	}

	// 回退：不分行，直接取候选 token 文本的前 N 个字符
	if strings.TrimSpace(heading) == "" {
		texts := make([]string, 0, len(candidates))
		for _, t := range candidates {
			texts = append(texts, t.Text)
		}
		heading = truncateRunes(strings.Join(texts, " "), e.cfg.CaptionFallbackN)
	}

	return NormalizeHeading(heading, e.seg)
}

// needsAugmentation 判断标题是否太弱需要用表格内容补强：
// 词数不超过 2、含泛化词、或为纯数字。
func needsAugmentation(caption string) bool {
	caption = strings.TrimSpace(caption)
	if len(strings.Fields(caption)) <= 2 {
		return true
	}
	lower := strings.ToLower(caption)
	for _, w := range genericCaptionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return isAllDigits(caption)
}

// augmentCaption 把列头行和首个数据行拼进标题，供向量检索消歧
func augmentCaption(caption string, grid [][]string) string {
	var headers, firstRow []string
	if len(grid) > 0 {
		headers = grid[0]
	}
	if len(grid) > 1 {
		firstRow = grid[1]
	}

	result := caption
	if headerText := strings.Join(headers, " | "); headerText != "" {
		result += ". Columns: " + headerText
	}
	if rowText := strings.Join(firstRow, " | "); rowText != "" {
		result += ". Sample row: " + rowText
	}
	return result
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
