package parser

import (
	"bytes"
	"context"
	"sort"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/ledongthuc/pdf"

	"github.com/pecunia-ai/findex/core/errors"
)

// PDFLayoutProvider 基于 ledongthuc/pdf 的布局提供方实现。
// 提供词级 token（水平范围/垂直位置/字号）、页面纯文本，
// 以及基于行对齐的表格区域检测。不做多栏重排和 OCR。
type PDFLayoutProvider struct {
	// minTableRows 连续的表状行达到该数量才认定为表格区域
	minTableRows int
	// columnTolerance 列起点聚类容差（pt）
	columnTolerance float64
}

// NewPDFLayoutProvider 创建 PDF 布局提供方
func NewPDFLayoutProvider() *PDFLayoutProvider {
	return &PDFLayoutProvider{
		minTableRows:    3,
		columnTolerance: 12.0,
	}
}

// Pages 解析 PDF 字节，逐页返回布局信息
func (p *PDFLayoutProvider) Pages(ctx context.Context, data []byte) ([]PageLayout, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Newf(errors.ErrDocumentParseFailed, "failed to open PDF: %v", err)
	}

	numPages := reader.NumPage()
	pages := make([]PageLayout, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, PageLayout{})
			continue
		}

		tokens := p.extractTokens(page)

		text, err := page.GetPlainText(nil)
		if err != nil {
			// 单页文本抽取失败不是致命错误，该页按空文本处理
			g.Log().Warningf(ctx, "Failed to extract plain text from page %d: %v", i, err)
			text = ""
		}

		pages = append(pages, PageLayout{
			Text:   text,
			Tokens: tokens,
			Tables: p.detectTableRegions(tokens),
		})
	}

	return pages, nil
}

// extractTokens 把页面的文本绘制片段转成 Token。
// PDF 坐标系原点在左下角，这里换算成距顶部的距离。
func (p *PDFLayoutProvider) extractTokens(page pdf.Page) []Token {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil
	}

	pageHeight := mediaBoxHeight(page)
	if pageHeight <= 0 {
		for _, t := range content.Text {
			if t.Y > pageHeight {
				pageHeight = t.Y
			}
		}
	}

	tokens := make([]Token, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text: t.S,
			X0:   t.X,
			X1:   t.X + t.W,
			Top:  pageHeight - t.Y,
			Size: t.FontSize,
		})
	}
	return tokens
}

// mediaBoxHeight 从 MediaBox 读取页面高度，缺失时返回 0
func mediaBoxHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return 0
	}
	return box.Index(3).Float64() - box.Index(1).Float64()
}

// detectTableRegions 基于行对齐检测表格区域：
// 连续出现足够多"表状行"（多 token 且数字类占比高）即认定为一个表格，
// 紧邻其上的非表状行作为列头行并入网格。
func (p *PDFLayoutProvider) detectTableRegions(tokens []Token) []TableRegion {
	lines := groupIntoLines(tokens)
	if len(lines) < p.minTableRows {
		return nil
	}

	var regions []TableRegion
	runStart := -1

	flush := func(start, end int) {
		if end-start < p.minTableRows {
			return
		}
		// 紧邻上方的非表状行作为列头
		if start > 0 && len(lines[start-1].tokens) >= 2 {
			start--
		}
		regions = append(regions, p.buildRegion(lines[start:end]))
	}

	for i, l := range lines {
		if isTabularLine(l) {
			if runStart == -1 {
				runStart = i
			}
			continue
		}
		if runStart != -1 {
			flush(runStart, i)
			runStart = -1
		}
	}
	if runStart != -1 {
		flush(runStart, len(lines))
	}

	return regions
}

// isTabularLine 行内至少 3 个 token 且半数以上是数字类时视为表状行
func isTabularLine(l tokenLine) bool {
	if len(l.tokens) < 3 {
		return false
	}
	numeric := 0
	for _, t := range l.tokens {
		if numericTokenRe.MatchString(t.Text) {
			numeric++
		}
	}
	return float64(numeric)/float64(len(l.tokens)) >= 0.5
}

// buildRegion 把若干行聚成表格区域：按列起点聚类切出单元格网格
func (p *PDFLayoutProvider) buildRegion(rows []tokenLine) TableRegion {
	// 收集所有列起点并聚类
	var starts []float64
	top := rows[0].top
	for _, r := range rows {
		if r.top < top {
			top = r.top
		}
		for _, t := range r.tokens {
			starts = append(starts, t.X0)
		}
	}
	sort.Float64s(starts)

	var centers []float64
	for _, x := range starts {
		if len(centers) == 0 || x-centers[len(centers)-1] > p.columnTolerance {
			centers = append(centers, x)
		}
	}

	grid := make([][]string, len(rows))
	for ri, r := range rows {
		cells := make([][]string, len(centers))
		sorted := make([]Token, len(r.tokens))
		copy(sorted, r.tokens)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].X0 < sorted[j].X0 })

		for _, t := range sorted {
			ci := nearestColumn(centers, t.X0)
			cells[ci] = append(cells[ci], t.Text)
		}

		row := make([]string, len(centers))
		for ci, parts := range cells {
			row[ci] = joinCell(parts)
		}
		grid[ri] = row
	}

	return TableRegion{Top: top, Grid: grid}
}

func nearestColumn(centers []float64, x float64) int {
	best := 0
	for i := range centers {
		if abs(x-centers[i]) < abs(x-centers[best]) {
			best = i
		}
	}
	return best
}

func joinCell(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
