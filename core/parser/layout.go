package parser

import (
	"math"
	"sort"
	"strings"
)

// Token 词级 token 及其页面几何信息（由布局提供方给出）
type Token struct {
	Text string  // token 文本
	X0   float64 // 左边缘
	X1   float64 // 右边缘
	Top  float64 // 距页面顶部的垂直位置
	Size float64 // 字号
}

// TableRegion 页面上检测到的一个表格：顶边位置与抽取出的网格
type TableRegion struct {
	Top  float64
	Grid [][]string
}

// CaptionLine 候选标题行。只保留文本与平均字号，
// 标题选取逻辑由此与布局提供方的 token 格式解耦，可独立测试。
type CaptionLine struct {
	Text    string
	AvgSize float64
}

// tokenLine 同一视觉行上的 token 集合
type tokenLine struct {
	tokens []Token
	top    float64
}

// groupIntoLines 按垂直位置粗量化分行：Top/2 取整相同的 token 属于同一行。
// 返回结果按 top 升序（阅读顺序）。
func groupIntoLines(tokens []Token) []tokenLine {
	if len(tokens) == 0 {
		return nil
	}

	byBand := make(map[int][]Token)
	for _, t := range tokens {
		key := int(math.Round(t.Top / 2))
		byBand[key] = append(byBand[key], t)
	}

	keys := make([]int, 0, len(byBand))
	for k := range byBand {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	lines := make([]tokenLine, 0, len(keys))
	for _, k := range keys {
		lineTokens := byBand[k]
		var sum float64
		for _, t := range lineTokens {
			sum += t.Top
		}
		lines = append(lines, tokenLine{
			tokens: lineTokens,
			top:    sum / float64(len(lineTokens)),
		})
	}
	return lines
}

// mergeWordsOnLine 把同一行上水平相邻的 token 合并成词。
// 相邻 token 的左边缘与前一个 token 右边缘的间距不超过 maxGap 时拼成同一个词
// （处理 PDF 抽取器按字符/碎片输出的情况），词之间用单个空格连接。
func mergeWordsOnLine(tokens []Token, maxGap float64) string {
	if len(tokens) == 0 {
		return ""
	}

	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X0 < sorted[j].X0 })

	var merged []string
	current := sorted[0].Text
	lastX1 := sorted[0].X1

	for _, t := range sorted[1:] {
		if t.X0-lastX1 <= maxGap {
			current += t.Text
		} else {
			merged = append(merged, current)
			current = t.Text
		}
		lastX1 = t.X1
	}
	merged = append(merged, current)

	return strings.Join(merged, " ")
}

// avgFontSize 行内 token 的平均字号
func avgFontSize(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var sum float64
	for _, t := range tokens {
		sum += t.Size
	}
	return sum / float64(len(tokens))
}

// SelectCaptionLines 从候选行中选出标题行。
// 输入按距表格由近到远排序（最近的在前）。从表格向外收集，最多取 maxLines 行；
// 一旦某行平均字号低于上一接受行的 dropRatio 倍即停止，
// 字号骤降视为标题与上方无关正文之间的边界。
func SelectCaptionLines(lines []CaptionLine, maxLines int, dropRatio float64) []CaptionLine {
	var selected []CaptionLine
	lastAvgSize := 0.0

	for _, l := range lines {
		if lastAvgSize > 0 && l.AvgSize < lastAvgSize*dropRatio {
			break
		}
		selected = append(selected, l)
		lastAvgSize = l.AvgSize
		if len(selected) >= maxLines {
			break
		}
	}
	return selected
}
