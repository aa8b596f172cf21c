package wordseg

import (
	_ "embed"
	"math"
	"strings"
	"unicode"
)

//go:embed wordlist.txt
var wordlistData string

// Segmenter 词切分能力：把粘连在一起的词拆开。
// 对同一输入必须返回确定性的结果。
type Segmenter interface {
	Split(token string) []string
}

// DictSegmenter 基于词频字典的动态规划切分器。
// 字典按词频降序排列，代价采用 Zipf 估计：cost = log(rank * log(N))。
// 这是有损的：偶尔会出现错误切分，换取从排版糟糕的 PDF 文本中恢复可读标题。
type DictSegmenter struct {
	wordCost   map[string]float64
	maxWordLen int
}

// NewDictSegmenter 使用内嵌词表创建切分器
func NewDictSegmenter() *DictSegmenter {
	words := strings.Fields(wordlistData)
	return NewDictSegmenterFromWords(words)
}

// NewDictSegmenterFromWords 使用给定词表创建切分器，词表按词频降序
func NewDictSegmenterFromWords(words []string) *DictSegmenter {
	s := &DictSegmenter{
		wordCost: make(map[string]float64, len(words)),
	}
	logN := math.Log(float64(len(words)) + 1)
	for rank, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, exists := s.wordCost[w]; exists {
			continue
		}
		s.wordCost[w] = math.Log(float64(rank+1) * logN)
		if len(w) > s.maxWordLen {
			s.maxWordLen = len(w)
		}
	}
	return s
}

// Split 把一个 token 切分为子词序列。
// 非字母的连续段（数字、标点）原样保留，字母段做字典切分。
func (s *DictSegmenter) Split(token string) []string {
	if token == "" {
		return nil
	}

	var out []string
	runs := splitAlphaRuns(token)
	for _, run := range runs {
		if !isAlpha(run) {
			out = append(out, run)
			continue
		}
		out = append(out, s.segmentAlpha(run)...)
	}
	return out
}

// segmentAlpha 对纯字母段做最小代价切分
func (s *DictSegmenter) segmentAlpha(run string) []string {
	lower := strings.ToLower(run)
	n := len(lower)

	// best[i] 为前缀 [0,i) 的最小代价，prev[i] 为该切分下最后一个词的起点
	best := make([]float64, n+1)
	prev := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(1)
		prev[i] = i - 1
		start := 0
		if i > s.maxWordLen {
			start = i - s.maxWordLen
		}
		for j := start; j < i; j++ {
			c := best[j] + s.costOf(lower[j:i])
			if c < best[i] {
				best[i] = c
				prev[i] = j
			}
		}
	}

	// 回溯，注意从原始 run 上切片以保留大小写
	var parts []string
	for i := n; i > 0; {
		j := prev[i]
		parts = append(parts, run[j:i])
		i = j
	}
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return parts
}

// costOf 字典外的片段给一个与长度相关的惩罚，保证 DP 总有有限解
func (s *DictSegmenter) costOf(w string) float64 {
	if c, ok := s.wordCost[w]; ok {
		return c
	}
	return 20.0 + 10.0*float64(len(w))
}

// splitAlphaRuns 把字符串切成交替的字母段与非字母段
func splitAlphaRuns(tok string) []string {
	var runs []string
	start := 0
	runes := []rune(tok)
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || unicode.IsLetter(runes[i]) != unicode.IsLetter(runes[i-1]) {
			runs = append(runs, string(runes[start:i]))
			start = i
		}
	}
	return runs
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}
