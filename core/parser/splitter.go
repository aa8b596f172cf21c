package parser

import (
	"regexp"
	"strings"

	"github.com/pecunia-ai/findex/core/errors"
)

// numericTokenRe 匹配纯数字类 token：数字、逗号、句点、百分号、括号、连字符
var numericTokenRe = regexp.MustCompile(`^[\d,.\-%()]+$`)

// LooksLikeTable 判断一段文本是否像表格碎片。
// 按空白切分后，数字类 token 占比超过 threshold 即认为是误抽取的表格内容：
// 这类片段不是叙述文本，入索引会污染检索质量。
func LooksLikeTable(text string, threshold float64) bool {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return false
	}
	numericLike := 0
	for _, t := range tokens {
		if numericTokenRe.MatchString(t) {
			numericLike++
		}
	}
	return float64(numericLike)/float64(len(tokens)) > threshold
}

// SplitText 把一页叙述文本切成句界对齐、带重叠的分片。
// 每片长度不超过 maxChunkSize，相邻分片重叠 overlap 个字符。
// 窗口内从末尾向前找最后一个句号作为切点，找不到就硬切。
// overlap >= maxChunkSize 属于配置错误，在处理任何文本之前直接失败。
func SplitText(text string, maxChunkSize, overlap int, tableThreshold float64) ([]string, error) {
	if overlap >= maxChunkSize {
		return nil, errors.Newf(errors.ErrInvalidConfig,
			"overlap must be smaller than maxChunkSize: overlap=%d, maxChunkSize=%d", overlap, maxChunkSize)
	}

	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	textLength := len(text)

	var chunks []string
	start := 0
	for start < textLength {
		end := start + maxChunkSize
		if end > textLength {
			end = textLength
		}

		// 优先在句子边界切分；句号落在窗口起点上视同没找到
		splitPoint := end
		if rel := strings.LastIndexByte(text[start:end], '.'); rel > 0 {
			splitPoint = start + rel
		}

		chunk := strings.TrimSpace(text[start:splitPoint])
		if chunk != "" && !LooksLikeTable(chunk, tableThreshold) {
			chunks = append(chunks, chunk)
		}

		// 保证循环始终前进：重叠吃掉全部进度时按整窗强制推进
		nextStart := splitPoint - overlap
		if nextStart <= start {
			nextStart = start + maxChunkSize
		}
		start = nextStart
	}

	return chunks, nil
}
