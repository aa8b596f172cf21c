package parser

import (
	"regexp"
	"strings"

	"github.com/pecunia-ai/findex/core/wordseg"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	lowerUpperRe  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	digitLetterRe = regexp.MustCompile(`([0-9])([A-Za-z])`)
)

// NormalizeHeading 清洗表格标题文本：
// 折叠空白、在小写/数字到大写及数字到字母的边界插入空格，
// 再把每个 token 过一遍词切分器拆开残留的粘连词。
// 有损处理：偶尔误切，换取从 PDF 坏排版里恢复出可读标题。
func NormalizeHeading(text string, seg wordseg.Segmenter) string {
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	text = lowerUpperRe.ReplaceAllString(text, "$1 $2")
	text = digitLetterRe.ReplaceAllString(text, "$1 $2")

	if seg == nil {
		return text
	}

	var words []string
	for _, token := range strings.Fields(text) {
		words = append(words, seg.Split(token)...)
	}
	return strings.Join(words, " ")
}
