package llm

import (
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

// charsPerToken 端点未返回 usage 时的粗略估算比例
const charsPerToken = 4

// EstimateTokens 按 4 字符/Token 估算，非空文本至少计 1
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

func estimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		if m != nil {
			total += EstimateTokens(m.Content)
		}
	}
	return total
}
