package node

import (
	"strings"
	"unicode/utf8"
)

// TruncateByRunes 按 rune 截断，避免截断多字节字符
func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// CollapseSpace 将连续空白折叠为单个空格
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
