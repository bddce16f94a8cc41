package document

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// CountWords 统计文本字数。
// 规则：CJK 字符每个算一个词，其余按空白分隔的 token 计数。
// 中英混排的作业题干两种计数都要能覆盖。
func CountWords(s string) int {
	count := 0
	inToken := false
	for _, r := range s {
		if isCJK(r) {
			if inToken {
				count++
				inToken = false
			}
			count++
			continue
		}
		if unicode.IsSpace(r) {
			if inToken {
				count++
				inToken = false
			}
			continue
		}
		inToken = true
	}
	if inToken {
		count++
	}
	return count
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	case r >= 0xF900 && r <= 0xFAFF: // CJK Compatibility Ideographs
		return true
	default:
		return false
	}
}

// TruncateByRunes 按 rune 截断，保留开头 max 个 rune。
func TruncateByRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// TailRunes 返回字符串末尾 max 个 rune。
func TailRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[len(runes)-max:])
}

var targetWordsPattern = regexp.MustCompile(`(\d{2,6})\s*(?:words?|字)`)

// ParseTargetWords 从任务描述中解析目标字数（如 "3000 words"、"800字"）。
// 解析不到返回 0。
func ParseTargetWords(taskSpec string) int {
	m := targetWordsPattern.FindStringSubmatch(strings.ToLower(taskSpec))
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
