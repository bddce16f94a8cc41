package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"english", "the quick brown fox", 4},
		{"extra whitespace", "  hello   world  ", 2},
		{"chinese", "论点清晰", 4},
		{"mixed", "结论 is clear", 4},
		{"newlines", "one\ntwo\n\nthree", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.text))
		})
	}
}

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateByRunes("abcdef", 3))
	assert.Equal(t, "abc", TruncateByRunes("abc", 10))
	assert.Equal(t, "", TruncateByRunes("abc", 0))
	// 不能切断多字节字符
	assert.Equal(t, "你好", TruncateByRunes("你好世界", 2))
}

func TestTailRunes(t *testing.T) {
	assert.Equal(t, "def", TailRunes("abcdef", 3))
	assert.Equal(t, "abc", TailRunes("abc", 10))
	assert.Equal(t, "世界", TailRunes("你好世界", 2))
}

func TestParseTargetWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"english words", "Write an essay of 3000 words on climate policy", 3000},
		{"singular word", "about 500 word response", 500},
		{"chinese", "写一篇 2000字 的议论文", 2000},
		{"no target", "Write an essay on climate policy", 0},
		{"too small", "list 5 words", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTargetWords(tt.text))
		})
	}
}

func TestCountWordsLongText(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("lorem ipsum ", 300))
	assert.Equal(t, 600, CountWords(text))
}
