package document

import (
	"strings"
)

// GenerationContext 跨块传递的累计状态：
// - AccumulatedText：已生成的全文（事件推送与最终结果的来源）
// - 提示词中携带的不是全文，而是受限的 Snapshot（摘要 + 尾部）
type GenerationContext struct {
	AccumulatedText string
	wordCount       int
}

// ContextCarrier 为每个后续块构造受限的先前文本视图，
// 保证提示词大小不随已生成文本线性增长。
type ContextCarrier struct {
	summaryTriggerWords int
	summaryMaxRunes     int
	tailRunes           int
}

func NewContextCarrier(summaryTriggerWords, summaryMaxRunes, tailRunes int) *ContextCarrier {
	if summaryTriggerWords <= 0 {
		summaryTriggerWords = 6000
	}
	if summaryMaxRunes <= 0 {
		summaryMaxRunes = 2000
	}
	if tailRunes <= 0 {
		tailRunes = 1200
	}
	return &ContextCarrier{
		summaryTriggerWords: summaryTriggerWords,
		summaryMaxRunes:     summaryMaxRunes,
		tailRunes:           tailRunes,
	}
}

// NewContext 创建空的累计状态
func (c *ContextCarrier) NewContext() *GenerationContext {
	return &GenerationContext{}
}

// Update 追加一个已完成块的文本
func (c *ContextCarrier) Update(gc *GenerationContext, chunkText string) {
	t := strings.TrimSpace(chunkText)
	if t == "" {
		return
	}
	if gc.AccumulatedText == "" {
		gc.AccumulatedText = t
	} else {
		gc.AccumulatedText = gc.AccumulatedText + "\n\n" + t
	}
	gc.wordCount = CountWords(gc.AccumulatedText)
}

// WordCount 当前累计字数
func (gc *GenerationContext) WordCount() int {
	return gc.wordCount
}

// Snapshot 返回下一块提示词中可携带的先前文本视图。
// 未超过触发阈值时摘要即全文、尾部为空；超过后摘要被压缩截断，
// 尾部保留末尾若干 rune 以保证续写衔接。
func (c *ContextCarrier) Snapshot(gc *GenerationContext) (summary string, tail string) {
	if gc == nil || gc.AccumulatedText == "" {
		return "", ""
	}
	if gc.wordCount <= c.summaryTriggerWords {
		return gc.AccumulatedText, TailRunes(gc.AccumulatedText, c.tailRunes)
	}

	// 压缩模式：摘要保留开头（全文的框架），续写衔接由 tail 保证。
	// 两者长度都有上界，提示词不随全文线性增长。
	summary = TruncateByRunes(gc.AccumulatedText, c.summaryMaxRunes)
	tail = TailRunes(gc.AccumulatedText, c.tailRunes)
	return summary, tail
}
