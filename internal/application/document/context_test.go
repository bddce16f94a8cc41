package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarrierUpdateAppends(t *testing.T) {
	c := NewContextCarrier(6000, 2000, 1200)
	gc := c.NewContext()

	c.Update(gc, "first paragraph")
	c.Update(gc, "second paragraph")
	c.Update(gc, "   ")

	assert.Equal(t, "first paragraph\n\nsecond paragraph", gc.AccumulatedText)
	assert.Equal(t, 4, gc.WordCount())
}

func TestSnapshotUnderTrigger(t *testing.T) {
	c := NewContextCarrier(6000, 2000, 1200)
	gc := c.NewContext()
	c.Update(gc, "a short opening chunk")

	summary, tail := c.Snapshot(gc)
	assert.Equal(t, gc.AccumulatedText, summary, "under trigger the full text serves as summary")
	assert.Equal(t, gc.AccumulatedText, tail)
}

func TestSnapshotBoundedOverTrigger(t *testing.T) {
	// 触发阈值设低，方便构造超限文本
	c := NewContextCarrier(100, 200, 80)
	gc := c.NewContext()

	text := strings.TrimSpace(strings.Repeat("alpha beta gamma delta ", 60)) // 240 词
	c.Update(gc, text)
	require.Greater(t, gc.WordCount(), 100)

	summary, tail := c.Snapshot(gc)
	assert.LessOrEqual(t, len([]rune(summary)), 200, "summary must stay bounded")
	assert.LessOrEqual(t, len([]rune(tail)), 80, "tail must stay bounded")
	assert.True(t, strings.HasPrefix(gc.AccumulatedText, summary), "summary keeps the head of the text")
	assert.True(t, strings.HasSuffix(gc.AccumulatedText, tail), "tail keeps the end of the text")
}

func TestSnapshotStaysBoundedAsTextGrows(t *testing.T) {
	c := NewContextCarrier(50, 120, 60)
	gc := c.NewContext()

	prevLen := 0
	for i := 0; i < 20; i++ {
		c.Update(gc, strings.TrimSpace(strings.Repeat("word ", 30)))
		summary, tail := c.Snapshot(gc)
		promptLen := len([]rune(summary)) + len([]rune(tail))
		if gc.WordCount() > 50 {
			assert.LessOrEqual(t, promptLen, 120+60, "prompt view must not grow with accumulated text")
		}
		assert.GreaterOrEqual(t, len(gc.AccumulatedText), prevLen, "accumulated text itself only grows")
		prevLen = len(gc.AccumulatedText)
	}
}

func TestSnapshotEmptyContext(t *testing.T) {
	c := NewContextCarrier(6000, 2000, 1200)
	summary, tail := c.Snapshot(c.NewContext())
	assert.Empty(t, summary)
	assert.Empty(t, tail)
}
