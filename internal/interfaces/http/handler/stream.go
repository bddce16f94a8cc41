// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"ai-grader-api/internal/application/document"
	"ai-grader-api/pkg/metrics"
)

// streamEvents 将生成事件按序写入 SSE 响应。
// 事件通道关闭或客户端断开时返回；complete/error 是终态事件，
// 生产方投递终态后必须关闭通道。
func streamEvents(c *gin.Context, events <-chan document.Event) {
	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-events:
			if !ok {
				// 生产方已结束
				return false
			}
			c.SSEvent(string(evt.Type), evt)
			// 终态事件后立即结束流
			return evt.Type == document.EventChunk

		case <-c.Request.Context().Done():
			// 客户端断开
			return false
		}
	})
}
