// Package router 提供 HTTP 路由配置
package router

import (
	"ai-grader-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	documentHandler *handler.DocumentHandler,
	usageHandler *handler.UsageHandler,
) {
	// 文档生成
	documents := v1.Group("/documents")
	{
		documents.POST("/generate", documentHandler.GenerateDocument) // SSE
		documents.POST("/refine", documentHandler.RefineDocument)
		documents.GET("/drafts/:did", documentHandler.GetDraft)
	}

	// 用量统计
	usage := v1.Group("/usage")
	{
		usage.GET("/stats", usageHandler.Stats)
	}
}
