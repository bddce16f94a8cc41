package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"ai-grader-api/internal/application/quota"
	"ai-grader-api/internal/interfaces/http/dto"
)

// UsageHandler LLM 用量统计处理器
type UsageHandler struct {
	stats *quota.UsageStatsService
}

// NewUsageHandler 创建用量统计处理器
func NewUsageHandler(stats *quota.UsageStatsService) *UsageHandler {
	return &UsageHandler{stats: stats}
}

// Stats 查询各工作流的 token 用量
// @Summary 查询 token 用量统计
// @Description 按工作流聚合最近一段时间的 token 用量
// @Tags Usage
// @Produce json
// @Param window query string false "统计窗口，Go duration 格式" default(24h)
// @Success 200 {object} dto.Response[dto.UsageStatsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/usage/stats [get]
func (h *UsageHandler) Stats(c *gin.Context) {
	windowStr := c.DefaultQuery("window", "24h")
	window, err := time.ParseDuration(windowStr)
	if err != nil || window <= 0 {
		dto.BadRequest(c, "invalid window: "+windowStr)
		return
	}

	stats, err := h.stats.StatsByWorkflow(c.Request.Context(), window)
	if err != nil {
		respondAppError(c, err)
		return
	}

	items := make([]dto.UsageStatItem, 0, len(stats))
	for _, s := range stats {
		items = append(items, dto.UsageStatItem{
			Workflow:         s.Workflow,
			PromptTokens:     s.PromptTokens,
			CompletionTokens: s.CompletionTokens,
			TotalTokens:      s.TotalTokens,
		})
	}

	dto.Success(c, dto.UsageStatsResponse{
		Window: window.String(),
		Stats:  items,
	})
}
