// Package repository 定义仓储接口
package repository

import (
	"context"
	"time"

	"ai-grader-api/internal/domain/entity"
)

// TokenUsageStat token 用量统计
type TokenUsageStat struct {
	Workflow         string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// LLMUsageEventRepository LLM 用量事件仓储接口
type LLMUsageEventRepository interface {
	// Create 写入一条用量事件
	Create(ctx context.Context, event *entity.LLMUsageEvent) error
	// StatsByWorkflow 统计时间范围内各工作流的 token 用量
	StatsByWorkflow(ctx context.Context, since time.Time) ([]TokenUsageStat, error)
}
