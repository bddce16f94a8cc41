// Package quota 提供 LLM 用量记录
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ai-grader-api/internal/domain/entity"
	"ai-grader-api/internal/domain/repository"
	"ai-grader-api/internal/domain/service"
	"ai-grader-api/pkg/logger"
)

type LLMUsageRecorder struct {
	usageRepo repository.LLMUsageEventRepository
}

func NewLLMUsageRecorder(usageRepo repository.LLMUsageEventRepository) *LLMUsageRecorder {
	return &LLMUsageRecorder{usageRepo: usageRepo}
}

func (r *LLMUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	if r == nil || r.usageRepo == nil {
		return nil
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return fmt.Errorf("invalid token usage")
	}

	evt := &entity.LLMUsageEvent{
		RequestID:        strings.TrimSpace(in.RequestID),
		Workflow:         strings.TrimSpace(in.Workflow),
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		PromptTokens:     in.PromptTokens,
		CompletionTokens: in.CompletionTokens,
		TotalTokens:      in.PromptTokens + in.CompletionTokens,
		DurationMs:       int64(in.DurationMs),
	}
	// 用量落库是 best-effort：失败不影响生成，但要可观测
	if err := r.usageRepo.Create(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn("failed to persist llm usage event",
			slog.String("workflow", evt.Workflow),
			slog.String("provider", evt.Provider),
			slog.Any("error", err))
	}
	return nil
}
