// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"ai-grader-api/internal/domain/entity"
	"ai-grader-api/internal/domain/repository"
)

type LLMUsageEventRepository struct {
	client *Client
}

func NewLLMUsageEventRepository(client *Client) *LLMUsageEventRepository {
	return &LLMUsageEventRepository{client: client}
}

func (r *LLMUsageEventRepository) Create(ctx context.Context, event *entity.LLMUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.Create")
	defer span.End()

	if event.TotalTokens == 0 {
		event.TotalTokens = event.PromptTokens + event.CompletionTokens
	}

	db := r.client.db.WithContext(ctx)
	if err := db.Create(event).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create llm usage event: %w", err)
	}
	return nil
}

func (r *LLMUsageEventRepository) StatsByWorkflow(ctx context.Context, since time.Time) ([]repository.TokenUsageStat, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.StatsByWorkflow")
	defer span.End()

	db := r.client.db.WithContext(ctx)

	var stats []repository.TokenUsageStat
	if err := db.Model(&entity.LLMUsageEvent{}).
		Where("created_at >= ?", since).
		Select("workflow, COALESCE(SUM(prompt_tokens),0) AS prompt_tokens, COALESCE(SUM(completion_tokens),0) AS completion_tokens, COALESCE(SUM(total_tokens),0) AS total_tokens").
		Group("workflow").
		Scan(&stats).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to stat llm usage: %w", err)
	}
	return stats, nil
}
