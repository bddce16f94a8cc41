// Package redis 提供生成结果的会话草稿备份
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "ai-grader-api/pkg/errors"
)

// Draft 完成的生成结果快照
// 流式响应本身不落库；草稿是断线后客户端找回结果的唯一途径。
type Draft struct {
	ID        string    `json:"id"`
	TaskSpec  string    `json:"task_spec"`
	FullText  string    `json:"full_text"`
	WordCount int       `json:"word_count"`
	Refined   bool      `json:"refined"`
	CreatedAt time.Time `json:"created_at"`
}

// DraftStore 草稿存储
type DraftStore struct {
	client *Client
	ttl    time.Duration
}

// NewDraftStore 创建草稿存储
func NewDraftStore(client *Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftStore{client: client, ttl: ttl}
}

func draftKey(id string) string {
	return "draft:" + id
}

// Save 保存草稿
func (s *DraftStore) Save(ctx context.Context, draft *Draft) error {
	ctx, span := tracer.Start(ctx, "draft.Save",
		trace.WithAttributes(attribute.String("draft.id", draft.ID)))
	defer span.End()

	bytes, err := json.Marshal(draft)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.client.rdb.Set(ctx, draftKey(draft.ID), bytes, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeCacheError, "failed to save draft")
	}
	return nil
}

// Get 读取草稿，不存在时返回 CodeNotFound
func (s *DraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	ctx, span := tracer.Start(ctx, "draft.Get",
		trace.WithAttributes(attribute.String("draft.id", id)))
	defer span.End()

	bytes, err := s.client.rdb.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, apperrors.New(apperrors.CodeNotFound, "draft not found")
		}
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to load draft")
	}

	var draft Draft
	if err := json.Unmarshal(bytes, &draft); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}
