package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-grader-api/internal/domain/entity"
	"ai-grader-api/internal/domain/repository"
	"ai-grader-api/internal/domain/service"
)

type fakeUsageRepo struct {
	created []*entity.LLMUsageEvent
	err     error
}

func (f *fakeUsageRepo) Create(ctx context.Context, event *entity.LLMUsageEvent) error {
	f.created = append(f.created, event)
	return f.err
}

func (f *fakeUsageRepo) StatsByWorkflow(ctx context.Context, since time.Time) ([]repository.TokenUsageStat, error) {
	return nil, nil
}

func TestRecordPersistsEvent(t *testing.T) {
	repo := &fakeUsageRepo{}
	r := NewLLMUsageRecorder(repo)

	err := r.Record(context.Background(), service.LLMUsageInput{
		RequestID:        " req-1 ",
		Workflow:         "document_chunk",
		Provider:         "openai",
		Model:            "gpt-4o",
		PromptTokens:     100,
		CompletionTokens: 200,
		DurationMs:       1500,
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	evt := repo.created[0]
	assert.Equal(t, "req-1", evt.RequestID)
	assert.Equal(t, "document_chunk", evt.Workflow)
	assert.Equal(t, 300, evt.TotalTokens)
	assert.Equal(t, int64(1500), evt.DurationMs)
}

func TestRecordSwallowsRepoError(t *testing.T) {
	repo := &fakeUsageRepo{err: errors.New("db down")}
	r := NewLLMUsageRecorder(repo)

	// 落库失败不向调用方（eino 回调）传播
	err := r.Record(context.Background(), service.LLMUsageInput{
		Workflow:         "document_single",
		Provider:         "openai",
		PromptTokens:     10,
		CompletionTokens: 20,
	})
	require.NoError(t, err)
	assert.Len(t, repo.created, 1, "the write is still attempted")
}

func TestRecordRejectsNegativeTokens(t *testing.T) {
	repo := &fakeUsageRepo{}
	r := NewLLMUsageRecorder(repo)

	err := r.Record(context.Background(), service.LLMUsageInput{
		Workflow:     "document_single",
		PromptTokens: -1,
	})
	require.Error(t, err)
	assert.Empty(t, repo.created)
}
