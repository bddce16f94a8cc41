package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ai-grader-api/pkg/errors"
)

func newTestPlanner() *Planner {
	return NewPlanner(1500, 600, 1000)
}

func TestResolveTarget(t *testing.T) {
	p := newTestPlanner()

	t.Run("explicit wins", func(t *testing.T) {
		got, err := p.ResolveTarget("write 3000 words", 800)
		require.NoError(t, err)
		assert.Equal(t, 800, got)
	})

	t.Run("parsed from task spec", func(t *testing.T) {
		got, err := p.ResolveTarget("write a 3000 words essay", 0)
		require.NoError(t, err)
		assert.Equal(t, 3000, got)
	})

	t.Run("falls back to default", func(t *testing.T) {
		got, err := p.ResolveTarget("write an essay", 0)
		require.NoError(t, err)
		assert.Equal(t, 1000, got)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := p.ResolveTarget("write an essay", -1)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodePlanningFailed))
	})
}

func TestPlanBelowThreshold(t *testing.T) {
	p := newTestPlanner()

	chunks, err := p.Plan("short essay", 1000)
	require.NoError(t, err)
	assert.Nil(t, chunks, "at or below threshold must be single shot")

	chunks, err = p.Plan("short essay", 1500)
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPlanChunked(t *testing.T) {
	p := newTestPlanner()

	chunks, err := p.Plan("long essay", 3000)
	require.NoError(t, err)
	require.Len(t, chunks, 5)

	sum := 0
	for i, c := range chunks {
		assert.Equal(t, i+1, c.Index, "indexes must be contiguous from 1")
		assert.Equal(t, 5, c.TotalCount)
		sum += c.TargetWords
	}
	assert.Equal(t, 3000, sum, "chunk targets must cover the full target")

	assert.Equal(t, RoleOpening, chunks[0].RoleHint)
	assert.Equal(t, RoleBody, chunks[1].RoleHint)
	assert.Equal(t, RoleBody, chunks[3].RoleHint)
	assert.Equal(t, RoleClosing, chunks[4].RoleHint)
}

func TestPlanLastChunkShorter(t *testing.T) {
	p := newTestPlanner()

	chunks, err := p.Plan("long essay", 3100)
	require.NoError(t, err)
	require.Len(t, chunks, 6)

	for _, c := range chunks[:5] {
		assert.Equal(t, 600, c.TargetWords)
	}
	assert.Equal(t, 100, chunks[5].TargetWords)

	sum := 0
	for _, c := range chunks {
		sum += c.TargetWords
	}
	assert.Equal(t, 3100, sum)
}

func TestPlanInvalidInput(t *testing.T) {
	p := newTestPlanner()

	_, err := p.Plan("   ", 3000)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePlanningFailed))

	_, err = p.Plan("essay", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePlanningFailed))
}
