package document

import (
	"strings"

	apperrors "ai-grader-api/pkg/errors"
)

// RoleHint 块在文档中的结构角色
type RoleHint string

const (
	RoleOpening RoleHint = "opening"
	RoleBody    RoleHint = "body"
	RoleClosing RoleHint = "closing"
)

// ChunkSpec 单个块的生成计划
type ChunkSpec struct {
	Index       int
	TotalCount  int
	RoleHint    RoleHint
	TargetWords int
}

// Planner 根据任务目标字数决定是否分块，以及每块的角色和字数。
type Planner struct {
	thresholdWords   int
	chunkTargetWords int
	defaultTarget    int
}

func NewPlanner(thresholdWords, chunkTargetWords, defaultTargetWords int) *Planner {
	if thresholdWords <= 0 {
		thresholdWords = 1500
	}
	if chunkTargetWords <= 0 {
		chunkTargetWords = 600
	}
	if defaultTargetWords <= 0 {
		defaultTargetWords = 1000
	}
	return &Planner{
		thresholdWords:   thresholdWords,
		chunkTargetWords: chunkTargetWords,
		defaultTarget:    defaultTargetWords,
	}
}

// ResolveTarget 确定任务的目标字数。
// 优先级：显式指定 > 任务描述中解析 > 默认值。
func (p *Planner) ResolveTarget(taskSpec string, explicit int) (int, error) {
	if explicit < 0 {
		return 0, apperrors.New(apperrors.CodePlanningFailed, "target word count must be positive").
			WithDetail("target_word_count is negative")
	}
	if explicit > 0 {
		return explicit, nil
	}
	if parsed := ParseTargetWords(taskSpec); parsed > 0 {
		return parsed, nil
	}
	return p.defaultTarget, nil
}

// Plan 生成分块计划。
// 目标字数未超过阈值时返回 nil，表示单次生成。
func (p *Planner) Plan(taskSpec string, targetWords int) ([]ChunkSpec, error) {
	if strings.TrimSpace(taskSpec) == "" {
		return nil, apperrors.New(apperrors.CodePlanningFailed, "task spec is empty")
	}
	if targetWords <= 0 {
		return nil, apperrors.New(apperrors.CodePlanningFailed, "target word count must be positive")
	}

	if targetWords <= p.thresholdWords {
		return nil, nil
	}

	total := (targetWords + p.chunkTargetWords - 1) / p.chunkTargetWords
	if total < 2 {
		total = 2
	}

	chunks := make([]ChunkSpec, 0, total)
	remaining := targetWords
	for i := 1; i <= total; i++ {
		words := p.chunkTargetWords
		if i == total {
			// 末块吸收余量，可能比标准块短
			words = remaining
		}
		remaining -= words

		role := RoleBody
		switch i {
		case 1:
			role = RoleOpening
		case total:
			role = RoleClosing
		}

		chunks = append(chunks, ChunkSpec{
			Index:       i,
			TotalCount:  total,
			RoleHint:    role,
			TargetWords: words,
		})
	}
	return chunks, nil
}
