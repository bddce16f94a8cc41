package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	llmctx "ai-grader-api/internal/domain/service"
	wfmodel "ai-grader-api/internal/workflow/model"
	workflowport "ai-grader-api/internal/workflow/port"
	workflowprompt "ai-grader-api/internal/workflow/prompt"
)

type DocumentChain struct {
	factory workflowport.ChatModelFactory
}

func NewDocumentChain(factory workflowport.ChatModelFactory) *DocumentChain {
	return &DocumentChain{factory: factory}
}

func (c *DocumentChain) Invoke(ctx context.Context, in *wfmodel.DocumentGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(in.TaskSpec) == "" {
		return nil, fmt.Errorf("task spec is required")
	}
	if in.TargetWordCount <= 0 {
		return nil, fmt.Errorf("target_word_count is required")
	}

	workflow := "document_single"
	if in.TotalChunks > 1 {
		workflow = "document_chunk"
		if in.ChunkIndex < 1 || in.ChunkIndex > in.TotalChunks {
			return nil, fmt.Errorf("chunk index %d out of range [1,%d]", in.ChunkIndex, in.TotalChunks)
		}
	}

	ctx = llmctx.WithWorkflowProvider(ctx, workflow, strings.TrimSpace(in.Provider))
	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	msgs, err := formatDocumentMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs, buildDocumentModelOptions(in.Model, in.Temperature, in.MaxTokens)...)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return outMsg, nil
}

var documentPromptRegistry = workflowprompt.NewRegistry()

func formatDocumentMessages(ctx context.Context, in *wfmodel.DocumentGenerateInput) ([]*schema.Message, error) {
	if in.TotalChunks > 1 {
		tpl, err := documentPromptRegistry.ChatTemplate(workflowprompt.PromptDocumentChunkV1)
		if err != nil {
			return nil, err
		}
		summary := strings.TrimSpace(in.PriorSummary)
		if summary == "" {
			summary = "(nothing written yet)"
		}
		tail := strings.TrimSpace(in.PriorTail)
		if tail == "" {
			tail = "(nothing written yet)"
		}
		vars := map[string]any{
			"task_spec":         strings.TrimSpace(in.TaskSpec),
			"chunk_index":       in.ChunkIndex,
			"total_chunks":      in.TotalChunks,
			"role_hint":         strings.TrimSpace(in.RoleHint),
			"target_word_count": in.TargetWordCount,
			"prior_summary":     summary,
			"prior_tail":        tail,
		}
		return tpl.Format(ctx, vars)
	}

	tpl, err := documentPromptRegistry.ChatTemplate(workflowprompt.PromptDocumentSingleV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"task_spec":         strings.TrimSpace(in.TaskSpec),
		"target_word_count": in.TargetWordCount,
	}
	return tpl.Format(ctx, vars)
}

func buildDocumentModelOptions(modelName string, temperature *float32, maxTokens *int) []model.Option {
	opts := make([]model.Option, 0, 3)
	if temperature != nil {
		opts = append(opts, model.WithTemperature(*temperature))
	}
	if maxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*maxTokens))
	}
	if strings.TrimSpace(modelName) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(modelName)))
	}
	return opts
}
