package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	llmctx "ai-grader-api/internal/domain/service"
	wfmodel "ai-grader-api/internal/workflow/model"
	workflowport "ai-grader-api/internal/workflow/port"
	workflowprompt "ai-grader-api/internal/workflow/prompt"
)

type RefineChain struct {
	factory workflowport.ChatModelFactory
}

func NewRefineChain(factory workflowport.ChatModelFactory) *RefineChain {
	return &RefineChain{factory: factory}
}

func (c *RefineChain) Invoke(ctx context.Context, in *wfmodel.DocumentRefineInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(in.PriorText) == "" {
		return nil, fmt.Errorf("prior text is required")
	}
	if strings.TrimSpace(in.Critique) == "" {
		return nil, fmt.Errorf("critique is required")
	}

	ctx = llmctx.WithWorkflowProvider(ctx, "document_refine", strings.TrimSpace(in.Provider))
	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	tpl, err := documentPromptRegistry.ChatTemplate(workflowprompt.PromptDocumentRefineV1)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, map[string]any{
		"prior_text": strings.TrimSpace(in.PriorText),
		"critique":   strings.TrimSpace(in.Critique),
	})
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
