package document

import (
	"context"
	"strings"
	"time"

	workflowchain "ai-grader-api/internal/workflow/chain"
	wfmodel "ai-grader-api/internal/workflow/model"
	workflowport "ai-grader-api/internal/workflow/port"
	apperrors "ai-grader-api/pkg/errors"
)

// Generator 负责单次 LLM 调用：一个块或一篇完整短文档。
type Generator struct {
	chain *workflowchain.DocumentChain
}

func NewGenerator(factory workflowport.ChatModelFactory) *Generator {
	return &Generator{
		chain: workflowchain.NewDocumentChain(factory),
	}
}

func (g *Generator) Generate(ctx context.Context, in *wfmodel.DocumentGenerateInput) (*wfmodel.DocumentGenerateOutput, error) {
	if g == nil || g.chain == nil {
		return nil, apperrors.New(apperrors.CodeInternalError, "document workflow not configured")
	}
	if in == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "input is nil")
	}

	outMsg, err := g.chain.Invoke(ctx, in)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMCallFailed, "llm call failed")
	}

	meta := wfmodel.LLMUsageMeta{
		Provider:    strings.TrimSpace(in.Provider),
		Model:       strings.TrimSpace(in.Model),
		GeneratedAt: time.Now().UTC(),
	}
	if in.Temperature != nil {
		meta.Temperature = float64(*in.Temperature)
	}
	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		meta.PromptTokens = outMsg.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = outMsg.ResponseMeta.Usage.CompletionTokens
	}

	content := strings.TrimSpace(outMsg.Content)
	if content == "" {
		return nil, apperrors.New(apperrors.CodeGenerationFailed, "empty document content")
	}

	return &wfmodel.DocumentGenerateOutput{
		Content: content,
		Meta:    meta,
	}, nil
}
