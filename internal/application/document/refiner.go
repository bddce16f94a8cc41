package document

import (
	"context"
	"strings"

	workflowchain "ai-grader-api/internal/workflow/chain"
	wfmodel "ai-grader-api/internal/workflow/model"
	workflowport "ai-grader-api/internal/workflow/port"
	apperrors "ai-grader-api/pkg/errors"
)

// Refiner 执行单轮定向修订：整篇文档 + 批注一次性送入模型。
// 修订不分块：批注往往跨段落（“第二节与结论矛盾”），
// 分块修订无法保证全局一致性。
type Refiner struct {
	chain *workflowchain.RefineChain
}

func NewRefiner(factory workflowport.ChatModelFactory) *Refiner {
	return &Refiner{
		chain: workflowchain.NewRefineChain(factory),
	}
}

func (r *Refiner) Refine(ctx context.Context, in *wfmodel.DocumentRefineInput) (string, error) {
	if r == nil || r.chain == nil {
		return "", apperrors.New(apperrors.CodeInternalError, "refine workflow not configured")
	}
	if in == nil {
		return "", apperrors.New(apperrors.CodeInvalidParam, "input is nil")
	}

	outMsg, err := r.chain.Invoke(ctx, in)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeRefinementFailed, "refinement failed")
	}

	revised := strings.TrimSpace(outMsg.Content)
	if revised == "" {
		return "", apperrors.New(apperrors.CodeRefinementFailed, "empty revised content")
	}
	return revised, nil
}
