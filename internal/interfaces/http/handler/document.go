package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"ai-grader-api/internal/application/document"
	"ai-grader-api/internal/config"
	"ai-grader-api/internal/infrastructure/messaging"
	redisstore "ai-grader-api/internal/infrastructure/persistence/redis"
	"ai-grader-api/internal/interfaces/http/dto"
	wfmodel "ai-grader-api/internal/workflow/model"
	apperrors "ai-grader-api/pkg/errors"
	"ai-grader-api/pkg/logger"
)

// DocumentHandler 文档生成处理器
type DocumentHandler struct {
	cfg      *config.Config
	svc      *document.Service
	drafts   *redisstore.DraftStore
	producer *messaging.Producer
}

// NewDocumentHandler 创建文档生成处理器
func NewDocumentHandler(
	cfg *config.Config,
	svc *document.Service,
	drafts *redisstore.DraftStore,
	producer *messaging.Producer,
) *DocumentHandler {
	return &DocumentHandler{
		cfg:      cfg,
		svc:      svc,
		drafts:   drafts,
		producer: producer,
	}
}

// GenerateDocument 流式生成文档
// @Summary 流式生成文档
// @Description 根据任务描述生成长文档，通过 SSE 按块推送进度
// @Tags Documents
// @Accept json
// @Produce text/event-stream
// @Param request body dto.GenerateDocumentRequest true "生成请求"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/documents/generate [post]
func (h *DocumentHandler) GenerateDocument(c *gin.Context) {
	var req dto.GenerateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	task := &document.GenerationTask{
		TaskSpecText:    req.TaskSpecText,
		TargetWordCount: req.TargetWordCount,
		Provider:        provider,
		Model:           model,
		Temperature:     req.Temperature,
		MaxTokens:       req.MaxTokens,
	}

	// 规划在开启流之前完成：规划失败返回普通 HTTP 400，
	// 客户端永远不会看到一个只有 error 事件的流。
	plan, err := h.svc.Prepare(c.Request.Context(), task)
	if err != nil {
		respondAppError(c, err)
		return
	}

	meta := captureRequestMeta(c)
	ctx := c.Request.Context()

	events := make(chan document.Event, 4)
	done := make(chan struct{})

	go func() {
		defer close(events)
		defer close(done)

		emit := func(evt document.Event) error {
			select {
			case events <- evt:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		result, runErr := h.svc.Run(ctx, task, plan, emit)
		if runErr != nil {
			return
		}
		// 推流成功后的善后（草稿备份、下游事件）不受客户端断开影响
		h.afterSuccess(context.WithoutCancel(ctx), meta, task, plan, result)
	}()

	streamEvents(c, events)
	<-done
}

// requestMeta 流式响应结束后仍需使用的请求上下文快照。
// gin.Context 在 handler 返回后不可再访问，先把要用的字段取出来。
type requestMeta struct {
	RequestID string
	TraceID   string
	ClientIP  string
	UserAgent string
}

func captureRequestMeta(c *gin.Context) requestMeta {
	return requestMeta{
		RequestID: c.GetString("request_id"),
		TraceID:   c.GetString("trace_id"),
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// afterSuccess 成功生成后的收尾：草稿备份 + 下游事件 + 审计日志，均为 best-effort。
func (h *DocumentHandler) afterSuccess(ctx context.Context, meta requestMeta, task *document.GenerationTask, plan *document.GenerationPlan, result *document.Result) {
	log := logger.FromContext(ctx)

	if h.drafts != nil {
		draft := &redisstore.Draft{
			ID:        meta.RequestID,
			TaskSpec:  task.TaskSpecText,
			FullText:  result.FullText,
			WordCount: result.WordCount,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.drafts.Save(ctx, draft); err != nil {
			log.Warn("failed to save draft backup", slog.Any("error", err))
		}
	}

	if h.producer != nil {
		_, err := h.producer.PublishDocumentGenerated(ctx, &messaging.DocumentGeneratedMessage{
			DraftID:     meta.RequestID,
			RequestID:   meta.RequestID,
			Mode:        plan.Mode(),
			ChunkCount:  result.ChunkCount,
			WordCount:   result.WordCount,
			Provider:    task.Provider,
			Model:       task.Model,
			DurationMs:  result.Duration.Milliseconds(),
			TotalTokens: result.TotalTokens,
		})
		if err != nil {
			log.Warn("failed to publish document event", slog.Any("error", err))
		}

		h.publishAudit(ctx, meta, "document.generate", map[string]interface{}{
			"mode":       plan.Mode(),
			"provider":   task.Provider,
			"word_count": result.WordCount,
		})
	}
}

// publishAudit 投递审计日志，失败只记录不影响业务
func (h *DocumentHandler) publishAudit(ctx context.Context, meta requestMeta, action string, extra map[string]interface{}) {
	if h.producer == nil {
		return
	}

	_, err := h.producer.PublishAuditLog(ctx, &messaging.AuditLogMessage{
		Action:       action,
		ResourceType: "document",
		ResourceID:   meta.RequestID,
		RequestID:    meta.RequestID,
		TraceID:      meta.TraceID,
		IPAddress:    meta.ClientIP,
		UserAgent:    meta.UserAgent,
		Metadata:     extra,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("failed to publish audit log",
			slog.String("action", action),
			slog.Any("error", err))
	}
}

// RefineDocument 定向修订文档
// @Summary 定向修订文档
// @Description 对已有全文执行单轮批注修订，同步返回修订后的全文
// @Tags Documents
// @Accept json
// @Produce json
// @Param request body dto.RefineDocumentRequest true "修订请求"
// @Success 200 {object} dto.Response[dto.RefineDocumentResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/documents/refine [post]
func (h *DocumentHandler) RefineDocument(c *gin.Context) {
	var req dto.RefineDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	revised, err := h.svc.Refine(c.Request.Context(), &wfmodel.DocumentRefineInput{
		PriorText:   req.PriorFullText,
		Critique:    req.CritiqueText,
		Provider:    provider,
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		respondAppError(c, err)
		return
	}

	// 修订结果同样做草稿备份，便于断线找回
	meta := captureRequestMeta(c)
	bg := context.WithoutCancel(c.Request.Context())
	if h.drafts != nil && meta.RequestID != "" {
		_ = h.drafts.Save(bg, &redisstore.Draft{
			ID:        meta.RequestID,
			FullText:  revised,
			WordCount: document.CountWords(revised),
			Refined:   true,
			CreatedAt: time.Now().UTC(),
		})
	}

	h.publishAudit(bg, meta, "document.refine", map[string]interface{}{
		"provider":   provider,
		"word_count": document.CountWords(revised),
	})

	dto.Success(c, dto.RefineDocumentResponse{
		RevisedFullText: revised,
		WordCount:       document.CountWords(revised),
	})
}

// GetDraft 查询草稿备份
// @Summary 查询草稿备份
// @Description 按请求 ID 查询已完成生成的草稿备份
// @Tags Documents
// @Produce json
// @Param did path string true "草稿 ID（生成请求的 X-Request-ID）"
// @Success 200 {object} dto.Response[dto.DraftResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/documents/drafts/{did} [get]
func (h *DocumentHandler) GetDraft(c *gin.Context) {
	id := c.Param("did")
	if id == "" {
		dto.BadRequest(c, "draft id is required")
		return
	}
	if h.drafts == nil {
		respondAppError(c, apperrors.New(apperrors.CodeServiceUnavailable, "draft store not configured"))
		return
	}

	draft, err := h.drafts.Get(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, err)
		return
	}

	dto.Success(c, dto.DraftResponse{
		ID:        draft.ID,
		TaskSpec:  draft.TaskSpec,
		FullText:  draft.FullText,
		WordCount: draft.WordCount,
		Refined:   draft.Refined,
		CreatedAt: draft.CreatedAt,
	})
}
