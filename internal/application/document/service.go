package document

import (
	"context"
	"log/slog"
	"time"

	"ai-grader-api/internal/config"
	wfmodel "ai-grader-api/internal/workflow/model"
	workflowport "ai-grader-api/internal/workflow/port"
	apperrors "ai-grader-api/pkg/errors"
	"ai-grader-api/pkg/logger"
	"ai-grader-api/pkg/metrics"
)

// GenerationTask 一次文档生成请求
type GenerationTask struct {
	TaskSpecText    string
	TargetWordCount int

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// GenerationPlan 准备阶段的产物；Chunks 为 nil 表示单次生成
type GenerationPlan struct {
	TargetWords int
	Chunks      []ChunkSpec
}

// Mode 生成模式（用于指标与事件标注）
func (p *GenerationPlan) Mode() string {
	if p != nil && len(p.Chunks) > 0 {
		return "chunked"
	}
	return "single_shot"
}

// Result 一次成功生成的汇总
type Result struct {
	FullText    string
	WordCount   int
	ChunkCount  int
	TotalTokens int
	Duration    time.Duration
}

// Service 文档生成编排：规划、逐块生成、事件投递、修订。
type Service struct {
	cfg       config.GenerationConfig
	planner   *Planner
	carrier   *ContextCarrier
	generator *Generator
	refiner   *Refiner
}

func NewService(cfg config.GenerationConfig, factory workflowport.ChatModelFactory) *Service {
	return &Service{
		cfg:       cfg,
		planner:   NewPlanner(cfg.ChunkThresholdWords, cfg.ChunkTargetWords, cfg.DefaultTargetWords),
		carrier:   NewContextCarrier(cfg.SummaryTriggerWords, cfg.SummaryMaxRunes, cfg.ContextTailRunes),
		generator: NewGenerator(factory),
		refiner:   NewRefiner(factory),
	}
}

// Prepare 执行规划阶段。规划失败在开启流之前返回，
// 调用方可以用普通的 HTTP 错误响应拒绝请求。
func (s *Service) Prepare(ctx context.Context, task *GenerationTask) (*GenerationPlan, error) {
	if task == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "task is nil")
	}

	target, err := s.planner.ResolveTarget(task.TaskSpecText, task.TargetWordCount)
	if err != nil {
		return nil, err
	}

	chunks, err := s.planner.Plan(task.TaskSpecText, target)
	if err != nil {
		return nil, err
	}

	if len(chunks) > 0 {
		metrics.DocumentChunksPlanned.Observe(float64(len(chunks)))
	}

	return &GenerationPlan{TargetWords: target, Chunks: chunks}, nil
}

// Run 执行生成阶段，通过 emit 按序投递事件。
// 契约：
//   - 分块模式下每个块完成后投递一个 chunk 事件，最后投递 complete；
//   - 单次模式下只投递 complete；
//   - 任何失败投递 error 事件（携带已生成的部分文本）后返回；
//   - emit 返回错误（客户端断开）时立即停止，不再调用 LLM。
func (s *Service) Run(ctx context.Context, task *GenerationTask, plan *GenerationPlan, emit EmitFunc) (*Result, error) {
	if task == nil || plan == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "task or plan is nil")
	}

	start := time.Now()
	mode := plan.Mode()
	log := logger.FromContext(ctx)

	result, err := s.run(ctx, task, plan, emit)
	elapsed := time.Since(start)

	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeStreamTerminated) {
			// 客户端断开不是生成失败，单独计数
			metrics.DocumentGenerationTotal.WithLabelValues(mode, "terminated").Inc()
			log.Warn("generation stream terminated by client",
				slog.String("mode", mode),
				slog.Duration("elapsed", elapsed))
			return nil, err
		}
		metrics.DocumentGenerationTotal.WithLabelValues(mode, "error").Inc()
		log.Error("document generation failed",
			slog.String("mode", mode),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return nil, err
	}

	result.Duration = elapsed
	metrics.DocumentGenerationTotal.WithLabelValues(mode, "success").Inc()
	metrics.DocumentGenerationDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	metrics.DocumentWordCount.WithLabelValues(mode).Observe(float64(result.WordCount))
	log.Info("document generation completed",
		slog.String("mode", mode),
		slog.Int("chunks", result.ChunkCount),
		slog.Int("word_count", result.WordCount),
		slog.Duration("elapsed", elapsed))
	return result, nil
}

func (s *Service) run(ctx context.Context, task *GenerationTask, plan *GenerationPlan, emit EmitFunc) (*Result, error) {
	if len(plan.Chunks) == 0 {
		return s.runSingleShot(ctx, task, plan, emit)
	}
	return s.runChunked(ctx, task, plan, emit)
}

func (s *Service) runSingleShot(ctx context.Context, task *GenerationTask, plan *GenerationPlan, emit EmitFunc) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStreamTerminated, "stream terminated before generation")
	}

	out, err := s.generator.Generate(ctx, &wfmodel.DocumentGenerateInput{
		TaskSpec:        task.TaskSpecText,
		TargetWordCount: plan.TargetWords,
		Provider:        task.Provider,
		Model:           task.Model,
		Temperature:     task.Temperature,
		MaxTokens:       task.MaxTokens,
	})
	if err != nil {
		s.emitError(emit, err, "")
		return nil, err
	}

	if emitErr := emit(Event{
		Type:     EventComplete,
		FullText: out.Content,
	}); emitErr != nil {
		return nil, apperrors.Wrap(emitErr, apperrors.CodeStreamTerminated, "client disconnected before completion event")
	}

	return &Result{
		FullText:    out.Content,
		WordCount:   CountWords(out.Content),
		ChunkCount:  1,
		TotalTokens: out.Meta.PromptTokens + out.Meta.CompletionTokens,
	}, nil
}

func (s *Service) runChunked(ctx context.Context, task *GenerationTask, plan *GenerationPlan, emit EmitFunc) (*Result, error) {
	gc := s.carrier.NewContext()
	totalTokens := 0
	total := len(plan.Chunks)

	for _, chunk := range plan.Chunks {
		// 客户端断开后不再浪费 LLM 调用
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStreamTerminated, "stream terminated mid-generation")
		}

		summary, tail := s.carrier.Snapshot(gc)
		out, err := s.generator.Generate(ctx, &wfmodel.DocumentGenerateInput{
			TaskSpec:        task.TaskSpecText,
			ChunkIndex:      chunk.Index,
			TotalChunks:     chunk.TotalCount,
			RoleHint:        string(chunk.RoleHint),
			TargetWordCount: chunk.TargetWords,
			PriorSummary:    summary,
			PriorTail:       tail,
			Provider:        task.Provider,
			Model:           task.Model,
			Temperature:     task.Temperature,
			MaxTokens:       task.MaxTokens,
		})
		if err != nil {
			// error 事件保留已生成的部分文本，失败即终态
			s.emitError(emit, err, gc.AccumulatedText)
			return nil, err
		}

		totalTokens += out.Meta.PromptTokens + out.Meta.CompletionTokens
		s.carrier.Update(gc, out.Content)

		if emitErr := emit(Event{
			Type:          EventChunk,
			ChunkIndex:    chunk.Index,
			TotalChunks:   total,
			FullTextSoFar: gc.AccumulatedText,
		}); emitErr != nil {
			return nil, apperrors.Wrap(emitErr, apperrors.CodeStreamTerminated, "client disconnected mid-stream")
		}
	}

	if emitErr := emit(Event{
		Type:     EventComplete,
		FullText: gc.AccumulatedText,
	}); emitErr != nil {
		return nil, apperrors.Wrap(emitErr, apperrors.CodeStreamTerminated, "client disconnected before completion event")
	}

	return &Result{
		FullText:    gc.AccumulatedText,
		WordCount:   gc.WordCount(),
		ChunkCount:  total,
		TotalTokens: totalTokens,
	}, nil
}

func (s *Service) emitError(emit EmitFunc, cause error, partialText string) {
	msg := "document generation failed"
	if appErr, ok := cause.(*apperrors.AppError); ok {
		msg = appErr.Message
	}
	_ = emit(Event{
		Type:          EventError,
		FullTextSoFar: partialText,
		Message:       msg,
	})
}

// Refine 对已有全文执行单轮定向修订。
func (s *Service) Refine(ctx context.Context, in *wfmodel.DocumentRefineInput) (string, error) {
	start := time.Now()
	revised, err := s.refiner.Refine(ctx, in)
	elapsed := time.Since(start)

	if err != nil {
		metrics.DocumentGenerationTotal.WithLabelValues("refine", "error").Inc()
		return "", err
	}

	metrics.DocumentGenerationTotal.WithLabelValues("refine", "success").Inc()
	metrics.DocumentGenerationDuration.WithLabelValues("refine").Observe(elapsed.Seconds())
	metrics.DocumentWordCount.WithLabelValues("refine").Observe(float64(CountWords(revised)))
	return revised, nil
}
