package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-grader-api/internal/config"
	wfmodel "ai-grader-api/internal/workflow/model"
	apperrors "ai-grader-api/pkg/errors"
)

// fakeChatModel 可编程的 ChatModel 桩：按调用次序返回预设内容或错误，
// 并记录每次调用收到的完整提示词。
type fakeChatModel struct {
	calls   int
	prompts [][]*schema.Message

	// respond 根据调用序号（从 1 开始）产出内容或错误
	respond func(call int) (string, error)
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.prompts = append(f.prompts, input)

	content, err := f.respond(f.calls)
	if err != nil {
		return nil, err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     100,
				CompletionTokens: 200,
			},
		},
	}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported by fake")
}

type fakeFactory struct {
	model *fakeChatModel
}

func (f *fakeFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	return f.model, nil
}

func testGenerationConfig() config.GenerationConfig {
	return config.GenerationConfig{
		DefaultTargetWords:  1000,
		ChunkThresholdWords: 1500,
		ChunkTargetWords:    600,
		SummaryTriggerWords: 6000,
		SummaryMaxRunes:     2000,
		ContextTailRunes:    1200,
	}
}

func newTestService(fake *fakeChatModel) *Service {
	return NewService(testGenerationConfig(), &fakeFactory{model: fake})
}

// collectEmit 把事件收进切片，模拟永远可写的客户端
func collectEmit(events *[]Event) EmitFunc {
	return func(evt Event) error {
		*events = append(*events, evt)
		return nil
	}
}

func chunkContent(call int) string {
	return fmt.Sprintf("Section %d text. %s", call, strings.TrimSpace(strings.Repeat("filler ", 20)))
}

func TestChunkedGenerationEventOrdering(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return chunkContent(call), nil
	}}
	svc := newTestService(fake)
	ctx := context.Background()

	task := &GenerationTask{
		TaskSpecText:    "write a long essay on education reform",
		TargetWordCount: 3000,
		Provider:        "openai",
	}
	plan, err := svc.Prepare(ctx, task)
	require.NoError(t, err)
	require.Len(t, plan.Chunks, 5)
	assert.Equal(t, "chunked", plan.Mode())

	var events []Event
	result, err := svc.Run(ctx, task, plan, collectEmit(&events))
	require.NoError(t, err)
	require.Len(t, events, 6, "5 chunk events plus complete")

	// chunk 事件按序出现，fullTextSoFar 只增不减且互为前缀
	prev := ""
	for i := 0; i < 5; i++ {
		evt := events[i]
		assert.Equal(t, EventChunk, evt.Type)
		assert.Equal(t, i+1, evt.ChunkIndex)
		assert.Equal(t, 5, evt.TotalChunks)
		assert.True(t, strings.HasPrefix(evt.FullTextSoFar, prev), "fullTextSoFar must extend the previous value")
		assert.Greater(t, len(evt.FullTextSoFar), len(prev))
		assert.Contains(t, evt.FullTextSoFar, fmt.Sprintf("Section %d text.", i+1))
		prev = evt.FullTextSoFar
	}

	// 终态 complete：fullText 为全部块的有序拼接
	final := events[5]
	assert.Equal(t, EventComplete, final.Type)
	assert.Equal(t, prev, final.FullText)
	assert.Equal(t, final.FullText, result.FullText)
	assert.Equal(t, 5, result.ChunkCount)
	assert.Equal(t, 5*300, result.TotalTokens)

	// 块顺序体现在最终文本里
	for i := 1; i < 5; i++ {
		a := strings.Index(final.FullText, fmt.Sprintf("Section %d text.", i))
		b := strings.Index(final.FullText, fmt.Sprintf("Section %d text.", i+1))
		assert.Less(t, a, b, "chunks must appear in generation order")
	}
}

func TestChunkedGenerationFailureMidway(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		if call == 3 {
			return "", errors.New("provider overloaded")
		}
		return chunkContent(call), nil
	}}
	svc := newTestService(fake)
	ctx := context.Background()

	task := &GenerationTask{
		TaskSpecText:    "long essay",
		TargetWordCount: 3000,
		Provider:        "openai",
	}
	plan, err := svc.Prepare(ctx, task)
	require.NoError(t, err)
	require.Len(t, plan.Chunks, 5)

	var events []Event
	_, err = svc.Run(ctx, task, plan, collectEmit(&events))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeLLMCallFailed))

	// 两个 chunk 事件 + 一个终态 error 事件，之后不再有任何事件
	require.Len(t, events, 3)
	assert.Equal(t, EventChunk, events[0].Type)
	assert.Equal(t, EventChunk, events[1].Type)

	errEvt := events[2]
	assert.Equal(t, EventError, errEvt.Type)
	assert.Contains(t, errEvt.FullTextSoFar, "Section 1 text.")
	assert.Contains(t, errEvt.FullTextSoFar, "Section 2 text.")
	assert.Equal(t, events[1].FullTextSoFar, errEvt.FullTextSoFar, "error event keeps the partial text")

	assert.Equal(t, 3, fake.calls, "no further LLM calls after the failure")
}

func TestSingleShotEmitsOnlyComplete(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return "A complete short answer.", nil
	}}
	svc := newTestService(fake)
	ctx := context.Background()

	task := &GenerationTask{
		TaskSpecText:    "short answer",
		TargetWordCount: 800,
		Provider:        "openai",
	}
	plan, err := svc.Prepare(ctx, task)
	require.NoError(t, err)
	assert.Nil(t, plan.Chunks)
	assert.Equal(t, "single_shot", plan.Mode())

	var events []Event
	result, err := svc.Run(ctx, task, plan, collectEmit(&events))
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, EventComplete, events[0].Type)
	assert.Equal(t, "A complete short answer.", events[0].FullText)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, 1, fake.calls)
}

func TestClientDisconnectStopsGeneration(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return chunkContent(call), nil
	}}
	svc := newTestService(fake)
	ctx := context.Background()

	task := &GenerationTask{
		TaskSpecText:    "long essay",
		TargetWordCount: 3000,
		Provider:        "openai",
	}
	plan, err := svc.Prepare(ctx, task)
	require.NoError(t, err)

	// 第二个事件投递后下游断开
	delivered := 0
	emit := func(evt Event) error {
		delivered++
		if delivered > 2 {
			return context.Canceled
		}
		return nil
	}

	_, err = svc.Run(ctx, task, plan, emit)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStreamTerminated))
	assert.Equal(t, 3, fake.calls, "generation stops right after delivery fails")
}

func TestChunkPromptCarriesPositionAndPriorText(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return chunkContent(call), nil
	}}
	svc := newTestService(fake)
	ctx := context.Background()

	task := &GenerationTask{
		TaskSpecText:    "write a long essay on education reform",
		TargetWordCount: 3000,
		Provider:        "openai",
	}
	plan, err := svc.Prepare(ctx, task)
	require.NoError(t, err)

	var events []Event
	_, err = svc.Run(ctx, task, plan, collectEmit(&events))
	require.NoError(t, err)
	require.Len(t, fake.prompts, 5)

	// 第一块：位置声明，尚无先前文本
	first := flattenPrompt(fake.prompts[0])
	assert.Contains(t, first, "part 1 of 5")
	assert.Contains(t, first, "opening")
	assert.Contains(t, first, "write a long essay on education reform")

	// 第二块：携带第一块的文本作为衔接
	second := flattenPrompt(fake.prompts[1])
	assert.Contains(t, second, "part 2 of 5")
	assert.Contains(t, second, "Section 1 text.")

	// 末块标记为 closing
	last := flattenPrompt(fake.prompts[4])
	assert.Contains(t, last, "part 5 of 5")
	assert.Contains(t, last, "closing")
}

func TestRefineSendsFullTextAndCritique(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return "Revised draft addressing every point.", nil
	}}
	svc := newTestService(fake)
	ctx := context.Background()

	prior := "The original essay text with a weak conclusion."
	critique := "The conclusion contradicts section two; fix the tense in paragraph one."

	revised, err := svc.Refine(ctx, &wfmodel.DocumentRefineInput{
		PriorText: prior,
		Critique:  critique,
		Provider:  "openai",
	})
	require.NoError(t, err)
	assert.Equal(t, "Revised draft addressing every point.", revised)

	require.Len(t, fake.prompts, 1)
	prompt := flattenPrompt(fake.prompts[0])
	assert.Contains(t, prompt, prior, "refine prompt must carry the full prior text")
	assert.Contains(t, prompt, critique, "refine prompt must carry the critique verbatim")
}

func TestRefineRejectsEmptyCritique(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return "should not be called", nil
	}}
	svc := newTestService(fake)

	_, err := svc.Refine(context.Background(), &wfmodel.DocumentRefineInput{
		PriorText: "some text",
		Critique:  "   ",
		Provider:  "openai",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRefinementFailed))
	assert.Equal(t, 0, fake.calls)
}

func TestEmptyLLMContentIsGenerationFailure(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return "   ", nil
	}}
	svc := newTestService(fake)
	ctx := context.Background()

	task := &GenerationTask{
		TaskSpecText:    "short answer",
		TargetWordCount: 800,
		Provider:        "openai",
	}
	plan, err := svc.Prepare(ctx, task)
	require.NoError(t, err)

	var events []Event
	_, err = svc.Run(ctx, task, plan, collectEmit(&events))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeGenerationFailed))

	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
}

func flattenPrompt(msgs []*schema.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
