package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-grader-api/internal/application/document"
	"ai-grader-api/internal/config"
)

// fakeChatModel 按调用次序返回预设内容或错误
type fakeChatModel struct {
	calls   int
	respond func(call int) (string, error)
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	content, err := f.respond(f.calls)
	if err != nil {
		return nil, err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 200},
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

func newTestConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai": {Model: "gpt-4o"},
			},
		},
		Generation: config.GenerationConfig{
			DefaultTargetWords:  1000,
			ChunkThresholdWords: 1500,
			ChunkTargetWords:    600,
			SummaryTriggerWords: 6000,
			SummaryMaxRunes:     2000,
			ContextTailRunes:    1200,
		},
	}
}

// newGenerateServer 起一个真实 HTTP 服务；SSE 依赖 CloseNotify，
// ResponseRecorder 不支持，必须走 httptest.NewServer。
func newGenerateServer(t *testing.T, fake *fakeChatModel) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := newTestConfig()
	svc := document.NewService(cfg.Generation, &fakeFactory{model: fake})
	h := NewDocumentHandler(cfg, svc, nil, nil)

	engine := gin.New()
	engine.POST("/v1/documents/generate", h.GenerateDocument)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

type sseEvent struct {
	name string
	data map[string]interface{}
}

// readSSE 按行解析 SSE 响应体直到 EOF。
// 能读到 EOF 本身就断言了服务端在终态事件后主动结束了流。
func readSSE(t *testing.T, body io.Reader) []sseEvent {
	t.Helper()

	var (
		events  []sseEvent
		current string
	)
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			current = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			var data map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &data))
			events = append(events, sseEvent{name: current, data: data})
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func postGenerate(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/documents/generate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGenerateDocumentStreamsChunkEvents(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return fmt.Sprintf("Section %d text. %s", call, strings.TrimSpace(strings.Repeat("filler ", 20))), nil
	}}
	srv := newGenerateServer(t, fake)

	resp := postGenerate(t, srv, `{"task_spec_text":"write a long essay on education reform","target_word_count":3000}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := readSSE(t, resp.Body)
	require.Len(t, events, 6, "5 chunk events plus complete, then the stream closes")

	prev := ""
	for i := 0; i < 5; i++ {
		evt := events[i]
		assert.Equal(t, "chunk", evt.name)
		assert.Equal(t, "chunk", evt.data["type"])
		assert.Equal(t, float64(i+1), evt.data["chunkIndex"])
		assert.Equal(t, float64(5), evt.data["totalChunks"])

		soFar, _ := evt.data["fullTextSoFar"].(string)
		assert.True(t, strings.HasPrefix(soFar, prev), "fullTextSoFar must extend the previous value")
		assert.Greater(t, len(soFar), len(prev))
		prev = soFar
	}

	final := events[5]
	assert.Equal(t, "complete", final.name)
	assert.Equal(t, "complete", final.data["type"])
	assert.Equal(t, prev, final.data["fullText"])
	_, hasChunkIndex := final.data["chunkIndex"]
	assert.False(t, hasChunkIndex, "complete event carries no chunk position")
}

func TestGenerateDocumentStreamEndsAfterErrorEvent(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		if call == 2 {
			return "", errors.New("provider overloaded")
		}
		return fmt.Sprintf("Section %d text. %s", call, strings.TrimSpace(strings.Repeat("filler ", 20))), nil
	}}
	srv := newGenerateServer(t, fake)

	resp := postGenerate(t, srv, `{"task_spec_text":"long essay","target_word_count":3000}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	events := readSSE(t, resp.Body)
	require.Len(t, events, 2, "one chunk then the terminal error closes the stream")

	assert.Equal(t, "chunk", events[0].name)

	errEvt := events[1]
	assert.Equal(t, "error", errEvt.name)
	assert.Equal(t, "error", errEvt.data["type"])
	assert.NotEmpty(t, errEvt.data["message"])

	soFar, _ := errEvt.data["fullTextSoFar"].(string)
	assert.Contains(t, soFar, "Section 1 text.", "error event keeps the partial text")

	assert.Equal(t, 2, fake.calls, "no further LLM calls after the failure")
}

func TestGenerateDocumentPlanningFailureIsPlainJSON(t *testing.T) {
	fake := &fakeChatModel{respond: func(call int) (string, error) {
		return "should not be called", nil
	}}
	srv := newGenerateServer(t, fake)

	// 规划阶段失败：普通 400 响应，不开启 SSE 流
	resp := postGenerate(t, srv, `{"task_spec_text":"essay","target_word_count":-5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, 0, fake.calls)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "4001")
}
