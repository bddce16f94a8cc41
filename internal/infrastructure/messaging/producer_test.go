package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStreamClient 记录 XAdd 参数的桩客户端
type fakeStreamClient struct {
	redis.Cmdable
	added []*redis.XAddArgs
}

func (f *fakeStreamClient) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.added = append(f.added, a)
	return redis.NewStringResult("1-1", nil)
}

func decodeMessage(t *testing.T, a *redis.XAddArgs) *Message {
	t.Helper()
	values, ok := a.Values.(map[string]interface{})
	require.True(t, ok)
	raw, ok := values["data"].(string)
	require.True(t, ok)

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}

func TestPublishDocumentGenerated(t *testing.T) {
	fake := &fakeStreamClient{}
	p := NewProducer(fake, 5000)

	id, err := p.PublishDocumentGenerated(context.Background(), &DocumentGeneratedMessage{
		DraftID:     "draft-1",
		RequestID:   "req-1",
		Mode:        "chunked",
		ChunkCount:  5,
		WordCount:   3000,
		Provider:    "openai",
		TotalTokens: 1500,
	})
	require.NoError(t, err)
	assert.Equal(t, "1-1", id)

	require.Len(t, fake.added, 1)
	args := fake.added[0]
	assert.Equal(t, string(StreamDocumentEvents), args.Stream)
	assert.Equal(t, int64(5000), args.MaxLen)
	assert.True(t, args.Approx)

	msg := decodeMessage(t, args)
	assert.Equal(t, "document_generated", msg.Type)
	assert.Equal(t, "req-1", msg.RequestID)
	assert.Equal(t, "chunked", msg.Metadata["mode"])

	var payload DocumentGeneratedMessage
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "draft-1", payload.DraftID)
	assert.Equal(t, 5, payload.ChunkCount)
	assert.Equal(t, 3000, payload.WordCount)
}

func TestPublishAuditLog(t *testing.T) {
	fake := &fakeStreamClient{}
	p := NewProducer(fake, 0)

	_, err := p.PublishAuditLog(context.Background(), &AuditLogMessage{
		Action:       "document.generate",
		ResourceType: "document",
		ResourceID:   "req-2",
		RequestID:    "req-2",
		IPAddress:    "10.0.0.1",
		Metadata:     map[string]interface{}{"mode": "single_shot"},
	})
	require.NoError(t, err)

	require.Len(t, fake.added, 1)
	args := fake.added[0]
	assert.Equal(t, string(StreamAuditLog), args.Stream)
	assert.Equal(t, int64(100000), args.MaxLen, "non-positive maxLen falls back to the default")

	msg := decodeMessage(t, args)
	assert.Equal(t, "audit", msg.Type)

	var payload AuditLogMessage
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "document.generate", payload.Action)
	assert.Equal(t, "document", payload.ResourceType)
	assert.Equal(t, "10.0.0.1", payload.IPAddress)
	assert.Equal(t, "single_shot", payload.Metadata["mode"])
}
