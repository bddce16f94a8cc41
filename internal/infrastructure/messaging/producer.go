// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-grader-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client redis.Cmdable
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client redis.Cmdable, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(string(stream), "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(string(stream), "success").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishDocumentGenerated 发布文档生成完成事件
func (p *Producer) PublishDocumentGenerated(ctx context.Context, event *DocumentGeneratedMessage) (string, error) {
	msg, err := NewMessage(event.DraftID, "document_generated", event.RequestID, event)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("mode", event.Mode)
	return p.Publish(ctx, StreamDocumentEvents, msg)
}

// PublishAuditLog 发布审计日志
func (p *Producer) PublishAuditLog(ctx context.Context, log *AuditLogMessage) (string, error) {
	msg, err := NewMessage(log.RequestID, "audit", log.RequestID, log)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamAuditLog, msg)
}

// DocumentGeneratedMessage 文档生成完成消息
// 下游（评分、归档等服务）消费该事件，本服务只负责投递。
type DocumentGeneratedMessage struct {
	DraftID     string `json:"draft_id"`
	RequestID   string `json:"request_id"`
	Mode        string `json:"mode"`
	ChunkCount  int    `json:"chunk_count"`
	WordCount   int    `json:"word_count"`
	Provider    string `json:"provider"`
	Model       string `json:"model,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	TotalTokens int    `json:"total_tokens,omitempty"`
}

// AuditLogMessage 审计日志消息
type AuditLogMessage struct {
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	RequestID    string                 `json:"request_id"`
	TraceID      string                 `json:"trace_id,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
