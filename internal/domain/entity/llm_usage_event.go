// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// LLMUsageEvent LLM 用量事件实体
// 记录每次 LLM 调用的 token 消耗，用于成本核算与审计
type LLMUsageEvent struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID        string    `gorm:"type:varchar(64);index" json:"request_id"`
	Workflow         string    `gorm:"type:varchar(64);not null;index" json:"workflow"`
	Provider         string    `gorm:"type:varchar(64);not null" json:"provider"`
	Model            string    `gorm:"type:varchar(128);not null" json:"model"`
	PromptTokens     int       `gorm:"not null;default:0" json:"prompt_tokens"`
	CompletionTokens int       `gorm:"not null;default:0" json:"completion_tokens"`
	TotalTokens      int       `gorm:"not null;default:0" json:"total_tokens"`
	DurationMs       int64     `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (LLMUsageEvent) TableName() string {
	return "llm_usage_events"
}
