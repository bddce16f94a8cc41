package dto

import "time"

// GenerateDocumentRequest 文档生成请求
type GenerateDocumentRequest struct {
	TaskSpecText    string `json:"task_spec_text" binding:"required"`
	TargetWordCount int    `json:"target_word_count"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// RefineDocumentRequest 定向修订请求
type RefineDocumentRequest struct {
	PriorFullText string `json:"prior_full_text" binding:"required"`
	CritiqueText  string `json:"critique_text" binding:"required"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// RefineDocumentResponse 修订响应
type RefineDocumentResponse struct {
	RevisedFullText string `json:"revised_full_text"`
	WordCount       int    `json:"word_count"`
}

// DraftResponse 草稿查询响应
type DraftResponse struct {
	ID        string    `json:"id"`
	TaskSpec  string    `json:"task_spec"`
	FullText  string    `json:"full_text"`
	WordCount int       `json:"word_count"`
	Refined   bool      `json:"refined"`
	CreatedAt time.Time `json:"created_at"`
}
