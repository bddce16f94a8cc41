package dto

// UsageStatItem 单个工作流的 token 用量
type UsageStatItem struct {
	Workflow         string `json:"workflow"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

// UsageStatsResponse 用量统计响应
type UsageStatsResponse struct {
	Window string          `json:"window"`
	Stats  []UsageStatItem `json:"stats"`
}
