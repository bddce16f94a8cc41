package model

// DocumentGenerateInput 一次文档（或文档块）生成调用的输入。
// ChunkIndex/TotalChunks 为 0 表示单次生成（不分块）。
type DocumentGenerateInput struct {
	TaskSpec string

	ChunkIndex  int
	TotalChunks int
	RoleHint    string

	TargetWordCount int

	PriorSummary string
	PriorTail    string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

type DocumentGenerateOutput struct {
	Content string
	Meta    LLMUsageMeta
}

// DocumentRefineInput 一次定向修订调用的输入。
type DocumentRefineInput struct {
	PriorText string
	Critique  string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}
