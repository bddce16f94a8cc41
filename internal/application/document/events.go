package document

// EventType 流式事件类型
type EventType string

const (
	EventChunk    EventType = "chunk"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event 推送给客户端的流式事件。
// 契约：
//   - chunk 事件按 ChunkIndex 从 1 到 TotalChunks 依次出现，FullTextSoFar 只增不减；
//   - complete 或 error 之后不再有任何事件；
//   - error 事件的 FullTextSoFar 保留失败前已生成的全部文本。
type Event struct {
	Type EventType `json:"type"`

	ChunkIndex  int `json:"chunkIndex,omitempty"`
	TotalChunks int `json:"totalChunks,omitempty"`

	FullTextSoFar string `json:"fullTextSoFar,omitempty"`
	FullText      string `json:"fullText,omitempty"`

	Message string `json:"message,omitempty"`
}

// EmitFunc 事件投递回调。返回非 nil 错误表示下游已不可写，生成应当停止。
type EmitFunc func(Event) error
