// Package model 定义问答服务对外的数据模型。
package model

// ContextPassage 表示并入上下文的一条检索文本。
type ContextPassage struct {
	// Source 文本来源名称。
	Source string `json:"source"`
	// Content 截断后的文本内容。
	Content string `json:"content"`
	// Score 相似度分数。
	Score float32 `json:"score"`
}

// SourceStatus 表示单个来源的检索器状态。
type SourceStatus struct {
	// Source 来源名称。
	Source string `json:"source"`
	// Location 存储位置（集合名或快照文件路径）。
	Location string `json:"location"`
	// Available 检索器是否加载成功。
	Available bool `json:"available"`
	// Error 加载失败原因，成功时为空。
	Error string `json:"error,omitempty"`
	// DocumentCount 索引中的文档数量，不可用时为 0。
	DocumentCount int64 `json:"document_count"`
}

// AnswerResult 表示一次问答的完整结果。
type AnswerResult struct {
	// Question 原始问题。
	Question string `json:"question"`
	// Answer 生成的回答。
	Answer string `json:"answer"`
	// Passages 回答依据的上下文片段。
	Passages []ContextPassage `json:"passages"`
	// SourcesUsed 成功参与检索的来源列表。
	SourcesUsed []string `json:"sources_used"`
	// SourcesFailed 本次运行时检索失败的来源列表。
	SourcesFailed []string `json:"sources_failed,omitempty"`
	// SourcesUnavailable 启动时未加载成功、从未参与本次检索的来源列表。
	SourcesUnavailable []string `json:"sources_unavailable,omitempty"`
	// Model 实际使用的生成模型。
	Model string `json:"model,omitempty"`
	// TotalTokens 本次生成消耗的 token 总数。
	TotalTokens int `json:"total_tokens,omitempty"`
	// ElapsedMs 端到端耗时（毫秒）。
	ElapsedMs int64 `json:"elapsed_ms"`
}
