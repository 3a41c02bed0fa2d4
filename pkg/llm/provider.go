// Package llm defines provider interfaces for embeddings and chat generation,
// plus a registry so concrete providers can be selected by name at runtime.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// Role 消息角色。
type Role string

const (
	// RoleSystem 系统消息。
	RoleSystem Role = "system"
	// RoleUser 用户消息。
	RoleUser Role = "user"
	// RoleAssistant 助手消息。
	RoleAssistant Role = "assistant"
)

// Message 对话消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage token 用量统计。
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResponse 生成结果。
type GenerateResponse struct {
	// Content 生成的文本。
	Content string `json:"content"`
	// Model 实际使用的模型名。
	Model string `json:"model"`
	// TokenUsage token 用量，提供方不返回时为零值。
	TokenUsage TokenUsage `json:"token_usage"`
}

// EmbeddingProvider 文本向量化接口。
type EmbeddingProvider interface {
	// Embed 批量向量化文本。
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle 向量化单条文本。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	// Name 返回提供方名称。
	Name() string
}

// ChatProvider 对话生成接口。
type ChatProvider interface {
	// Chat 基于完整消息列表生成回复。
	Chat(ctx context.Context, messages []Message) (*GenerateResponse, error)
	// Generate 基于单条提示词生成回复，systemPrompt 可为空。
	Generate(ctx context.Context, prompt, systemPrompt string) (*GenerateResponse, error)
	// Name 返回提供方名称。
	Name() string
}

// EmbeddingFactory 根据配置创建 EmbeddingProvider。
type EmbeddingFactory func(config map[string]any) (EmbeddingProvider, error)

// ChatFactory 根据配置创建 ChatProvider。
type ChatFactory func(config map[string]any) (ChatProvider, error)

var (
	registryMu        sync.RWMutex
	embeddingRegistry = make(map[string]EmbeddingFactory)
	chatRegistry      = make(map[string]ChatFactory)
)

// RegisterEmbeddingProvider registers an embedding provider factory under name.
// It is intended to be called from provider package init functions.
func RegisterEmbeddingProvider(name string, factory EmbeddingFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	embeddingRegistry[name] = factory
}

// RegisterChatProvider registers a chat provider factory under name.
func RegisterChatProvider(name string, factory ChatFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	chatRegistry[name] = factory
}

// NewEmbeddingProvider creates an embedding provider by name.
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	registryMu.RLock()
	factory, ok := embeddingRegistry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q", name)
	}
	return factory(config)
}

// NewChatProvider creates a chat provider by name.
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	registryMu.RLock()
	factory, ok := chatRegistry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown chat provider %q", name)
	}
	return factory(config)
}

// StringFromConfig 从配置 map 读取字符串值，缺失时返回默认值。
func StringFromConfig(config map[string]any, key, def string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// IntFromConfig 从配置 map 读取整数值，缺失时返回默认值。
func IntFromConfig(config map[string]any, key string, def int) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}
