package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/edunav/pkg/llm"
)

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// PromptTemplate 提示词模板，须包含 {{context}} 和 {{question}} 占位符。
	PromptTemplate string
}

// Generator 负责基于上下文生成答案，每个问题只调用一次 LLM。
type Generator struct {
	chatProvider llm.ChatProvider
	config       *GeneratorConfig
}

// NewGenerator 创建生成器实例。
func NewGenerator(chatProvider llm.ChatProvider, config *GeneratorConfig) (*Generator, error) {
	if !strings.Contains(config.PromptTemplate, "{{context}}") ||
		!strings.Contains(config.PromptTemplate, "{{question}}") {
		return nil, fmt.Errorf("prompt template must contain {{context}} and {{question}} placeholders")
	}
	return &Generator{
		chatProvider: chatProvider,
		config:       config,
	}, nil
}

// BuildPrompt 将上下文和问题填入模板。
func (g *Generator) BuildPrompt(contextText, question string) string {
	prompt := strings.ReplaceAll(g.config.PromptTemplate, "{{context}}", contextText)
	return strings.ReplaceAll(prompt, "{{question}}", question)
}

// Generate 根据上下文生成答案。上下文为空时不调用 LLM。
func (g *Generator) Generate(ctx context.Context, question, contextText string) (*llm.GenerateResponse, error) {
	if strings.TrimSpace(contextText) == "" {
		return nil, ErrNoContext
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("context cancelled before generation: %w", ctx.Err())
	}

	prompt := g.BuildPrompt(contextText, question)

	resp, err := g.chatProvider.Generate(ctx, prompt, "")
	if err != nil {
		logger.Errorw("LLM generation failed", "error", err.Error())
		return nil, err
	}

	logger.Infow("answer generated",
		"answer_length", len(resp.Content),
		"total_tokens", resp.TokenUsage.TotalTokens,
	)

	return resp, nil
}
