package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/edunav/internal/model"
	"github.com/kart-io/edunav/internal/pkg/textutil"
	"github.com/kart-io/edunav/internal/qa/metrics"
	"github.com/kart-io/edunav/pkg/llm"
)

// Service 定义问答服务接口。
type Service interface {
	// Ask 执行一次完整的问答流程。
	Ask(ctx context.Context, question string) (*model.AnswerResult, error)
	// Sources 返回每个来源的检索器状态。
	Sources(ctx context.Context) []model.SourceStatus
	// Stats 返回服务统计信息。
	Stats(ctx context.Context) map[string]any
}

// QAService 组合检索器池、上下文组装器和生成器提供完整的问答服务。
type QAService struct {
	pool          *RetrieverPool
	assembler     *ContextAssembler
	generator     *Generator
	embedProvider llm.EmbeddingProvider
	chatProvider  llm.ChatProvider
	metrics       *metrics.QAMetrics
}

var _ Service = (*QAService)(nil)

// NewQAService 创建问答服务实例。
func NewQAService(
	pool *RetrieverPool,
	assembler *ContextAssembler,
	generator *Generator,
	embedProvider llm.EmbeddingProvider,
	chatProvider llm.ChatProvider,
) *QAService {
	return &QAService{
		pool:          pool,
		assembler:     assembler,
		generator:     generator,
		embedProvider: embedProvider,
		chatProvider:  chatProvider,
		metrics:       metrics.GetQAMetrics(),
	}
}

// Ask 执行问答流程：校验、检索、组装、生成。
// 失败路径返回类型化错误：ErrInvalidQuestion、ErrNoContext 或 *GenerationError。
func (s *QAService) Ask(ctx context.Context, question string) (*model.AnswerResult, error) {
	start := time.Now()

	// 1. 校验问题
	if textutil.IsBlank(question) {
		s.metrics.RecordQuestion("invalid")
		return nil, ErrInvalidQuestion
	}

	// 2. 检索并组装上下文，失败模式全部降级为空上下文
	retrievalStart := time.Now()
	assembled := s.assembler.Assemble(ctx, question)
	s.metrics.RecordRetrieval(time.Since(retrievalStart), len(assembled.SourcesFailed))

	// 3. 上下文为空时直接返回，不调用 LLM
	if assembled.IsEmpty() {
		logger.Warnw("no context assembled",
			"question_length", len(question),
			"sources_failed", assembled.SourcesFailed,
			"sources_unavailable", assembled.SourcesUnavailable,
		)
		s.metrics.RecordQuestion("no_context")
		return nil, ErrNoContext
	}

	// 4. 生成答案
	llmStart := time.Now()
	resp, err := s.generator.Generate(ctx, question, assembled.Text)
	llmDuration := time.Since(llmStart)

	promptTokens := 0
	completionTokens := 0
	if resp != nil {
		promptTokens = resp.TokenUsage.PromptTokens
		completionTokens = resp.TokenUsage.CompletionTokens
	}
	s.metrics.RecordLLMCall(llmDuration, promptTokens, completionTokens, err)

	if err != nil {
		s.metrics.RecordQuestion("generation_error")
		return nil, &GenerationError{Cause: err}
	}

	s.metrics.RecordQuestion("ok")

	return &model.AnswerResult{
		Question:           question,
		Answer:             resp.Content,
		Passages:           assembled.Passages,
		SourcesUsed:        assembled.SourcesUsed,
		SourcesFailed:      assembled.SourcesFailed,
		SourcesUnavailable: assembled.SourcesUnavailable,
		Model:              resp.Model,
		TotalTokens:        resp.TokenUsage.TotalTokens,
		ElapsedMs:          time.Since(start).Milliseconds(),
	}, nil
}

// Sources 返回每个来源的检索器状态。
func (s *QAService) Sources(ctx context.Context) []model.SourceStatus {
	return s.pool.Statuses(ctx)
}

// Stats 返回服务统计信息。
func (s *QAService) Stats(ctx context.Context) map[string]any {
	available := s.pool.Available()
	sources := make([]string, 0, len(available))
	for _, e := range available {
		sources = append(sources, e.Source)
	}

	return map[string]any{
		"sources_configured": s.pool.Sources(),
		"sources_available":  sources,
		"embed_provider":     s.embedProvider.Name(),
		"chat_provider":      s.chatProvider.Name(),
		"metrics":            s.metrics.Stats(),
	}
}
