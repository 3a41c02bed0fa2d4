package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/kart-io/edunav/internal/model"
	"github.com/kart-io/edunav/internal/pkg/textutil"
	"github.com/kart-io/edunav/internal/qa/store"
	"github.com/kart-io/edunav/pkg/llm"
)

// AssemblerConfig 上下文组装器配置。
type AssemblerConfig struct {
	// TopK 每个来源检索的结果数量。
	TopK int
	// PassageLimit 单条文本并入上下文前的最大字符数。
	PassageLimit int
	// Concurrency 并发检索的来源数量上限，0 表示不限制。
	Concurrency int
}

// AssembledContext 表示组装好的问答上下文。
type AssembledContext struct {
	// Text 带来源标注的拼接文本。
	Text string
	// Passages 并入上下文的片段列表。
	Passages []model.ContextPassage
	// SourcesUsed 检索成功的来源。
	SourcesUsed []string
	// SourcesFailed 本次运行时检索失败的来源。
	SourcesFailed []string
	// SourcesUnavailable 启动时未加载成功、从未参与检索的来源。
	SourcesUnavailable []string
}

// IsEmpty 判断上下文是否为空（无任何有效内容）。
func (c *AssembledContext) IsEmpty() bool {
	return textutil.IsBlank(c.Text)
}

// ContextAssembler 对所有可用来源并发检索，组装带来源标注的上下文。
type ContextAssembler struct {
	pool          *RetrieverPool
	embedProvider llm.EmbeddingProvider
	config        *AssemblerConfig
}

// NewContextAssembler 创建上下文组装器。
func NewContextAssembler(pool *RetrieverPool, embedProvider llm.EmbeddingProvider, config *AssemblerConfig) *ContextAssembler {
	return &ContextAssembler{
		pool:          pool,
		embedProvider: embedProvider,
		config:        config,
	}
}

// sourceResult 单个来源的检索结果。
type sourceResult struct {
	source string
	docs   []*store.Document
	err    error
}

// Assemble 检索所有可用来源并组装上下文。所有失败模式都降级为更空的
// 上下文而不是返回错误：运行时检索失败记入 SourcesFailed，启动时未加载的
// 来源记入 SourcesUnavailable，两者互不混淆。
func (a *ContextAssembler) Assemble(ctx context.Context, question string) *AssembledContext {
	assembled := &AssembledContext{}
	for _, e := range a.pool.Failed() {
		assembled.SourcesUnavailable = append(assembled.SourcesUnavailable, e.Source)
	}

	if a.pool.AllFailed() {
		logger.Warnw("no retrievers available, context will be empty")
		return assembled
	}

	entries := a.pool.Available()

	// 问题只向量化一次，所有来源共用
	embedding, err := a.embedProvider.EmbedSingle(ctx, question)
	if err != nil {
		// 向量化失败等价于所有可用来源检索失败
		logger.Errorw("failed to embed question", "error", err.Error())
		for _, e := range entries {
			assembled.SourcesFailed = append(assembled.SourcesFailed, e.Source)
		}
		return assembled
	}

	results := a.searchAll(ctx, entries, embedding)

	// 按排序后的来源顺序拼接，保证输出确定
	var sb strings.Builder
	for _, r := range results {
		if r.err != nil {
			logger.Warnw("retrieval failed for source",
				"source", r.source,
				"error", r.err.Error(),
			)
			assembled.SourcesFailed = append(assembled.SourcesFailed, r.source)
			continue
		}

		assembled.SourcesUsed = append(assembled.SourcesUsed, r.source)
		for _, doc := range r.docs {
			if textutil.IsBlank(doc.Content) {
				continue
			}
			content := textutil.TruncateString(doc.Content, a.config.PassageLimit)
			sb.WriteString(fmt.Sprintf("Source: %s\n%s\n\n", r.source, content))
			assembled.Passages = append(assembled.Passages, model.ContextPassage{
				Source:  r.source,
				Content: content,
				Score:   doc.Score,
			})
		}
	}

	assembled.Text = sb.String()
	return assembled
}

// searchAll 并发检索所有来源，返回结果按来源名排序。
func (a *ContextAssembler) searchAll(ctx context.Context, entries []*RetrieverEntry, embedding []float32) []*sourceResult {
	results := make([]*sourceResult, len(entries))

	concurrency := a.config.Concurrency
	if concurrency <= 0 || concurrency > len(entries) {
		concurrency = len(entries)
	}

	antsPool, err := ants.NewPool(concurrency)
	if err != nil {
		// 池创建失败时退化为串行检索
		logger.Warnw("failed to create worker pool, searching serially", "error", err.Error())
		for i, e := range entries {
			docs, searchErr := e.Index.Search(ctx, embedding, a.config.TopK)
			results[i] = &sourceResult{source: e.Source, docs: docs, err: searchErr}
		}
		return results
	}
	defer antsPool.Release()

	var wg sync.WaitGroup
	for i, e := range entries {
		i, e := i, e
		wg.Add(1)
		task := func() {
			defer wg.Done()
			docs, searchErr := e.Index.Search(ctx, embedding, a.config.TopK)
			results[i] = &sourceResult{source: e.Source, docs: docs, err: searchErr}
		}
		if submitErr := antsPool.Submit(task); submitErr != nil {
			wg.Done()
			results[i] = &sourceResult{source: e.Source, err: submitErr}
		}
	}
	wg.Wait()

	return results
}
