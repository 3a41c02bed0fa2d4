package biz

import (
	"context"
	"sort"

	"github.com/kart-io/logger"

	"github.com/kart-io/edunav/internal/model"
	"github.com/kart-io/edunav/internal/qa/store"
)

// RetrieverEntry 表示一个来源的检索器加载结果。
type RetrieverEntry struct {
	// Source 来源名称。
	Source string
	// Location 存储位置。
	Location string
	// Index 加载成功的向量索引，失败时为 nil。
	Index store.VectorIndex
	// Err 加载失败原因，成功时为 nil。
	Err error
}

// RetrieverPool 按来源持有向量索引，单个来源加载失败不影响其他来源。
type RetrieverPool struct {
	opener  store.IndexOpener
	sources []string
	locate  func(source string) string
	entries map[string]*RetrieverEntry
}

// NewRetrieverPool 创建检索器池。locate 将来源名映射为存储位置。
func NewRetrieverPool(opener store.IndexOpener, sources []string, locate func(string) string) *RetrieverPool {
	// 排序保证遍历顺序稳定
	sorted := make([]string, len(sources))
	copy(sorted, sources)
	sort.Strings(sorted)

	return &RetrieverPool{
		opener:  opener,
		sources: sorted,
		locate:  locate,
		entries: make(map[string]*RetrieverEntry, len(sorted)),
	}
}

// Load 逐个来源打开索引，失败的来源记录错误后继续。
func (p *RetrieverPool) Load(ctx context.Context) {
	for _, source := range p.sources {
		location := p.locate(source)
		entry := &RetrieverEntry{
			Source:   source,
			Location: location,
		}

		index, err := p.opener.Open(ctx, source, location)
		if err != nil {
			entry.Err = err
			logger.Warnw("failed to load retriever, source disabled",
				"source", source,
				"location", location,
				"error", err.Error(),
			)
		} else {
			entry.Index = index
			logger.Infow("retriever loaded", "source", source, "location", location)
		}

		p.entries[source] = entry
	}

	logger.Infow("retriever pool ready",
		"total", len(p.sources),
		"available", len(p.Available()),
	)
}

// Available 返回加载成功的条目，按来源名排序。
func (p *RetrieverPool) Available() []*RetrieverEntry {
	var out []*RetrieverEntry
	for _, source := range p.sources {
		if e, ok := p.entries[source]; ok && e.Err == nil {
			out = append(out, e)
		}
	}
	return out
}

// Failed 返回加载失败的条目，按来源名排序。
func (p *RetrieverPool) Failed() []*RetrieverEntry {
	var out []*RetrieverEntry
	for _, source := range p.sources {
		if e, ok := p.entries[source]; ok && e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

// AllFailed 判断是否没有任何来源加载成功。
func (p *RetrieverPool) AllFailed() bool {
	return len(p.Available()) == 0
}

// Entry 返回指定来源的条目，不存在时返回 nil。
func (p *RetrieverPool) Entry(source string) *RetrieverEntry {
	return p.entries[source]
}

// Sources 返回配置的来源列表（已排序）。
func (p *RetrieverPool) Sources() []string {
	return p.sources
}

// Statuses 返回每个来源的状态，包含可用索引的文档数量。
func (p *RetrieverPool) Statuses(ctx context.Context) []model.SourceStatus {
	statuses := make([]model.SourceStatus, 0, len(p.sources))
	for _, source := range p.sources {
		e, ok := p.entries[source]
		if !ok {
			continue
		}

		status := model.SourceStatus{
			Source:    e.Source,
			Location:  e.Location,
			Available: e.Err == nil,
		}
		if e.Err != nil {
			status.Error = e.Err.Error()
		} else {
			count, err := e.Index.Count(ctx)
			if err != nil {
				logger.Warnw("failed to count documents", "source", source, "error", err.Error())
			} else {
				status.DocumentCount = count
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
