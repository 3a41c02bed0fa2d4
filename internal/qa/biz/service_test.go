package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kart-io/edunav/internal/qa/store"
	"github.com/kart-io/edunav/pkg/llm"
)

// fakeIndex 模拟向量索引。
type fakeIndex struct {
	docs      []*store.Document
	searchErr error
	count     int64
}

func (f *fakeIndex) Search(ctx context.Context, embedding []float32, topK int) ([]*store.Document, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if topK < len(f.docs) {
		return f.docs[:topK], nil
	}
	return f.docs, nil
}

func (f *fakeIndex) Count(ctx context.Context) (int64, error) {
	return f.count, nil
}

// fakeOpener 按来源返回预设索引或错误。
type fakeOpener struct {
	indexes map[string]store.VectorIndex
	errs    map[string]error
}

func (f *fakeOpener) Open(ctx context.Context, source, location string) (store.VectorIndex, error) {
	if err, ok := f.errs[source]; ok {
		return nil, err
	}
	if idx, ok := f.indexes[source]; ok {
		return idx, nil
	}
	return nil, fmt.Errorf("no index for source %s", source)
}

// fakeEmbedProvider 模拟向量化供应商，记录调用次数。
type fakeEmbedProvider struct {
	embedErr error
	calls    int
}

func (f *fakeEmbedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.EmbedSingle(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedProvider) Name() string { return "fake-embed" }

// fakeChatProvider 模拟对话供应商，记录调用次数和最后的提示词。
type fakeChatProvider struct {
	answer      string
	generateErr error
	calls       int
	lastPrompt  string
}

func (f *fakeChatProvider) Chat(ctx context.Context, messages []llm.Message) (*llm.GenerateResponse, error) {
	return f.Generate(ctx, messages[len(messages)-1].Content, "")
}

func (f *fakeChatProvider) Generate(ctx context.Context, prompt, systemPrompt string) (*llm.GenerateResponse, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return &llm.GenerateResponse{
		Content:    f.answer,
		Model:      "fake-model",
		TokenUsage: llm.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeChatProvider) Name() string { return "fake-chat" }

func newTestService(t *testing.T, opener store.IndexOpener, sources []string, embed *fakeEmbedProvider, chat *fakeChatProvider) *QAService {
	t.Helper()

	pool := NewRetrieverPool(opener, sources, func(source string) string {
		return "edunav_" + source
	})
	pool.Load(context.Background())

	assembler := NewContextAssembler(pool, embed, &AssemblerConfig{
		TopK:         4,
		PassageLimit: 2000,
		Concurrency:  4,
	})

	generator, err := NewGenerator(chat, &GeneratorConfig{
		PromptTemplate: "Please answer the questions based on the following content and your own judgment:\n{{context}}\nQuestion: {{question}}",
	})
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}

	return NewQAService(pool, assembler, generator, embed, chat)
}

func TestPoolToleratesPartialLoadFailure(t *testing.T) {
	opener := &fakeOpener{
		indexes: map[string]store.VectorIndex{
			"youtube": &fakeIndex{count: 10},
			"pdf":     &fakeIndex{count: 5},
		},
		errs: map[string]error{
			"website": errors.New("collection not found"),
		},
	}

	pool := NewRetrieverPool(opener, []string{"youtube", "website", "pdf"}, func(s string) string { return s })
	pool.Load(context.Background())

	if got := len(pool.Available()); got != 2 {
		t.Errorf("可用来源数量 = %d, want 2", got)
	}
	if got := len(pool.Failed()); got != 1 {
		t.Errorf("失败来源数量 = %d, want 1", got)
	}
	if e := pool.Entry("website"); e == nil || e.Err == nil {
		t.Error("website 应记录加载错误")
	}
	if pool.AllFailed() {
		t.Error("仍有可用来源时 AllFailed 应为 false")
	}

	statuses := pool.Statuses(context.Background())
	if len(statuses) != 3 {
		t.Fatalf("状态数量 = %d, want 3", len(statuses))
	}
	for _, st := range statuses {
		if st.Source == "website" && st.Available {
			t.Error("website 不应可用")
		}
		if st.Source == "youtube" && st.DocumentCount != 10 {
			t.Errorf("youtube 文档数 = %d, want 10", st.DocumentCount)
		}
	}
}

func TestPoolAllFailed(t *testing.T) {
	opener := &fakeOpener{errs: map[string]error{
		"youtube": errors.New("down"),
		"pdf":     errors.New("down"),
	}}

	pool := NewRetrieverPool(opener, []string{"youtube", "pdf"}, func(s string) string { return s })
	pool.Load(context.Background())

	if !pool.AllFailed() {
		t.Error("所有来源加载失败时 AllFailed 应为 true")
	}
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{answer: "ok"}
	opener := &fakeOpener{indexes: map[string]store.VectorIndex{
		"youtube": &fakeIndex{docs: []*store.Document{{ID: "1", Content: "content"}}},
	}}
	svc := newTestService(t, opener, []string{"youtube"}, embed, chat)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := svc.Ask(context.Background(), q)
		if !errors.Is(err, ErrInvalidQuestion) {
			t.Errorf("Ask(%q) 应返回 ErrInvalidQuestion, got %v", q, err)
		}
	}

	// 校验失败时不应触发检索和生成
	if embed.calls != 0 {
		t.Errorf("向量化调用次数 = %d, want 0", embed.calls)
	}
	if chat.calls != 0 {
		t.Errorf("LLM 调用次数 = %d, want 0", chat.calls)
	}
}

func TestAskNoContextWhenAllSourcesFail(t *testing.T) {
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{answer: "ok"}
	opener := &fakeOpener{errs: map[string]error{
		"youtube": errors.New("down"),
		"pdf":     errors.New("down"),
	}}
	svc := newTestService(t, opener, []string{"youtube", "pdf"}, embed, chat)

	_, err := svc.Ask(context.Background(), "what is this course about")
	if !errors.Is(err, ErrNoContext) {
		t.Fatalf("所有来源失败时应返回 ErrNoContext, got %v", err)
	}
	// 无上下文时不应调用 LLM
	if chat.calls != 0 {
		t.Errorf("LLM 调用次数 = %d, want 0", chat.calls)
	}
}

func TestAskNoContextWhenEmbeddingFails(t *testing.T) {
	embed := &fakeEmbedProvider{embedErr: errors.New("embedding service down")}
	chat := &fakeChatProvider{answer: "ok"}
	opener := &fakeOpener{indexes: map[string]store.VectorIndex{
		"youtube": &fakeIndex{docs: []*store.Document{{ID: "1", Content: "content"}}},
	}}
	svc := newTestService(t, opener, []string{"youtube"}, embed, chat)

	_, err := svc.Ask(context.Background(), "question")
	if !errors.Is(err, ErrNoContext) {
		t.Fatalf("向量化失败时应返回 ErrNoContext, got %v", err)
	}
	if chat.calls != 0 {
		t.Errorf("LLM 调用次数 = %d, want 0", chat.calls)
	}
}

func TestAskNoContextWhenResultsEmpty(t *testing.T) {
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{answer: "ok"}
	opener := &fakeOpener{indexes: map[string]store.VectorIndex{
		"youtube": &fakeIndex{},
		"pdf":     &fakeIndex{},
	}}
	svc := newTestService(t, opener, []string{"youtube", "pdf"}, embed, chat)

	_, err := svc.Ask(context.Background(), "question")
	if !errors.Is(err, ErrNoContext) {
		t.Fatalf("检索结果为空时应返回 ErrNoContext, got %v", err)
	}
	if chat.calls != 0 {
		t.Errorf("LLM 调用次数 = %d, want 0", chat.calls)
	}
}

func TestAskIsolatesRuntimeRetrievalFailure(t *testing.T) {
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{answer: "the answer"}
	opener := &fakeOpener{indexes: map[string]store.VectorIndex{
		"youtube": &fakeIndex{docs: []*store.Document{{ID: "1", Content: "video transcript"}}},
		"pdf":     &fakeIndex{searchErr: errors.New("timeout")},
	}}
	svc := newTestService(t, opener, []string{"youtube", "pdf"}, embed, chat)

	result, err := svc.Ask(context.Background(), "question")
	if err != nil {
		t.Fatalf("一个来源检索失败不应导致整体失败: %v", err)
	}
	if result.Answer != "the answer" {
		t.Errorf("Answer = %q, want %q", result.Answer, "the answer")
	}
	if len(result.SourcesUsed) != 1 || result.SourcesUsed[0] != "youtube" {
		t.Errorf("SourcesUsed = %v, want [youtube]", result.SourcesUsed)
	}
	if len(result.SourcesFailed) != 1 || result.SourcesFailed[0] != "pdf" {
		t.Errorf("SourcesFailed = %v, want [pdf]", result.SourcesFailed)
	}
	if len(result.SourcesUnavailable) != 0 {
		t.Errorf("SourcesUnavailable = %v, want []", result.SourcesUnavailable)
	}
}

// 启动时未加载的来源和运行时检索失败的来源应分别记录。
func TestAssembleSeparatesUnavailableFromFailed(t *testing.T) {
	embed := &fakeEmbedProvider{}
	opener := &fakeOpener{
		indexes: map[string]store.VectorIndex{
			"youtube": &fakeIndex{docs: []*store.Document{{ID: "1", Content: "video transcript"}}},
			"pdf":     &fakeIndex{searchErr: errors.New("timeout")},
		},
		errs: map[string]error{
			"website": errors.New("collection not found"),
		},
	}

	pool := NewRetrieverPool(opener, []string{"youtube", "pdf", "website"}, func(s string) string { return s })
	pool.Load(context.Background())

	assembler := NewContextAssembler(pool, embed, &AssemblerConfig{
		TopK:         4,
		PassageLimit: 2000,
		Concurrency:  3,
	})

	assembled := assembler.Assemble(context.Background(), "question")

	if len(assembled.SourcesUsed) != 1 || assembled.SourcesUsed[0] != "youtube" {
		t.Errorf("SourcesUsed = %v, want [youtube]", assembled.SourcesUsed)
	}
	if len(assembled.SourcesFailed) != 1 || assembled.SourcesFailed[0] != "pdf" {
		t.Errorf("SourcesFailed = %v, want [pdf]", assembled.SourcesFailed)
	}
	if len(assembled.SourcesUnavailable) != 1 || assembled.SourcesUnavailable[0] != "website" {
		t.Errorf("SourcesUnavailable = %v, want [website]", assembled.SourcesUnavailable)
	}
	if assembled.IsEmpty() {
		t.Error("仍有可用来源命中时上下文不应为空")
	}
}

func TestAskAssemblesLabeledContext(t *testing.T) {
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{answer: "ok"}
	opener := &fakeOpener{indexes: map[string]store.VectorIndex{
		"youtube": &fakeIndex{docs: []*store.Document{
			{ID: "1", Content: "first video"},
			{ID: "2", Content: "second video"},
		}},
		"website": &fakeIndex{docs: []*store.Document{
			{ID: "3", Content: "web page"},
		}},
	}}
	svc := newTestService(t, opener, []string{"youtube", "website"}, embed, chat)

	result, err := svc.Ask(context.Background(), "question")
	if err != nil {
		t.Fatalf("Ask 失败: %v", err)
	}

	if len(result.Passages) != 3 {
		t.Fatalf("片段数量 = %d, want 3", len(result.Passages))
	}
	// 上下文按来源名排序拼接，每条带来源标注
	if !strings.Contains(chat.lastPrompt, "Source: youtube\nfirst video") {
		t.Error("提示词应包含标注的 youtube 内容")
	}
	if !strings.Contains(chat.lastPrompt, "Source: website\nweb page") {
		t.Error("提示词应包含标注的 website 内容")
	}
	websitePos := strings.Index(chat.lastPrompt, "Source: website")
	youtubePos := strings.Index(chat.lastPrompt, "Source: youtube")
	if websitePos > youtubePos {
		t.Error("来源应按名称排序拼接")
	}
	if !strings.Contains(chat.lastPrompt, "Question: question") {
		t.Error("提示词应包含问题")
	}
	if embed.calls != 1 {
		t.Errorf("问题应只向量化一次, got %d", embed.calls)
	}
	if chat.calls != 1 {
		t.Errorf("LLM 应只调用一次, got %d", chat.calls)
	}
}

func TestAskTruncatesLongPassages(t *testing.T) {
	long := strings.Repeat("a", 5000)
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{answer: "ok"}
	opener := &fakeOpener{indexes: map[string]store.VectorIndex{
		"pdf": &fakeIndex{docs: []*store.Document{{ID: "1", Content: long}}},
	}}
	svc := newTestService(t, opener, []string{"pdf"}, embed, chat)

	result, err := svc.Ask(context.Background(), "question")
	if err != nil {
		t.Fatalf("Ask 失败: %v", err)
	}
	if got := len(result.Passages[0].Content); got != 2000 {
		t.Errorf("片段长度 = %d, want 2000", got)
	}
	if strings.Contains(chat.lastPrompt, long) {
		t.Error("完整长文本不应进入提示词")
	}
}

func TestAskWrapsGenerationError(t *testing.T) {
	cause := errors.New("upstream 500")
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{generateErr: cause}
	opener := &fakeOpener{indexes: map[string]store.VectorIndex{
		"youtube": &fakeIndex{docs: []*store.Document{{ID: "1", Content: "content"}}},
	}}
	svc := newTestService(t, opener, []string{"youtube"}, embed, chat)

	_, err := svc.Ask(context.Background(), "question")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("应返回 *GenerationError, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Error("GenerationError 应能解包出底层错误")
	}
}

func TestStatsAndSources(t *testing.T) {
	embed := &fakeEmbedProvider{}
	chat := &fakeChatProvider{answer: "ok"}
	opener := &fakeOpener{
		indexes: map[string]store.VectorIndex{"youtube": &fakeIndex{count: 7}},
		errs:    map[string]error{"pptx": errors.New("missing")},
	}
	svc := newTestService(t, opener, []string{"youtube", "pptx"}, embed, chat)

	stats := svc.Stats(context.Background())
	if stats["embed_provider"] != "fake-embed" {
		t.Errorf("embed_provider = %v", stats["embed_provider"])
	}
	available, ok := stats["sources_available"].([]string)
	if !ok || len(available) != 1 || available[0] != "youtube" {
		t.Errorf("sources_available = %v, want [youtube]", stats["sources_available"])
	}

	sources := svc.Sources(context.Background())
	if len(sources) != 2 {
		t.Fatalf("来源状态数量 = %d, want 2", len(sources))
	}
}
