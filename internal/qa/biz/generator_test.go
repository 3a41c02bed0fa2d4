package biz

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewGeneratorValidatesTemplate(t *testing.T) {
	chat := &fakeChatProvider{answer: "ok"}

	if _, err := NewGenerator(chat, &GeneratorConfig{PromptTemplate: "no placeholders"}); err == nil {
		t.Error("缺少占位符的模板应被拒绝")
	}
	if _, err := NewGenerator(chat, &GeneratorConfig{PromptTemplate: "{{context}} only"}); err == nil {
		t.Error("缺少 {{question}} 的模板应被拒绝")
	}
	if _, err := NewGenerator(chat, &GeneratorConfig{PromptTemplate: "{{context}} {{question}}"}); err != nil {
		t.Errorf("合法模板不应报错: %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	chat := &fakeChatProvider{answer: "ok"}
	g, err := NewGenerator(chat, &GeneratorConfig{
		PromptTemplate: "ctx:{{context}}|q:{{question}}",
	})
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}

	prompt := g.BuildPrompt("CONTEXT", "QUESTION")
	if prompt != "ctx:CONTEXT|q:QUESTION" {
		t.Errorf("BuildPrompt() = %q", prompt)
	}
}

func TestGenerateRejectsEmptyContext(t *testing.T) {
	chat := &fakeChatProvider{answer: "ok"}
	g, err := NewGenerator(chat, &GeneratorConfig{
		PromptTemplate: "{{context}} {{question}}",
	})
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}

	for _, contextText := range []string{"", "   \n\t"} {
		if _, err := g.Generate(context.Background(), "q", contextText); !errors.Is(err, ErrNoContext) {
			t.Errorf("空上下文应返回 ErrNoContext, got %v", err)
		}
	}
	if chat.calls != 0 {
		t.Errorf("空上下文不应调用 LLM, got %d 次", chat.calls)
	}
}

func TestGenerateCallsLLMOnce(t *testing.T) {
	chat := &fakeChatProvider{answer: "final answer"}
	g, err := NewGenerator(chat, &GeneratorConfig{
		PromptTemplate: "Content:\n{{context}}\nQuestion: {{question}}",
	})
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}

	resp, err := g.Generate(context.Background(), "what?", "Source: pdf\nsome text\n\n")
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	if resp.Content != "final answer" {
		t.Errorf("Content = %q", resp.Content)
	}
	if chat.calls != 1 {
		t.Errorf("LLM 调用次数 = %d, want 1", chat.calls)
	}
	if !strings.Contains(chat.lastPrompt, "Source: pdf") {
		t.Error("提示词应包含上下文")
	}
}
