package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("hello", 10); got != "hello" {
		t.Errorf("短字符串不应被截断, got %q", got)
	}
	if got := TruncateString("hello world", 5); got != "hello" {
		t.Errorf("TruncateString() = %q, want %q", got, "hello")
	}
	// 多字节字符按 Unicode 字符数截断，不能截断在字节中间
	if got := TruncateString("你好世界", 2); got != "你好" {
		t.Errorf("TruncateString() = %q, want %q", got, "你好")
	}
	if got := TruncateString("hello", 0); got != "" {
		t.Errorf("maxLen 为 0 应返回空字符串, got %q", got)
	}

	long := strings.Repeat("a", 5000)
	truncated := TruncateString(long, 2000)
	if utf8.RuneCountInString(truncated) != 2000 {
		t.Errorf("截断后长度 = %d, want 2000", utf8.RuneCountInString(truncated))
	}
	// 截断是幂等的
	if TruncateString(truncated, 2000) != truncated {
		t.Error("对已截断的字符串再次截断应保持不变")
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n ", true},
		{"q", false},
		{"  question  ", false},
	}

	for _, tt := range tests {
		if got := IsBlank(tt.in); got != tt.want {
			t.Errorf("IsBlank(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHashString(t *testing.T) {
	h1 := HashString("hello")
	h2 := HashString("hello")
	if h1 != h2 {
		t.Error("相同输入应产生相同哈希")
	}
	if len(h1) != 32 {
		t.Errorf("哈希长度 = %d, want 32", len(h1))
	}
	if HashString("a") == HashString("b") {
		t.Error("不同输入不应产生相同哈希")
	}
}

func TestContainsString(t *testing.T) {
	slice := []string{"youtube", "website", "pdf"}
	if !ContainsString(slice, "pdf") {
		t.Error("应包含 pdf")
	}
	if ContainsString(slice, "pptx") {
		t.Error("不应包含 pptx")
	}
}
