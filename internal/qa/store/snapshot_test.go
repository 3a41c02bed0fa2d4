package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func writeTestSnapshot(t *testing.T, dir, source string) string {
	t.Helper()
	location := filepath.Join(dir, source+".snapshot")
	records := []SnapshotRecord{
		{ID: "1", Content: "Go 并发编程指南", Title: "concurrency", Embedding: []float32{1, 0, 0}},
		{ID: "2", Content: "HTTP 服务最佳实践", Title: "http", Embedding: []float32{0, 1, 0}},
		{ID: "3", Content: "向量检索原理", Title: "vector", Embedding: []float32{0.9, 0.1, 0}},
	}
	if err := WriteSnapshot(location, source, 3, records); err != nil {
		t.Fatalf("写入快照失败: %v", err)
	}
	return location
}

func TestSnapshotOpenerRequiresOptIn(t *testing.T) {
	location := writeTestSnapshot(t, t.TempDir(), "youtube")

	opener := NewSnapshotOpener(false)
	_, err := opener.Open(context.Background(), "youtube", location)
	if !errors.Is(err, ErrUntrustedSnapshot) {
		t.Fatalf("未开启 opt-in 时应返回 ErrUntrustedSnapshot, got %v", err)
	}
}

func TestSnapshotOpenerMissingFile(t *testing.T) {
	opener := NewSnapshotOpener(true)
	_, err := opener.Open(context.Background(), "pdf", filepath.Join(t.TempDir(), "missing.snapshot"))
	if err == nil {
		t.Fatal("文件不存在时应返回错误")
	}
}

func TestSnapshotSearch(t *testing.T) {
	location := writeTestSnapshot(t, t.TempDir(), "website")

	opener := NewSnapshotOpener(true)
	index, err := opener.Open(context.Background(), "website", location)
	if err != nil {
		t.Fatalf("打开快照失败: %v", err)
	}

	docs, err := index.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("结果数量 = %d, want 2", len(docs))
	}
	// 最相似的应排在最前
	if docs[0].ID != "1" {
		t.Errorf("首条结果 ID = %s, want 1", docs[0].ID)
	}
	if docs[1].ID != "3" {
		t.Errorf("次条结果 ID = %s, want 3", docs[1].ID)
	}
	if docs[0].Score < docs[1].Score {
		t.Error("结果应按分数降序排列")
	}
}

func TestSnapshotSearchTopKBeyondSize(t *testing.T) {
	location := writeTestSnapshot(t, t.TempDir(), "pptx")

	opener := NewSnapshotOpener(true)
	index, err := opener.Open(context.Background(), "pptx", location)
	if err != nil {
		t.Fatalf("打开快照失败: %v", err)
	}

	docs, err := index.Search(context.Background(), []float32{0, 1, 0}, 10)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("topK 超过索引大小时应返回全部记录, got %d", len(docs))
	}

	count, err := index.Count(context.Background())
	if err != nil {
		t.Fatalf("Count 失败: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestWriteSnapshotFillsMissingIDs(t *testing.T) {
	location := filepath.Join(t.TempDir(), "noid.snapshot")
	records := []SnapshotRecord{
		{Content: "未指定 ID 的记录", Embedding: []float32{1, 0, 0}},
	}
	if err := WriteSnapshot(location, "website", 3, records); err != nil {
		t.Fatalf("写入快照失败: %v", err)
	}

	opener := NewSnapshotOpener(true)
	index, err := opener.Open(context.Background(), "website", location)
	if err != nil {
		t.Fatalf("打开快照失败: %v", err)
	}
	docs, err := index.Search(context.Background(), []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(docs) != 1 || docs[0].ID == "" {
		t.Error("写入时应为缺失的记录补齐 ID")
	}
}

func TestSnapshotDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "bad.snapshot")
	records := []SnapshotRecord{
		{ID: "1", Content: "ok", Embedding: []float32{1, 0, 0}},
		{ID: "2", Content: "bad", Embedding: []float32{1, 0}},
	}
	if err := WriteSnapshot(location, "bad", 3, records); err != nil {
		t.Fatalf("写入快照失败: %v", err)
	}

	opener := NewSnapshotOpener(true)
	if _, err := opener.Open(context.Background(), "bad", location); err == nil {
		t.Fatal("维度不一致时应返回错误")
	}
}
