package store

import (
	"context"
)

// Document 表示索引中的一条文本记录。
type Document struct {
	// ID 记录 ID。
	ID string
	// Content 文本内容。
	Content string
	// Title 原始资料标题。
	Title string
	// URL 原始资料链接。
	URL string
	// Score 相似度分数，仅检索结果携带。
	Score float32
}

// VectorIndex 定义单个来源的向量索引读取接口。
type VectorIndex interface {
	// Search 按向量相似度检索 topK 条记录。
	Search(ctx context.Context, embedding []float32, topK int) ([]*Document, error)

	// Count 返回索引中的记录数量。
	Count(ctx context.Context) (int64, error)
}

// IndexOpener 按来源打开向量索引。
// location 的含义由具体后端决定（Milvus 集合名或快照文件路径）。
type IndexOpener interface {
	Open(ctx context.Context, source, location string) (VectorIndex, error)
}
