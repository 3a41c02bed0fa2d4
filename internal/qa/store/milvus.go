package store

import (
	"context"
	"fmt"

	"github.com/kart-io/edunav/pkg/component/milvus"
)

// MilvusOpener 基于 Milvus 集合打开向量索引，每个来源对应一个集合。
type MilvusOpener struct {
	client *milvus.Client
}

var _ IndexOpener = (*MilvusOpener)(nil)

// NewMilvusOpener 创建 Milvus 索引打开器。
func NewMilvusOpener(client *milvus.Client) *MilvusOpener {
	return &MilvusOpener{client: client}
}

// Open 校验集合存在并加载进内存，失败时该来源不可用。
func (o *MilvusOpener) Open(ctx context.Context, source, location string) (VectorIndex, error) {
	exists, err := o.client.HasCollection(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection for source %s: %w", source, err)
	}
	if !exists {
		return nil, fmt.Errorf("collection %s not found for source %s", location, source)
	}

	if err := o.client.LoadCollection(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to load collection for source %s: %w", source, err)
	}

	return &milvusIndex{
		client:     o.client,
		collection: location,
	}, nil
}

// milvusIndex 实现基于 Milvus 集合的向量索引。
type milvusIndex struct {
	client     *milvus.Client
	collection string
}

var _ VectorIndex = (*milvusIndex)(nil)

// Search 执行向量相似度搜索。
func (s *milvusIndex) Search(ctx context.Context, embedding []float32, topK int) ([]*Document, error) {
	outputFields := []string{"doc_id", "content", "title", "url"}
	results, err := s.client.Search(ctx, s.collection, embedding, topK, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	docs := make([]*Document, 0, len(results))
	for _, r := range results {
		doc := &Document{Score: r.Score}
		if v, ok := r.Metadata["doc_id"].(string); ok {
			doc.ID = v
		}
		if v, ok := r.Metadata["content"].(string); ok {
			doc.Content = v
		}
		if v, ok := r.Metadata["title"].(string); ok {
			doc.Title = v
		}
		if v, ok := r.Metadata["url"].(string); ok {
			doc.URL = v
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Count 返回集合中的记录数量。
func (s *milvusIndex) Count(ctx context.Context) (int64, error) {
	return s.client.GetCollectionStats(ctx, s.collection)
}
