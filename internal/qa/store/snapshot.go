package store

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kart-io/edunav/internal/pkg/textutil"
)

// ErrUntrustedSnapshot 表示快照反序列化未被显式允许。
// 快照文件由外部构建流程产出，加载等同于执行反序列化，必须显式开启。
var ErrUntrustedSnapshot = errors.New("snapshot deserialization is not allowed, set qa.allow-untrusted-snapshots to opt in")

// SnapshotOpener 基于本地快照文件打开向量索引，每个来源对应一个文件。
type SnapshotOpener struct {
	allowUntrusted bool
}

var _ IndexOpener = (*SnapshotOpener)(nil)

// NewSnapshotOpener 创建快照索引打开器。
func NewSnapshotOpener(allowUntrusted bool) *SnapshotOpener {
	return &SnapshotOpener{allowUntrusted: allowUntrusted}
}

// SnapshotRecord 快照文件中的一条记录。ID 为空时写入前会按内容哈希补齐。
type SnapshotRecord struct {
	ID        string
	Content   string
	Title     string
	URL       string
	Embedding []float32
}

// snapshotFile 快照文件的序列化结构。
type snapshotFile struct {
	Source    string
	Dimension int
	Records   []SnapshotRecord
}

// Open 从快照文件加载索引到内存。
func (o *SnapshotOpener) Open(ctx context.Context, source, location string) (VectorIndex, error) {
	if !o.allowUntrusted {
		return nil, fmt.Errorf("cannot open snapshot for source %s: %w", source, ErrUntrustedSnapshot)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot for source %s: %w", source, err)
	}
	defer f.Close()

	var snap snapshotFile
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for source %s: %w", source, err)
	}

	for i := range snap.Records {
		if len(snap.Records[i].Embedding) != snap.Dimension {
			return nil, fmt.Errorf("snapshot for source %s has inconsistent dimensions at record %d", source, i)
		}
	}

	return &snapshotIndex{records: snap.Records}, nil
}

// WriteSnapshot 将记录写入快照文件，供索引构建流程使用。
func WriteSnapshot(location, source string, dimension int, records []SnapshotRecord) error {
	f, err := os.Create(location)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	for i := range records {
		if records[i].ID == "" {
			records[i].ID = textutil.HashString(records[i].Content)
		}
	}

	snap := snapshotFile{
		Source:    source,
		Dimension: dimension,
		Records:   records,
	}
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// snapshotIndex 实现全内存的向量索引，检索为暴力余弦相似度扫描。
type snapshotIndex struct {
	records []SnapshotRecord
}

var _ VectorIndex = (*snapshotIndex)(nil)

// Search 按余弦相似度降序返回 topK 条记录。
func (s *snapshotIndex) Search(ctx context.Context, embedding []float32, topK int) ([]*Document, error) {
	if topK <= 0 {
		return []*Document{}, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, 0, len(s.records))
	for i := range s.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores = append(scores, scored{
			idx:   i,
			score: textutil.CosineSimilarity(embedding, s.records[i].Embedding),
		})
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	docs := make([]*Document, 0, topK)
	for _, sc := range scores[:topK] {
		r := s.records[sc.idx]
		docs = append(docs, &Document{
			ID:      r.ID,
			Content: r.Content,
			Title:   r.Title,
			URL:     r.URL,
			Score:   float32(sc.score),
		})
	}
	return docs, nil
}

// Count 返回索引中的记录数量。
func (s *snapshotIndex) Count(ctx context.Context) (int64, error) {
	return int64(len(s.records)), nil
}
