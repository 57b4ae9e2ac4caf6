package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/studyforge/studyforge/internal/model"
)

// memoryStore keeps everything in process memory. Useful for tests and
// for running without Postgres.
type memoryStore struct {
	mu     sync.RWMutex
	nextID int64
	items  []*model.ChunkEmbedding
}

func newMemoryStore(deps Deps) (Store, error) {
	_ = deps
	return &memoryStore{}, nil
}

func (s *memoryStore) Store(ctx context.Context, items []*model.ChunkEmbedding) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.nextID++
		item.ID = s.nextID
		s.items = append(s.items, cloneChunk(item))
	}
	return nil
}

func (s *memoryStore) QueryByFile(ctx context.Context, fileID string, limit int) ([]*model.ChunkEmbedding, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []*model.ChunkEmbedding
	for _, item := range s.items {
		if item.FileID == fileID {
			results = append(results, cloneChunk(item))
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].ChunkIndex < results[j].ChunkIndex })
	return capResults(results, limit), nil
}

func (s *memoryStore) Query(ctx context.Context, limit int) ([]*model.ChunkEmbedding, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*model.ChunkEmbedding, 0, len(s.items))
	for _, item := range s.items {
		results = append(results, cloneChunk(item))
	}
	// newest first, matching the pg backend
	sort.SliceStable(results, func(i, j int) bool { return results[i].Ctime > results[j].Ctime })
	return capResults(results, limit), nil
}

func (s *memoryStore) DeleteByFile(ctx context.Context, fileID string) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*model.ChunkEmbedding
	var removed int64
	for _, item := range s.items {
		if item.FileID == fileID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return removed, nil
}

func (s *memoryStore) StatsByFile(ctx context.Context, fileID string) (*model.EmbeddingStats, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &model.EmbeddingStats{FileID: fileID}
	var totalLen int
	for _, item := range s.items {
		if item.FileID != fileID {
			continue
		}
		stats.TotalEmbeddings++
		totalLen += len(item.Content)
		if stats.FirstCtime == 0 || item.Ctime < stats.FirstCtime {
			stats.FirstCtime = item.Ctime
		}
		if item.Ctime > stats.LastCtime {
			stats.LastCtime = item.Ctime
		}
	}
	if stats.TotalEmbeddings > 0 {
		stats.AvgChunkLength = totalLen / stats.TotalEmbeddings
	}
	return stats, nil
}

func (s *memoryStore) Mode() string {
	return "memory"
}

func capResults(items []*model.ChunkEmbedding, limit int) []*model.ChunkEmbedding {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func cloneChunk(item *model.ChunkEmbedding) *model.ChunkEmbedding {
	clone := *item
	if len(item.Embedding) > 0 {
		clone.Embedding = make([]float32, len(item.Embedding))
		copy(clone.Embedding, item.Embedding)
	}
	if item.Metadata != nil {
		clone.Metadata = make(map[string]string, len(item.Metadata))
		for k, v := range item.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

func init() {
	Register("memory", newMemoryStore)
}
