package vectorstore

import (
	"context"
	"time"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/model"
)

const mockChunkContent = "This is placeholder study material served while no database is configured. " +
	"Connect Postgres to store and retrieve real document chunks."

// mockStore is the no-database fallback: a memory store pre-seeded with
// one synthetic record so retrieval endpoints stay exercisable.
type mockStore struct {
	*memoryStore
}

func newMockStore(deps Deps) (Store, error) {
	_ = deps
	inner := &memoryStore{}
	vec, _ := ai.NewMockEmbedder(0).Embed(context.Background(), mockChunkContent, "retrieval_document")
	seed := &model.ChunkEmbedding{
		FileID:      "mock-file",
		ChunkIndex:  0,
		TotalChunks: 1,
		Content:     mockChunkContent,
		Embedding:   vec,
		Metadata:    map[string]string{"filename": "mock.txt"},
		Ctime:       time.Now().UnixMilli(),
	}
	if err := inner.Store(context.Background(), []*model.ChunkEmbedding{seed}); err != nil {
		return nil, err
	}
	return &mockStore{memoryStore: inner}, nil
}

func (s *mockStore) Mode() string {
	return "mock"
}

func init() {
	Register("mock", newMockStore)
}
