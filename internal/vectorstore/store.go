// Package vectorstore abstracts where chunk vectors live. The pg
// backend is the real one; memory and mock back development and tests.
package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/studyforge/studyforge/internal/model"
)

type Store interface {
	Store(ctx context.Context, items []*model.ChunkEmbedding) error
	QueryByFile(ctx context.Context, fileID string, limit int) ([]*model.ChunkEmbedding, error)
	Query(ctx context.Context, limit int) ([]*model.ChunkEmbedding, error)
	DeleteByFile(ctx context.Context, fileID string) (int64, error)
	StatsByFile(ctx context.Context, fileID string) (*model.EmbeddingStats, error)
	Mode() string
}

// Deps carries runtime handles a backend may need; backends ignore what
// they do not use.
type Deps struct {
	DB *sql.DB
}

type Factory func(deps Deps) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(typ string, deps Deps) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return nil, fmt.Errorf("vector_store type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store type: %s", typ)
	}
	return factory(deps)
}
