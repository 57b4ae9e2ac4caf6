package vectorstore

import (
	"context"
	"fmt"

	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/repo"
)

type pgStore struct {
	repo *repo.EmbeddingRepo
}

func newPgStore(deps Deps) (Store, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("%w: pg vector store needs a database", appErr.ErrUnconfigured)
	}
	return &pgStore{repo: repo.NewEmbeddingRepo(deps.DB)}, nil
}

func (s *pgStore) Store(ctx context.Context, items []*model.ChunkEmbedding) error {
	return s.repo.InsertBatch(ctx, items)
}

func (s *pgStore) QueryByFile(ctx context.Context, fileID string, limit int) ([]*model.ChunkEmbedding, error) {
	return s.repo.ListByFile(ctx, fileID, limit)
}

func (s *pgStore) Query(ctx context.Context, limit int) ([]*model.ChunkEmbedding, error) {
	return s.repo.ListAll(ctx, limit)
}

func (s *pgStore) DeleteByFile(ctx context.Context, fileID string) (int64, error) {
	return s.repo.DeleteByFile(ctx, fileID)
}

func (s *pgStore) StatsByFile(ctx context.Context, fileID string) (*model.EmbeddingStats, error) {
	return s.repo.StatsByFile(ctx, fileID)
}

func (s *pgStore) Mode() string {
	return "pg"
}

func init() {
	Register("pg", newPgStore)
}
