package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

// EmbeddingRepo owns the chunk_embeddings table. Queries stay raw SQL
// because pgvector values do not go through the query builder.
type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) InsertBatch(ctx context.Context, items []*model.ChunkEmbedding) error {
	if len(items) == 0 {
		return nil
	}
	const query = `
		INSERT INTO chunk_embeddings (file_id, chunk_index, total_chunks, content, embedding, metadata, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin insert: %v", appErr.ErrStore, err)
	}
	defer tx.Rollback()
	for _, item := range items {
		meta, err := json.Marshal(metadataOrEmpty(item.Metadata))
		if err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, query,
			item.FileID,
			item.ChunkIndex,
			item.TotalChunks,
			item.Content,
			pgvector.NewVector(item.Embedding),
			meta,
			item.Ctime,
		)
		if err := row.Scan(&item.ID); err != nil {
			return fmt.Errorf("%w: insert chunk %d: %v", appErr.ErrStore, item.ChunkIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit insert: %v", appErr.ErrStore, err)
	}
	return nil
}

func (r *EmbeddingRepo) ListByFile(ctx context.Context, fileID string, limit int) ([]*model.ChunkEmbedding, error) {
	const query = `
		SELECT id, file_id, chunk_index, total_chunks, content, embedding, metadata, ctime
		FROM chunk_embeddings
		WHERE file_id = $1
		ORDER BY chunk_index ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, fileID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list chunks: %v", appErr.ErrStore, err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (r *EmbeddingRepo) ListAll(ctx context.Context, limit int) ([]*model.ChunkEmbedding, error) {
	const query = `
		SELECT id, file_id, chunk_index, total_chunks, content, embedding, metadata, ctime
		FROM chunk_embeddings
		ORDER BY ctime DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list chunks: %v", appErr.ErrStore, err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (r *EmbeddingRepo) DeleteByFile(ctx context.Context, fileID string) (int64, error) {
	const query = `DELETE FROM chunk_embeddings WHERE file_id = $1`
	res, err := r.db.ExecContext(ctx, query, fileID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete chunks: %v", appErr.ErrStore, err)
	}
	return res.RowsAffected()
}

// DeleteOrphans removes chunks whose owning file row is gone.
func (r *EmbeddingRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	const query = `
		DELETE FROM chunk_embeddings
		WHERE file_id NOT IN (SELECT id FROM study_files)
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: delete orphan chunks: %v", appErr.ErrStore, err)
	}
	return res.RowsAffected()
}

func (r *EmbeddingRepo) StatsByFile(ctx context.Context, fileID string) (*model.EmbeddingStats, error) {
	const query = `
		SELECT COUNT(*),
			COALESCE(AVG(LENGTH(content)), 0),
			COALESCE(MIN(ctime), 0),
			COALESCE(MAX(ctime), 0)
		FROM chunk_embeddings
		WHERE file_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, fileID)
	stats := &model.EmbeddingStats{FileID: fileID}
	var avg float64
	if err := row.Scan(&stats.TotalEmbeddings, &avg, &stats.FirstCtime, &stats.LastCtime); err != nil {
		return nil, fmt.Errorf("%w: chunk stats: %v", appErr.ErrStore, err)
	}
	stats.AvgChunkLength = int(avg)
	return stats, nil
}

func scanChunks(rows *sql.Rows) ([]*model.ChunkEmbedding, error) {
	var results []*model.ChunkEmbedding
	for rows.Next() {
		var item model.ChunkEmbedding
		var vec pgvector.Vector
		var meta []byte
		if err := rows.Scan(&item.ID, &item.FileID, &item.ChunkIndex, &item.TotalChunks, &item.Content, &vec, &meta, &item.Ctime); err != nil {
			return nil, fmt.Errorf("%w: scan chunk: %v", appErr.ErrStore, err)
		}
		item.Embedding = vec.Slice()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &item.Metadata); err != nil {
				return nil, fmt.Errorf("%w: decode chunk metadata: %v", appErr.ErrStore, err)
			}
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}

func metadataOrEmpty(meta map[string]string) map[string]string {
	if meta == nil {
		return map[string]string{}
	}
	return meta
}
