package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/repo"
)

// OrphanCleanupJob sweeps chunks whose file row disappeared, typically
// after a delete where the chunk cleanup step failed.
type OrphanCleanupJob struct {
	embeddings *repo.EmbeddingRepo
}

func NewOrphanCleanupJob(embeddings *repo.EmbeddingRepo) *OrphanCleanupJob {
	return &OrphanCleanupJob{embeddings: embeddings}
}

func (j *OrphanCleanupJob) Name() string {
	return "orphan_chunk_cleanup"
}

func (j *OrphanCleanupJob) Run(ctx context.Context) error {
	if j.embeddings == nil {
		return nil
	}
	removed, err := j.embeddings.DeleteOrphans(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("orphan chunks removed", zap.Int64("count", removed))
	}
	return nil
}
