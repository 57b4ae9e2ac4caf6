package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

const embedTaskDocument = "retrieval_document"

// Embedder is the slice of the AI layer ingestion needs.
type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbeddingModelName() string
}

type IngestService struct {
	embedder Embedder
	store    vectorstore.Store
	cfg      config.CoreConfig
}

func NewIngestService(embedder Embedder, store vectorstore.Store, cfg config.CoreConfig) *IngestService {
	return &IngestService{embedder: embedder, store: store, cfg: cfg}
}

// Ingest chunks the text, embeds the chunks in small concurrent batches
// and stores the vectors. Individual chunk failures do not abort the
// run; they land in the report.
func (s *IngestService) Ingest(ctx context.Context, fileID string, filename string, text string) (*model.IngestReport, error) {
	chunks := ai.SplitSnippets(text, s.cfg.ChunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced", appErr.ErrInvalid)
	}
	report := &model.IngestReport{FileID: fileID, TotalChunks: len(chunks)}
	if s.cfg.MaxChunksPerFile > 0 && len(chunks) > s.cfg.MaxChunksPerFile {
		chunks = chunks[:s.cfg.MaxChunksPerFile]
		report.Truncated = true
	}
	report.Processed = len(chunks)

	logger := logutil.GetLogger(ctx)
	logger.Info("ingest start",
		zap.String("file_id", fileID),
		zap.Int("total_chunks", report.TotalChunks),
		zap.Int("processed", report.Processed),
	)

	now := time.Now().UnixMilli()
	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	for start := 0; start < len(chunks); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := s.embedBatch(ctx, chunks[start:end], start)
		var stored []*model.ChunkEmbedding
		for _, item := range batch {
			if item.err != nil {
				report.Failed = append(report.Failed, model.ChunkFailure{Index: item.index, Reason: item.err.Error()})
				continue
			}
			stored = append(stored, &model.ChunkEmbedding{
				FileID:      fileID,
				ChunkIndex:  item.index,
				TotalChunks: len(chunks),
				Content:     chunks[item.index],
				Embedding:   item.vector,
				Metadata: map[string]string{
					"filename":     filename,
					"chunk_length": strconv.Itoa(len(chunks[item.index])),
					"model":        s.embedder.EmbeddingModelName(),
				},
				Ctime: now,
			})
		}
		if len(stored) > 0 {
			if err := s.store.Store(ctx, stored); err != nil {
				for _, item := range stored {
					report.Failed = append(report.Failed, model.ChunkFailure{Index: item.ChunkIndex, Reason: err.Error()})
				}
				logger.Error("store batch failed", zap.String("file_id", fileID), zap.Error(err))
				stored = nil
			}
		}
		for _, item := range stored {
			report.Succeeded = append(report.Succeeded, item.ChunkIndex)
		}
		if end < len(chunks) && s.cfg.BatchDelayMS > 0 {
			select {
			case <-time.After(time.Duration(s.cfg.BatchDelayMS) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	sort.Ints(report.Succeeded)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Index < report.Failed[j].Index })

	logger.Info("ingest done",
		zap.String("file_id", fileID),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

type embedOutcome struct {
	index  int
	vector []float32
	err    error
}

// embedBatch runs one batch concurrently and returns outcomes in chunk
// order.
func (s *IngestService) embedBatch(ctx context.Context, batch []string, offset int) []embedOutcome {
	outcomes := make([]embedOutcome, len(batch))
	var wg sync.WaitGroup
	for i, content := range batch {
		wg.Add(1)
		go func(i int, content string) {
			defer wg.Done()
			vec, err := s.embedder.Embed(ctx, content, embedTaskDocument)
			outcomes[i] = embedOutcome{index: offset + i, vector: vec, err: err}
		}(i, content)
	}
	wg.Wait()
	return outcomes
}
