package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/config"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

type stubEmbedder struct {
	failOn map[string]bool
	calls  int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	s.calls++
	for prefix := range s.failOn {
		if strings.HasPrefix(text, prefix) {
			return nil, fmt.Errorf("embed refused: %s", prefix)
		}
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) EmbeddingModelName() string { return "stub-embedding" }

// tenChunkText builds ten sentences that each become their own chunk at
// the given size.
func tenChunkText() (string, config.CoreConfig) {
	bodies := make([]string, 10)
	for i := range bodies {
		bodies[i] = fmt.Sprintf("c%d %s", i, strings.Repeat("x", 12))
	}
	cfg := testCoreConfig()
	cfg.ChunkSize = 16
	cfg.BatchDelayMS = -1 // no inter-batch pause in tests
	return strings.Join(bodies, ". ") + ".", cfg
}

func TestIngestPartialFailure(t *testing.T) {
	text, cfg := tenChunkText()
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	embedder := &stubEmbedder{failOn: map[string]bool{"c3": true, "c7": true}}
	svc := NewIngestService(embedder, store, cfg)

	report, err := svc.Ingest(context.Background(), "file-1", "notes.txt", text)
	require.NoError(t, err)
	require.Equal(t, 10, report.TotalChunks)
	require.Equal(t, 10, report.Processed)
	require.False(t, report.Truncated)
	require.Equal(t, []int{0, 1, 2, 4, 5, 6, 8, 9}, report.Succeeded)
	require.Len(t, report.Failed, 2)
	require.Equal(t, 3, report.Failed[0].Index)
	require.Equal(t, 7, report.Failed[1].Index)

	stored, err := store.QueryByFile(context.Background(), "file-1", 100)
	require.NoError(t, err)
	require.Len(t, stored, 8)
	for _, chunk := range stored {
		require.Equal(t, "notes.txt", chunk.Metadata["filename"])
		require.Equal(t, "stub-embedding", chunk.Metadata["model"])
		require.Equal(t, 10, chunk.TotalChunks)
	}
}

func TestIngestAllSucceed(t *testing.T) {
	text, cfg := tenChunkText()
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	svc := NewIngestService(&stubEmbedder{}, store, cfg)

	report, err := svc.Ingest(context.Background(), "file-2", "notes.txt", text)
	require.NoError(t, err)
	require.Empty(t, report.Failed)
	require.Len(t, report.Succeeded, 10)
}

func TestIngestCapsChunkCount(t *testing.T) {
	text, cfg := tenChunkText()
	cfg.MaxChunksPerFile = 4
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	svc := NewIngestService(&stubEmbedder{}, store, cfg)

	report, err := svc.Ingest(context.Background(), "file-3", "notes.txt", text)
	require.NoError(t, err)
	require.True(t, report.Truncated)
	require.Equal(t, 10, report.TotalChunks)
	require.Equal(t, 4, report.Processed)
	require.Equal(t, []int{0, 1, 2, 3}, report.Succeeded)
}

func TestIngestRejectsEmptyText(t *testing.T) {
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	svc := NewIngestService(&stubEmbedder{}, store, testCoreConfig())
	_, err = svc.Ingest(context.Background(), "file-4", "notes.txt", "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
