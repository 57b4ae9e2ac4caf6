package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

func testCoreConfig() config.CoreConfig {
	return config.CoreConfig{
		ChunkSize:        500,
		BatchSize:        5,
		MaxChunksPerFile: 20,
		MinSimilarity:    0.7,
		ResultLimit:      5,
		GlobalQueryLimit: 200,
		HistoryLimit:     5,
	}
}

func TestCosineSimilarity(t *testing.T) {
	v := []float32{0.6, 0.8}
	require.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-9)
	require.InDelta(t, -1.0, cosineSimilarity(v, []float32{-0.6, -0.8}), 1e-9)
	require.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, v))
	require.Equal(t, 0.0, cosineSimilarity(v, []float32{0, 0}))
	// symmetric
	a := []float32{0.1, 0.5, 0.3}
	b := []float32{0.9, 0.2, 0.4}
	require.InDelta(t, cosineSimilarity(a, b), cosineSimilarity(b, a), 1e-12)
}

func TestRankFiltersSortsAndLimits(t *testing.T) {
	candidates := []*model.ChunkEmbedding{
		{Content: "exact", Embedding: []float32{1, 0}},
		{Content: "close", Embedding: []float32{0.9, 0.1}},
		{Content: "far", Embedding: []float32{0, 1}},
		{Content: "negative", Embedding: []float32{-1, 0}},
	}
	matches := rank(candidates, []float32{1, 0}, 0.7, 5)
	require.Len(t, matches, 2)
	require.Equal(t, "exact", matches[0].Content)
	require.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	require.Equal(t, "close", matches[1].Content)

	limited := rank(candidates, []float32{1, 0}, 0.0, 1)
	require.Len(t, limited, 1)
	require.Equal(t, "exact", limited[0].Content)
}

func TestRankSkipsDimensionMismatch(t *testing.T) {
	candidates := []*model.ChunkEmbedding{
		{Content: "other provider", Embedding: []float32{1, 0, 0}},
		{Content: "same provider", Embedding: []float32{1, 0}},
	}
	matches := rank(candidates, []float32{1, 0}, 0.0, 5)
	require.Len(t, matches, 1)
	require.Equal(t, "same provider", matches[0].Content)
}

func TestSearchAgainstMemoryStore(t *testing.T) {
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, []*model.ChunkEmbedding{
		{FileID: "f1", ChunkIndex: 0, Content: "match", Embedding: []float32{1, 0}},
		{FileID: "f1", ChunkIndex: 1, Content: "miss", Embedding: []float32{0, 1}},
		{FileID: "f2", ChunkIndex: 0, Content: "other file", Embedding: []float32{1, 0}},
	}))

	svc := NewRetrievalService(store, testCoreConfig())
	matches, err := svc.Search(ctx, []float32{1, 0}, "f1", nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "match", matches[0].Content)

	// cross-file search sees both matching chunks
	all, err := svc.Search(ctx, []float32{1, 0}, "", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSearchRejectsEmptyVector(t *testing.T) {
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	svc := NewRetrievalService(store, testCoreConfig())
	_, err = svc.Search(context.Background(), nil, "f1", nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSearchOptionOverrides(t *testing.T) {
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, []*model.ChunkEmbedding{
		{FileID: "f1", ChunkIndex: 0, Content: "strong", Embedding: []float32{1, 0}},
		{FileID: "f1", ChunkIndex: 1, Content: "weak", Embedding: []float32{0.5, 0.87}},
	}))
	svc := NewRetrievalService(store, testCoreConfig())

	floor := 0.0
	matches, err := svc.Search(ctx, []float32{1, 0}, "f1", &SearchOptions{MinSimilarity: &floor})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	matches, err = svc.Search(ctx, []float32{1, 0}, "f1", &SearchOptions{MinSimilarity: &floor, Limit: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "strong", matches[0].Content)
}
