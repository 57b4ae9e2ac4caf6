package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store, err := New("memory", Deps{})
	require.NoError(t, err)
	require.Equal(t, "memory", store.Mode())
	ctx := context.Background()

	items := []*model.ChunkEmbedding{
		{FileID: "f1", ChunkIndex: 1, Content: "second", Embedding: []float32{0, 1}, Ctime: 200},
		{FileID: "f1", ChunkIndex: 0, Content: "first", Embedding: []float32{1, 0}, Ctime: 100},
		{FileID: "f2", ChunkIndex: 0, Content: "other", Embedding: []float32{1, 1}, Ctime: 300},
	}
	require.NoError(t, store.Store(ctx, items))
	for _, item := range items {
		require.NotZero(t, item.ID)
	}

	byFile, err := store.QueryByFile(ctx, "f1", 10)
	require.NoError(t, err)
	require.Len(t, byFile, 2)
	require.Equal(t, "first", byFile[0].Content)
	require.Equal(t, "second", byFile[1].Content)

	all, err := store.Query(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "other", all[0].Content) // newest first

	stats, err := store.StatsByFile(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalEmbeddings)
	require.Equal(t, int64(100), stats.FirstCtime)
	require.Equal(t, int64(200), stats.LastCtime)

	removed, err := store.DeleteByFile(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
	byFile, err = store.QueryByFile(ctx, "f1", 10)
	require.NoError(t, err)
	require.Empty(t, byFile)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store, err := New("memory", Deps{})
	require.NoError(t, err)
	ctx := context.Background()
	item := &model.ChunkEmbedding{FileID: "f1", Content: "original", Embedding: []float32{1, 0}}
	require.NoError(t, store.Store(ctx, []*model.ChunkEmbedding{item}))

	// mutating the caller's copy must not leak into the store
	item.Content = "mutated"
	item.Embedding[0] = 9

	got, err := store.QueryByFile(ctx, "f1", 1)
	require.NoError(t, err)
	require.Equal(t, "original", got[0].Content)
	require.Equal(t, float32(1), got[0].Embedding[0])
}

func TestMockStoreSeeded(t *testing.T) {
	store, err := New("mock", Deps{})
	require.NoError(t, err)
	require.Equal(t, "mock", store.Mode())

	seeded, err := store.Query(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, seeded, 1)
	require.Equal(t, "mock-file", seeded[0].FileID)
	require.NotEmpty(t, seeded[0].Embedding)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New("bolt", Deps{})
	require.Error(t, err)
	_, err = New("", Deps{})
	require.Error(t, err)
}
