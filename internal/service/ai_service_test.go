package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/ai"
)

type stubTextGen struct {
	out string
}

func (s *stubTextGen) Generate(ctx context.Context, prompt string) (string, error) {
	return s.out, nil
}

type stubImageProvider struct {
	err error
}

func (s *stubImageProvider) Name() string {
	return "stub-image"
}

func (s *stubImageProvider) GenerateImage(ctx context.Context, model string, prompt string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return []byte{0x89, 'P', 'N', 'G'}, "image/png", nil
}

type memBlobStore struct {
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.blobs[key] = data
	return nil
}

func (m *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no such blob: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Delete(ctx context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

func (m *memBlobStore) URL(key, baseURL string) string {
	return baseURL + "/assets/" + key
}

func (m *memBlobStore) Type() string {
	return "mem"
}

func newDiagramService(images []ai.ImageEntry, blobs *memBlobStore) *AIService {
	diagram := ai.NewGroupGenerator([]ai.GeneratorEntry{
		{Name: "stub", Generator: &stubTextGen{out: "graph TD; A-->B"}},
	}, ai.ValidateNonEmpty)
	manager := ai.NewManager(diagram, nil, nil, nil, images, ai.NewMockEmbedder(0), ai.ManagerConfig{})
	return NewAIService(manager, blobs)
}

func TestDiagramPrefersVisualChain(t *testing.T) {
	blobs := newMemBlobStore()
	svc := newDiagramService([]ai.ImageEntry{
		{Name: "stub-image", Model: "img-1", Provider: &stubImageProvider{}},
	}, blobs)

	res, err := svc.Diagram(context.Background(), "cell biology overview", "flowchart")
	require.NoError(t, err)
	require.NotEmpty(t, res.ImageKey)
	require.Equal(t, "image/png", res.MimeType)
	require.Empty(t, res.Mermaid)
	require.Contains(t, blobs.blobs, res.ImageKey)
}

func TestDiagramTextWithoutImageChain(t *testing.T) {
	svc := newDiagramService(nil, newMemBlobStore())

	res, err := svc.Diagram(context.Background(), "cell biology overview", "flowchart")
	require.NoError(t, err)
	require.Equal(t, "graph TD; A-->B", res.Mermaid)
	require.Empty(t, res.ImageKey)
}

func TestDiagramFallsBackWhenImageFails(t *testing.T) {
	svc := newDiagramService([]ai.ImageEntry{
		{Name: "stub-image", Model: "img-1", Provider: &stubImageProvider{err: fmt.Errorf("render failed")}},
	}, newMemBlobStore())

	res, err := svc.Diagram(context.Background(), "cell biology overview", "mindmap")
	require.NoError(t, err)
	require.Equal(t, "graph TD; A-->B", res.Mermaid)
	require.Empty(t, res.ImageKey)
}
