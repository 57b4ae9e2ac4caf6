package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/model"
	"github.com/studyforge/studyforge/internal/pkg/errcode"
	"github.com/studyforge/studyforge/internal/pkg/response"
	"github.com/studyforge/studyforge/internal/service"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

// VectorAI is the slice of the AI layer the vector endpoints need:
// embedding plain text queries server-side plus chain introspection.
type VectorAI interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbeddingModelName() string
	EmbeddingDimension() int
}

// VectorHandler exposes the vector gateway. Callers send plain text;
// chunking and embedding happen server-side. Pre-computed vectors are
// accepted as an alternative for both storage and query.
type VectorHandler struct {
	store     vectorstore.Store
	retrieval *service.RetrievalService
	ingest    *service.IngestService
	aiMgr     VectorAI
}

func NewVectorHandler(store vectorstore.Store, retrieval *service.RetrievalService, ingest *service.IngestService, aiMgr VectorAI) *VectorHandler {
	return &VectorHandler{store: store, retrieval: retrieval, ingest: ingest, aiMgr: aiMgr}
}

type storeChunk struct {
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	Content     string            `json:"content"`
	Embedding   []float32         `json:"embedding"`
	Metadata    map[string]string `json:"metadata"`
}

type storeRequest struct {
	FileID   string            `json:"file_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	// Chunks carries already-embedded vectors, bypassing the server-side
	// chunk and embed pipeline.
	Chunks []storeChunk `json:"chunks"`
}

type queryRequest struct {
	Query         string    `json:"query"`
	Embedding     []float32 `json:"embedding"`
	FileID        string    `json:"file_id"`
	Limit         int       `json:"limit"`
	MinSimilarity *float64  `json:"min_similarity"`
}

func (h *VectorHandler) Store(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.FileID == "" {
		response.Error(c, errcode.ErrInvalid, "file_id is required")
		return
	}
	if req.Text != "" {
		report, err := h.ingest.Ingest(c.Request.Context(), req.FileID, req.Metadata["filename"], req.Text)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, report)
		return
	}
	if len(req.Chunks) == 0 {
		response.Error(c, errcode.ErrInvalid, "text or chunks are required")
		return
	}
	now := time.Now().UnixMilli()
	items := make([]*model.ChunkEmbedding, 0, len(req.Chunks))
	for _, chunk := range req.Chunks {
		if len(chunk.Embedding) == 0 {
			response.Error(c, errcode.ErrInvalid, "chunk embedding is required")
			return
		}
		items = append(items, &model.ChunkEmbedding{
			FileID:      req.FileID,
			ChunkIndex:  chunk.ChunkIndex,
			TotalChunks: chunk.TotalChunks,
			Content:     chunk.Content,
			Embedding:   chunk.Embedding,
			Metadata:    chunk.Metadata,
			Ctime:       now,
		})
	}
	if err := h.store.Store(c.Request.Context(), items); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"stored": len(items)})
}

func (h *VectorHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	vec := req.Embedding
	if req.Query != "" {
		var err error
		vec, err = h.aiMgr.Embed(c.Request.Context(), req.Query, "retrieval_query")
		if err != nil {
			handleError(c, err)
			return
		}
	}
	if len(vec) == 0 {
		response.Error(c, errcode.ErrInvalid, "query or embedding is required")
		return
	}
	matches, err := h.retrieval.Search(c.Request.Context(), vec, req.FileID, &service.SearchOptions{
		MinSimilarity: req.MinSimilarity,
		Limit:         req.Limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"matches": matches})
}

func (h *VectorHandler) Stats(c *gin.Context) {
	stats, err := h.store.StatsByFile(c.Request.Context(), c.Param("file_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *VectorHandler) DeleteByFile(c *gin.Context) {
	deleted, err := h.store.DeleteByFile(c.Request.Context(), c.Param("file_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}

func (h *VectorHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":          "ok",
		"vector_store":    h.store.Mode(),
		"embedding_model": h.aiMgr.EmbeddingModelName(),
		"embedding_dim":   h.aiMgr.EmbeddingDimension(),
	})
}
