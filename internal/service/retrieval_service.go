package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

// SearchOptions override the configured ranking defaults per call.
type SearchOptions struct {
	MinSimilarity *float64
	Limit         int
}

type RetrievalService struct {
	store vectorstore.Store
	cfg   config.CoreConfig
}

func NewRetrievalService(store vectorstore.Store, cfg config.CoreConfig) *RetrievalService {
	return &RetrievalService{store: store, cfg: cfg}
}

// Search ranks stored chunks against the query vector. An empty fileID
// searches across all files under the global candidate cap.
func (s *RetrievalService) Search(ctx context.Context, queryVec []float32, fileID string, opt *SearchOptions) ([]*model.Match, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", appErr.ErrInvalid)
	}
	var (
		candidates []*model.ChunkEmbedding
		err        error
	)
	if fileID != "" {
		candidates, err = s.store.QueryByFile(ctx, fileID, s.cfg.GlobalQueryLimit)
	} else {
		candidates, err = s.store.Query(ctx, s.cfg.GlobalQueryLimit)
	}
	if err != nil {
		return nil, err
	}
	minSim := s.cfg.MinSimilarity
	limit := s.cfg.ResultLimit
	if opt != nil {
		if opt.MinSimilarity != nil {
			minSim = *opt.MinSimilarity
		}
		if opt.Limit > 0 {
			limit = opt.Limit
		}
	}
	return rank(candidates, queryVec, minSim, limit), nil
}

// rank scores candidates by cosine similarity, drops those below the
// floor and returns the best matches in descending order. Candidates
// whose dimension differs from the query (records embedded by another
// provider) never rank.
func rank(candidates []*model.ChunkEmbedding, queryVec []float32, minSimilarity float64, limit int) []*model.Match {
	matches := make([]*model.Match, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) != len(queryVec) {
			continue
		}
		sim := cosineSimilarity(queryVec, c.Embedding)
		if sim < minSimilarity {
			continue
		}
		matches = append(matches, &model.Match{
			Content:    c.Content,
			Similarity: sim,
			Metadata:   c.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// cosineSimilarity returns 0 when either vector has zero norm.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
