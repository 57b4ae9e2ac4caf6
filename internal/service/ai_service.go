package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/filestore"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/pkg/ids"
)

// DiagramResult carries either Mermaid text or the storage key of a
// rendered image, never both.
type DiagramResult struct {
	Mermaid  string `json:"mermaid,omitempty"`
	ImageKey string `json:"image_key,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Provider string `json:"provider"`
	Mock     bool   `json:"mock"`
}

type RoadmapResult struct {
	Roadmap  *model.Roadmap `json:"roadmap"`
	Provider string         `json:"provider"`
	Mock     bool           `json:"mock"`
}

type ResourcesResult struct {
	Resources []model.Resource `json:"resources"`
	Provider  string           `json:"provider"`
	Mock      bool             `json:"mock"`
}

// AIService fronts the generation chains with an answer cache; study
// material rarely changes between repeated requests for the same
// artifact.
type AIService struct {
	manager *ai.Manager
	files   filestore.Store
	cache   *expirable.LRU[string, string]
}

func NewAIService(manager *ai.Manager, files filestore.Store) *AIService {
	return &AIService{
		manager: manager,
		files:   files,
		cache:   expirable.NewLRU[string, string](10000, nil, 2*time.Hour),
	}
}

// Diagram always tries the image chain first and falls back to Mermaid
// text; with no image providers configured the text chain answers
// directly.
func (s *AIService) Diagram(ctx context.Context, content string, diagramType string) (*DiagramResult, error) {
	content, err := s.cleanInput(content)
	if err != nil {
		return nil, err
	}
	cacheKey := buildAnswerKey("diagram", diagramType, content)
	var cached DiagramResult
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}
	logger := logutil.GetLogger(ctx)
	img, verr := s.manager.VisualDiagram(ctx, content, diagramType)
	if verr == nil {
		key, serr := s.saveImage(ctx, img)
		if serr == nil {
			result := &DiagramResult{ImageKey: key, MimeType: img.MimeType, Provider: img.Provider}
			s.cachePut(cacheKey, result)
			return result, nil
		}
		logger.Warn("save diagram image failed, falling back to text", zap.Error(serr))
	} else if !appErr.IsUnconfigured(verr) {
		logger.Warn("visual diagram failed, falling back to text", zap.Error(verr))
	}
	res, err := s.manager.Diagram(ctx, content, diagramType)
	if err != nil {
		return nil, err
	}
	result := &DiagramResult{Mermaid: res.Text, Provider: res.Provider, Mock: res.Mock}
	s.cachePut(cacheKey, result)
	return result, nil
}

func (s *AIService) Roadmap(ctx context.Context, content string, duration string) (*RoadmapResult, error) {
	content, err := s.cleanInput(content)
	if err != nil {
		return nil, err
	}
	cacheKey := buildAnswerKey("roadmap", duration, content)
	var cached RoadmapResult
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}
	roadmap, res, err := s.manager.Roadmap(ctx, content, duration)
	if err != nil {
		return nil, err
	}
	result := &RoadmapResult{Roadmap: roadmap, Provider: res.Provider, Mock: res.Mock}
	s.cachePut(cacheKey, result)
	return result, nil
}

func (s *AIService) Resources(ctx context.Context, content string, count int) (*ResourcesResult, error) {
	content, err := s.cleanInput(content)
	if err != nil {
		return nil, err
	}
	cacheKey := buildAnswerKey("resources", fmt.Sprintf("%d", count), content)
	var cached ResourcesResult
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}
	resources, res, err := s.manager.Resources(ctx, content, count)
	if err != nil {
		return nil, err
	}
	result := &ResourcesResult{Resources: resources, Provider: res.Provider, Mock: res.Mock}
	s.cachePut(cacheKey, result)
	return result, nil
}

func (s *AIService) saveImage(ctx context.Context, img *ai.ImageResult) (string, error) {
	if s.files == nil {
		return "", fmt.Errorf("%w: no file store", appErr.ErrUnconfigured)
	}
	ext := ".png"
	if strings.Contains(img.MimeType, "jpeg") {
		ext = ".jpg"
	}
	key := "diagram_" + ids.NewFileID() + ext
	if err := s.files.Save(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		return "", err
	}
	return key, nil
}

func (s *AIService) cleanInput(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: content is required", appErr.ErrInvalid)
	}
	max := s.manager.MaxInputChars()
	if max > 0 {
		runes := []rune(content)
		if len(runes) > max {
			content = string(runes[:max])
		}
	}
	return content, nil
}

func (s *AIService) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	raw, ok := s.cache.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logutil.GetLogger(ctx).Warn("decode cached answer failed", zap.Error(err))
		s.cache.Remove(key)
		return false
	}
	return true
}

func (s *AIService) cachePut(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.cache.Add(key, string(raw))
}

func buildAnswerKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}
