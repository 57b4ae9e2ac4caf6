package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

type ImageEntry struct {
	Name     string
	Model    string
	Provider IImageProvider
}

// ImageResult is a rendered visual diagram before storage.
type ImageResult struct {
	Data     []byte
	MimeType string
	Provider string
}

// Manager holds one fallback chain per generation capability plus the
// embedding chain. Construction happens once at startup from explicit
// configuration; nothing in here reads the environment.
type Manager struct {
	diagram   *GroupGenerator
	roadmap   *GroupGenerator
	resources *GroupGenerator
	chat      *GroupGenerator
	images    []ImageEntry
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(
	diagram *GroupGenerator,
	roadmap *GroupGenerator,
	resources *GroupGenerator,
	chat *GroupGenerator,
	images []ImageEntry,
	embedder IEmbedder,
	cfg ManagerConfig,
) *Manager {
	return &Manager{
		diagram:   diagram,
		roadmap:   roadmap,
		resources: resources,
		chat:      chat,
		images:    images,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder: %w", appErr.ErrUnconfigured)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func (m *Manager) EmbeddingDimension() int {
	if m.embedder == nil {
		return 0
	}
	return m.embedder.Dimension()
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

// Diagram produces Mermaid syntax for the given content.
func (m *Manager) Diagram(ctx context.Context, content string, diagramType string) (*GenResult, error) {
	if m.diagram == nil {
		return nil, fmt.Errorf("diagram generator: %w", appErr.ErrUnconfigured)
	}
	if diagramType == "" {
		diagramType = "flowchart"
	}
	prompt := fmt.Sprintf(`Create a Mermaid.js %s diagram for the following content.
Return ONLY the Mermaid syntax, no additional text or formatting.
- Use flowchart TD format.
- Include 6-10 nodes maximum.
- Add styling with colors.
- Make it educational and clear.
- Focus on main concepts and relationships.

Content: %s`, diagramType, content)
	return m.generate(ctx, m.diagram, prompt)
}

// VisualDiagram walks the image chain. Callers treat any error as a cue
// to fall back to the text Diagram chain; a success short-circuits it.
func (m *Manager) VisualDiagram(ctx context.Context, content string, diagramType string) (*ImageResult, error) {
	if len(m.images) == 0 {
		return nil, fmt.Errorf("image generator: %w", appErr.ErrUnconfigured)
	}
	if diagramType == "" {
		diagramType = "flowchart"
	}
	prompt := fmt.Sprintf(`Generate a professional %s diagram visualizing this content: %s
Requirements:
- Clean, minimalist design
- 6-10 key concepts
- Icons and color coding
- High-quality PNG output`, diagramType, content)

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	logger := logutil.GetLogger(ctx)
	var lastErr error
	for _, entry := range m.images {
		if entry.Provider == nil {
			continue
		}
		data, mime, err := entry.Provider.GenerateImage(ctx, entry.Model, prompt)
		if err == nil {
			return &ImageResult{Data: data, MimeType: mime, Provider: entry.Name}, nil
		}
		lastErr = err
		logger.Warn("image variant failed", zap.String("name", entry.Name), zap.Error(err))
	}
	if lastErr == nil {
		return nil, fmt.Errorf("image generator: %w", appErr.ErrUnconfigured)
	}
	return nil, lastErr
}

// Roadmap returns the parsed learning plan plus the variant tag.
func (m *Manager) Roadmap(ctx context.Context, content string, duration string) (*model.Roadmap, *GenResult, error) {
	if m.roadmap == nil {
		return nil, nil, fmt.Errorf("roadmap generator: %w", appErr.ErrUnconfigured)
	}
	if duration == "" {
		duration = "6 weeks"
	}
	prompt := fmt.Sprintf(`Create a learning roadmap for %s based on this content.
Return a JSON object with this exact structure:
{
  "labels": ["Week 1: Topic", "Week 2: Topic"],
  "datasets": [{
    "label": "Progress",
    "data": [0, 20, 40, 60, 80, 100],
    "backgroundColor": "rgba(59, 130, 246, 0.1)",
    "borderColor": "rgb(59, 130, 246)",
    "borderWidth": 2,
    "fill": true
  }]
}

Content: %s

Create exactly 6 weeks of learning progression. Return ONLY the JSON, no additional text.`, duration, content)
	res, err := m.generate(ctx, m.roadmap, prompt)
	if err != nil {
		return nil, nil, err
	}
	roadmap, err := parseRoadmap(res.Text)
	if err != nil {
		// the chain validator already accepted this output
		return nil, nil, fmt.Errorf("%w: %v", appErr.ErrValidation, err)
	}
	return roadmap, res, nil
}

// Resources returns the parsed resource list plus the variant tag.
func (m *Manager) Resources(ctx context.Context, content string, count int) ([]model.Resource, *GenResult, error) {
	if m.resources == nil {
		return nil, nil, fmt.Errorf("resources generator: %w", appErr.ErrUnconfigured)
	}
	if count <= 0 {
		count = 6
	}
	prompt := fmt.Sprintf(`Generate %d educational resources for learning about this content.
Return a JSON array with this exact structure:
[
  {
    "id": 1,
    "title": "Resource Title",
    "type": "article|video|course|book|tutorial",
    "description": "Brief description",
    "url": "https://example.com",
    "difficulty": "beginner|intermediate|advanced",
    "duration": "10 min|2 hours|etc"
  }
]

Content: %s

Make resources diverse (articles, videos, courses, books, tutorials).
Return ONLY the JSON array, no additional text.`, count, content)
	res, err := m.generate(ctx, m.resources, prompt)
	if err != nil {
		return nil, nil, err
	}
	resources, err := parseResources(res.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", appErr.ErrValidation, err)
	}
	if len(resources) > count {
		resources = resources[:count]
	}
	return resources, res, nil
}

// Chat answers a student message, optionally grounded on retrieved
// document context and recent history.
func (m *Manager) Chat(ctx context.Context, message string, docContext string, history []*model.ChatMessage) (*GenResult, error) {
	if m.chat == nil {
		return nil, fmt.Errorf("chat generator: %w", appErr.ErrUnconfigured)
	}
	var sb strings.Builder
	sb.WriteString("You are an AI tutor. Help the student with their question.\n\n")
	if docContext != "" {
		sb.WriteString("Context from uploaded files:\n")
		sb.WriteString(docContext)
		sb.WriteString("\n\n")
	}
	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, turn := range history {
			sb.WriteString("Student: ")
			sb.WriteString(turn.UserMessage)
			sb.WriteString("\nTutor: ")
			sb.WriteString(turn.AIResponse)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Student question: ")
	sb.WriteString(message)
	sb.WriteString("\n\nProvide a helpful, educational response. Be encouraging and clear.")
	return m.generate(ctx, m.chat, sb.String())
}

func (m *Manager) generate(ctx context.Context, group *GroupGenerator, prompt string) (*GenResult, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	res, err := group.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	res.Text = strings.TrimSpace(res.Text)
	if res.Text == "" {
		return nil, fmt.Errorf("empty ai response")
	}
	return res, nil
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return ctx, func() {}
}

// ValidateNonEmpty rejects blank output.
func ValidateNonEmpty(output string) error {
	if strings.TrimSpace(output) == "" {
		return fmt.Errorf("empty output")
	}
	return nil
}

// ValidateRoadmapJSON is the per-variant shape check for the roadmap
// chain: output must parse into a non-empty labels/datasets object.
func ValidateRoadmapJSON(output string) error {
	_, err := parseRoadmap(output)
	return err
}

// ValidateResourcesJSON is the per-variant shape check for the
// resources chain.
func ValidateResourcesJSON(output string) error {
	_, err := parseResources(output)
	return err
}

func parseRoadmap(output string) (*model.Roadmap, error) {
	clean := extractJSON(output, '{', '}')
	var roadmap model.Roadmap
	if err := json.Unmarshal([]byte(clean), &roadmap); err != nil {
		return nil, fmt.Errorf("parse roadmap: %w", err)
	}
	if len(roadmap.Labels) == 0 {
		return nil, fmt.Errorf("roadmap has no labels")
	}
	if len(roadmap.Datasets) == 0 || len(roadmap.Datasets[0].Data) == 0 {
		return nil, fmt.Errorf("roadmap has no datasets")
	}
	return &roadmap, nil
}

func parseResources(output string) ([]model.Resource, error) {
	clean := extractJSON(output, '[', ']')
	var resources []model.Resource
	if err := json.Unmarshal([]byte(clean), &resources); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("no resources found")
	}
	for i, r := range resources {
		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.URL) == "" {
			return nil, fmt.Errorf("resource %d missing title or url", i)
		}
	}
	return resources, nil
}

// extractJSON strips markdown fences and surrounding prose so fenced or
// chatty vendor output still parses.
func extractJSON(output string, open, closing byte) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.IndexByte(clean, open)
	end := strings.LastIndexByte(clean, closing)
	if start >= 0 && end > start {
		return clean[start : end+1]
	}
	return clean
}
