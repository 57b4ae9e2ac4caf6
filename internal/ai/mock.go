package ai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strconv"
)

// Capability names the generation surfaces that carry their own
// fallback chain.
type Capability string

const (
	CapabilityDiagram   Capability = "diagram"
	CapabilityRoadmap   Capability = "roadmap"
	CapabilityResources Capability = "resources"
	CapabilityChat      Capability = "chat"
)

const MockProviderName = "mock"

// DefaultMockEmbeddingDim is deliberately distinct from any real vendor
// dimension so mock vectors never rank against real ones.
const DefaultMockEmbeddingDim = 256

const mockDiagram = `flowchart TD
    A[Main Topic] --> B[Key Concept 1]
    A --> C[Key Concept 2]
    A --> D[Key Concept 3]
    B --> E[Subtopic 1.1]
    B --> F[Subtopic 1.2]
    C --> G[Subtopic 2.1]
    C --> H[Subtopic 2.2]
    D --> I[Subtopic 3.1]
    D --> J[Subtopic 3.2]
    style A fill:#3b82f6,stroke:#1e40af,stroke-width:3px,color:#fff`

const mockRoadmap = `{
  "labels": ["Week 1", "Week 2", "Week 3", "Week 4", "Week 5", "Week 6"],
  "datasets": [{
    "label": "Learning Progress",
    "data": [0, 20, 35, 50, 70, 85],
    "borderColor": "rgb(59, 130, 246)",
    "backgroundColor": "rgba(59, 130, 246, 0.1)",
    "tension": 0.4,
    "fill": true
  }]
}`

const mockResources = `[
  {"id": 1, "title": "Getting Started Guide", "type": "article", "description": "An introductory overview of the topic.", "url": "https://example.com/guide", "difficulty": "beginner", "duration": "15 min"},
  {"id": 2, "title": "Core Concepts Video Series", "type": "video", "description": "Walkthrough of the main ideas.", "url": "https://example.com/videos", "difficulty": "beginner", "duration": "2 hours"},
  {"id": 3, "title": "Hands-on Tutorial", "type": "tutorial", "description": "Practice the material step by step.", "url": "https://example.com/tutorial", "difficulty": "intermediate", "duration": "1 hour"},
  {"id": 4, "title": "Reference Handbook", "type": "book", "description": "In-depth treatment for later study.", "url": "https://example.com/book", "difficulty": "advanced", "duration": "10 hours"}
]`

const mockChatReply = "I'm answering from built-in material right now, so I can't see your document. " +
	"Here's a general approach: break the topic into its main concepts, work through one concrete example per concept, " +
	"and come back with a specific question once a step feels unclear."

// mockGenerator is the guaranteed terminal chain variant. It never
// fails and its output is fixed per capability, so tests are repeatable.
type mockGenerator struct {
	capability Capability
}

func NewMockGenerator(capability Capability) IGenerator {
	return &mockGenerator{capability: capability}
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	switch m.capability {
	case CapabilityRoadmap:
		return mockRoadmap, nil
	case CapabilityResources:
		return mockResources, nil
	case CapabilityChat:
		return mockChatReply, nil
	default:
		return mockDiagram, nil
	}
}

// mockEmbedder derives a unit vector from a hash of the input. Equal
// texts always embed identically; no randomness anywhere.
type mockEmbedder struct {
	dim int
}

func NewMockEmbedder(dim int) IEmbedder {
	if dim <= 0 {
		dim = DefaultMockEmbeddingDim
	}
	return &mockEmbedder{dim: dim}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	_ = ctx
	_ = taskType
	values := make([]float32, m.dim)
	var norm float64
	block := make([]byte, 0, sha256.Size)
	for i := 0; i < m.dim; i++ {
		if i%8 == 0 {
			sum := sha256.Sum256([]byte(text + "#" + strconv.Itoa(i/8)))
			block = sum[:]
		}
		bits := binary.BigEndian.Uint32(block[(i%8)*4 : (i%8)*4+4])
		// map to [-1, 1]
		v := float64(bits)/float64(math.MaxUint32)*2 - 1
		values[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range values {
			values[i] *= scale
		}
	}
	return values, nil
}

func (m *mockEmbedder) ModelName() string {
	return "mock-embedding"
}

func (m *mockEmbedder) Dimension() int {
	return m.dim
}
