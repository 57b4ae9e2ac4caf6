package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/model"
)

func newTestManager(roadmapGen, resourcesGen, chatGen IGenerator) *Manager {
	wrap := func(gen IGenerator, validate Validator) *GroupGenerator {
		return NewGroupGenerator([]GeneratorEntry{{Name: "test", Generator: gen}}, validate)
	}
	return NewManager(
		wrap(NewMockGenerator(CapabilityDiagram), ValidateNonEmpty),
		wrap(roadmapGen, ValidateRoadmapJSON),
		wrap(resourcesGen, ValidateResourcesJSON),
		wrap(chatGen, ValidateNonEmpty),
		nil,
		NewMockEmbedder(0),
		ManagerConfig{Timeout: 5, MaxInputChars: 100000},
	)
}

func TestManagerRoadmapParsesFencedJSON(t *testing.T) {
	gen := &stubGenerator{output: "```json\n" + mockRoadmap + "\n```"}
	m := newTestManager(gen, NewMockGenerator(CapabilityResources), NewMockGenerator(CapabilityChat))

	roadmap, res, err := m.Roadmap(context.Background(), "cell biology", "")
	require.NoError(t, err)
	require.Equal(t, "test", res.Provider)
	require.Len(t, roadmap.Labels, 6)
	require.NotEmpty(t, roadmap.Datasets)
}

func TestManagerRoadmapRejectsBadShape(t *testing.T) {
	gen := &stubGenerator{output: `{"labels": [], "datasets": []}`}
	m := newTestManager(gen, NewMockGenerator(CapabilityResources), NewMockGenerator(CapabilityChat))

	_, _, err := m.Roadmap(context.Background(), "cell biology", "6 weeks")
	require.Error(t, err)
}

func TestManagerResourcesTruncatesToCount(t *testing.T) {
	m := newTestManager(
		NewMockGenerator(CapabilityRoadmap),
		NewMockGenerator(CapabilityResources),
		NewMockGenerator(CapabilityChat),
	)
	resources, _, err := m.Resources(context.Background(), "algebra", 2)
	require.NoError(t, err)
	require.Len(t, resources, 2)
}

func TestManagerResourcesRequireTitleAndURL(t *testing.T) {
	gen := &stubGenerator{output: `[{"id":1,"title":"","url":""}]`}
	m := newTestManager(NewMockGenerator(CapabilityRoadmap), gen, NewMockGenerator(CapabilityChat))

	_, _, err := m.Resources(context.Background(), "algebra", 3)
	require.Error(t, err)
}

func TestManagerChatIncludesContextAndHistory(t *testing.T) {
	var seenPrompt string
	gen := &promptCapture{reply: "answer", seen: &seenPrompt}
	m := newTestManager(NewMockGenerator(CapabilityRoadmap), NewMockGenerator(CapabilityResources), gen)

	history := []*model.ChatMessage{
		{UserMessage: "what is osmosis", AIResponse: "movement of water"},
	}
	res, err := m.Chat(context.Background(), "expand on that", "Osmosis chapter text.", history)
	require.NoError(t, err)
	require.Equal(t, "answer", res.Text)
	require.Contains(t, seenPrompt, "Osmosis chapter text.")
	require.Contains(t, seenPrompt, "what is osmosis")
	require.Contains(t, seenPrompt, "movement of water")
	require.Contains(t, seenPrompt, "expand on that")
}

func TestManagerEmbedUnconfigured(t *testing.T) {
	m := NewManager(nil, nil, nil, nil, nil, nil, ManagerConfig{})
	_, err := m.Embed(context.Background(), "text", "retrieval_query")
	require.Error(t, err)
}

func TestExtractJSONVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose", in: "Here you go: {\"a\":1} enjoy", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, extractJSON(tt.in, '{', '}'))
		})
	}
}

type promptCapture struct {
	reply string
	seen  *string
}

func (p *promptCapture) Generate(ctx context.Context, prompt string) (string, error) {
	*p.seen = prompt
	if p.reply == "" {
		return "", fmt.Errorf("no reply configured")
	}
	return p.reply, nil
}
