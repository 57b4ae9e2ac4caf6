package ai

import (
	"context"
	"fmt"
	"strings"
)

// IProvider is a text-generation vendor. One provider instance serves
// every capability; the model is chosen per chain entry.
type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// IEmbedProvider is an embedding vendor. Dimension reports the fixed
// output dimension of the given model so callers can guard against
// mixing vectors from different providers.
type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
	Dimension(model string) int
}

// IImageProvider renders a diagram prompt into image bytes.
type IImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, model string, prompt string) ([]byte, string, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
	Dimension() int
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt)
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

func (e *embedder) Dimension() int {
	return e.provider.Dimension(e.model)
}

type (
	ProviderFactory      func(args interface{}) (IProvider, error)
	EmbedProviderFactory func(args interface{}) (IEmbedProvider, error)
	ImageProviderFactory func(args interface{}) (IImageProvider, error)
)

var (
	registry      = map[string]ProviderFactory{}
	embedRegistry = map[string]EmbedProviderFactory{}
	imageRegistry = map[string]ImageProviderFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := registryKey(name)
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterEmbed(name string, factory EmbedProviderFactory) {
	key := registryKey(name)
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func RegisterImage(name string, factory ImageProviderFactory) {
	key := registryKey(name)
	if key == "" || factory == nil {
		return
	}
	imageRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	factory := registry[registryKey(name)]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	factory := embedRegistry[registryKey(name)]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embedding provider: %s", name)
	}
	return factory(args)
}

func NewImageProvider(name string, args interface{}) (IImageProvider, error) {
	factory := imageRegistry[registryKey(name)]
	if factory == nil {
		return nil, fmt.Errorf("unsupported image provider: %s", name)
	}
	return factory(args)
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
