package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

// GenResult tags a chain success with the variant that produced it.
type GenResult struct {
	Text     string
	Provider string
	Mock     bool
}

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
	Mock      bool
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
	Mock     bool
}

// Validator checks a variant's raw output; a non-nil error counts as
// that variant's failure and the chain moves on.
type Validator func(output string) error

// GroupGenerator walks an ordered variant list until one succeeds.
// A transient failure earns the same variant a single retry before the
// chain advances. Only when every variant fails does the caller see an
// error, carrying the whole per-variant chain for diagnostics.
type GroupGenerator struct {
	items    []GeneratorEntry
	validate Validator
}

func NewGroupGenerator(items []GeneratorEntry, validate Validator) *GroupGenerator {
	return &GroupGenerator{items: items, validate: validate}
}

func (g *GroupGenerator) Generate(ctx context.Context, prompt string) (*GenResult, error) {
	logger := logutil.GetLogger(ctx)
	var chainErrs []error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		output, err := g.attempt(ctx, item.Generator, prompt)
		if err == nil {
			if item.Mock {
				logger.Warn("generation served by mock variant", zap.String("name", item.Name))
			}
			return &GenResult{Text: output, Provider: item.Name, Mock: item.Mock}, nil
		}
		chainErrs = append(chainErrs, fmt.Errorf("%s: %w", item.Name, err))
		logger.Warn("generator variant failed",
			zap.Int("index", i),
			zap.String("name", item.Name),
			zap.Error(err),
		)
	}
	if len(chainErrs) == 0 {
		return nil, fmt.Errorf("generator: %w", appErr.ErrUnconfigured)
	}
	return nil, errors.Join(chainErrs...)
}

func (g *GroupGenerator) attempt(ctx context.Context, gen IGenerator, prompt string) (string, error) {
	output, err := gen.Generate(ctx, prompt)
	if err != nil && retryable(err) {
		output, err = gen.Generate(ctx, prompt)
	}
	if err != nil {
		return "", err
	}
	if g.validate != nil {
		if verr := g.validate(output); verr != nil {
			return "", fmt.Errorf("%w: %v", appErr.ErrValidation, verr)
		}
	}
	return output, nil
}

// GroupEmbedder is the embedding counterpart; it satisfies IEmbedder so
// callers and caches see a single embedder.
type GroupEmbedder struct {
	items []EmbedderEntry
}

func NewGroupEmbedder(items []EmbedderEntry) *GroupEmbedder {
	return &GroupEmbedder{items: items}
}

func (g *GroupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	logger := logutil.GetLogger(ctx)
	var chainErrs []error
	for i, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		res, err := item.Embedder.Embed(ctx, text, taskType)
		if err != nil && retryable(err) {
			res, err = item.Embedder.Embed(ctx, text, taskType)
		}
		if err == nil {
			return res, nil
		}
		chainErrs = append(chainErrs, fmt.Errorf("%s: %w", item.Name, err))
		logger.Warn("embedder variant failed",
			zap.Int("index", i),
			zap.String("name", item.Name),
			zap.Error(err),
		)
	}
	if len(chainErrs) == 0 {
		return nil, fmt.Errorf("embedder: %w", appErr.ErrUnconfigured)
	}
	return nil, errors.Join(chainErrs...)
}

func (g *GroupEmbedder) ModelName() string {
	for _, item := range g.items {
		if item.Embedder != nil {
			return item.Embedder.ModelName()
		}
	}
	return ""
}

// Dimension reports the first variant's dimension. Fallback variants may
// produce a different one; retrieval isolates mixed dimensions at rank
// time rather than rejecting them here.
func (g *GroupEmbedder) Dimension() int {
	for _, item := range g.items {
		if item.Embedder != nil {
			return item.Embedder.Dimension()
		}
	}
	return 0
}

// retryable: transient vendor errors only. A dead parent context is not
// worth a second call.
func retryable(err error) bool {
	return appErr.IsTransient(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
