package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// Embedding task types understood by gemini; other providers ignore them.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// IProvider is one LLM backend. Model names are passed per call so a single
// provider serves the summary, answer and embedding models.
type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type modelGenerator struct {
	provider IProvider
	model    string
}

// NewGenerator binds p to a generation model.
func NewGenerator(p IProvider, model string) IGenerator {
	return &modelGenerator{provider: p, model: model}
}

func (g *modelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt)
}

type modelEmbedder struct {
	provider IProvider
	model    string
}

// NewEmbedder binds p to an embedding model.
func NewEmbedder(p IProvider, model string) IEmbedder {
	return &modelEmbedder{provider: p, model: model}
}

func (e *modelEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *modelEmbedder) ModelName() string {
	return e.provider.Name() + "/" + e.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

// Providers lists registered provider names in order.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider %q, known: %s", name, strings.Join(Providers(), ", "))
	}
	return factory(args)
}

// decodeConfig converts the loosely typed provider block from config.json into
// dst and requires a non-empty api_key.
func decodeConfig(args interface{}, dst interface{ apiKey() string }) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	if strings.TrimSpace(dst.apiKey()) == "" {
		return fmt.Errorf("ai provider api_key is required")
	}
	return nil
}
