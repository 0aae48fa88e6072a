package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// Completion is a provider's raw reply.
type Completion struct {
	Text  string
	Model string
	Usage cost.Usage
}

// Provider completes a single-turn prompt.
type Provider interface {
	// Name is the provider key used for stats, breakers and pricing.
	Name() string
	Complete(ctx context.Context, system, prompt string) (*Completion, error)
}

// Sampling holds generation settings shared by all providers.
type Sampling struct {
	Temperature float64
	MaxTokens   int
}

// DefaultSampling keeps answers short and close to deterministic.
func DefaultSampling() Sampling {
	return Sampling{Temperature: 0.1, MaxTokens: 1000}
}

// OpenAIProvider talks to any OpenAI-compatible endpoint. With the local
// Ollama base URL it serves the local tier; models are tried in order so a
// backup model can stand in for the primary.
type OpenAIProvider struct {
	name     string
	client   *openai.Client
	models   []string
	sampling Sampling
}

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Models  []string
	// Timeout bounds each HTTP call. Zero keeps the client default.
	Timeout time.Duration
}

// NewOpenAIProvider creates a provider. APIKey may be empty for local
// endpoints.
func NewOpenAIProvider(cfg OpenAIConfig, s Sampling) (*OpenAIProvider, error) {
	if len(cfg.Models) == 0 || cfg.Models[0] == "" {
		return nil, eris.New("ai: openai provider requires a model")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	name := cfg.Name
	if name == "" {
		name = cost.ProviderOpenAI
	}
	return &OpenAIProvider{
		name:     name,
		client:   openai.NewClientWithConfig(oc),
		models:   cfg.Models,
		sampling: s,
	}, nil
}

// LocalBaseURL turns an Ollama root URL into its OpenAI-compatible API root.
func LocalBaseURL(root string) string {
	root = strings.TrimSuffix(root, "/")
	if strings.HasSuffix(root, "/v1") {
		return root
	}
	return root + "/v1"
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return p.name }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, system, prompt string) (*Completion, error) {
	var errs []error
	for _, model := range p.models {
		if model == "" {
			continue
		}
		c, err := p.complete(ctx, model, system, prompt)
		if err == nil {
			return c, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
		zap.L().Debug("ai: model failed, trying next",
			zap.String("provider", p.name),
			zap.String("model", model),
			zap.Error(err),
		)
	}
	return nil, errors.Join(errs...)
}

func (p *OpenAIProvider) complete(ctx context.Context, model, system, prompt string) (*Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(p.sampling.Temperature),
		MaxTokens:   p.sampling.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, resilience.ForStatus(eris.Wrapf(err, "ai: %s %s", p.name, model), apiErr.HTTPStatusCode)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, resilience.ForStatus(eris.Wrapf(err, "ai: %s %s", p.name, model), reqErr.HTTPStatusCode)
		}
		return nil, eris.Wrapf(err, "ai: %s %s", p.name, model)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.Errorf("ai: %s %s returned no choices", p.name, model)
	}
	return &Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: cost.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}, nil
}

// AnthropicProvider uses Claude through pkg/anthropic.
type AnthropicProvider struct {
	client   anthropic.Client
	model    string
	sampling Sampling
}

// NewAnthropicProvider creates a provider over client.
func NewAnthropicProvider(client anthropic.Client, model string, s Sampling) *AnthropicProvider {
	return &AnthropicProvider{client: client, model: model, sampling: s}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return cost.ProviderAnthropic }

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, system, prompt string) (*Completion, error) {
	temp := p.sampling.Temperature
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   int64(p.sampling.MaxTokens),
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ai: anthropic")
	}
	return &Completion{
		Text:  resp.Text(),
		Model: p.model,
		Usage: cost.Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
	}, nil
}

// contentGenerator is the part of genai.Models the Gemini provider calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider uses the Gemini API.
type GeminiProvider struct {
	models   contentGenerator
	model    string
	sampling Sampling
}

// NewGeminiProvider creates a provider backed by the Gemini API.
func NewGeminiProvider(ctx context.Context, apiKey, model string, s Sampling) (*GeminiProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, eris.New("ai: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ai: create gemini client")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{models: client.Models, model: model, sampling: s}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return cost.ProviderGemini }

// Complete implements Provider.
func (p *GeminiProvider) Complete(ctx context.Context, system, prompt string) (*Completion, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.sampling.Temperature)),
		MaxOutputTokens: int32(p.sampling.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, resilience.ForStatus(eris.Wrap(err, "ai: gemini"), apiErr.Code)
		}
		return nil, eris.Wrap(err, "ai: gemini")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, eris.New("ai: gemini returned empty response")
	}
	c := &Completion{Text: text, Model: p.model}
	if u := resp.UsageMetadata; u != nil {
		c.Usage = cost.Usage{
			InputTokens:  int64(u.PromptTokenCount),
			OutputTokens: int64(u.CandidatesTokenCount),
		}
	}
	return c, nil
}

// requestID tags a classification request in logs.
func requestID() string {
	return uuid.NewString()[:8]
}
