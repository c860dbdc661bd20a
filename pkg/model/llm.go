package model

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Provider identifies a text-generation backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderBedrock   Provider = "bedrock"
)

// Providers lists every provider in the order they are offered to users.
func Providers() []Provider {
	return []Provider{ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderBedrock}
}

func ParseProvider(value string) (Provider, bool) {
	candidate := Provider(strings.ToLower(strings.TrimSpace(value)))
	for _, p := range Providers() {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

// OutputContract selects how a backend reply is interpreted.
type OutputContract string

const (
	// ContractStrictJSON expects a single JSON object matching the minutes schema.
	ContractStrictJSON OutputContract = "json"
	// ContractFreeform treats the reply as an opaque markdown document.
	ContractFreeform OutputContract = "markdown"
)

func ParseOutputContract(value string) (OutputContract, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "json", "strict":
		return ContractStrictJSON, true
	case "markdown", "md", "freeform", "text":
		return ContractFreeform, true
	default:
		return "", false
	}
}

// EmptyFreeformSentinel is returned in place of an empty freeform generation.
const EmptyFreeformSentinel = "No se generó ningún documento. Por favor, inténtelo de nuevo."

// System prompts sent to hosted providers that accept one.
const (
	SystemPromptStrict   = "Eres un asistente experto en la creación de actas de reunión. Tu tarea es analizar la transcripción y generar un acta formal y detallada como un único objeto JSON."
	SystemPromptFreeform = "Eres un asistente experto en la creación de actas de reunión. Tu tarea es analizar la transcripción y generar un acta formal y detallada en formato Markdown."
)

// GenerationParams are advisory; a backend that does not support a value ignores it.
type GenerationParams struct {
	Temperature     *float64
	MaxOutputTokens *int
	// ContextWindow is only meaningful to the local inference backend.
	ContextWindow *int
}

func (p GenerationParams) String() string {
	temperature, maxTokens, contextWindow := "default", "default", "default"
	if p.Temperature != nil {
		temperature = strconv.FormatFloat(*p.Temperature, 'f', -1, 64)
	}
	if p.MaxOutputTokens != nil {
		maxTokens = strconv.Itoa(*p.MaxOutputTokens)
	}
	if p.ContextWindow != nil {
		contextWindow = strconv.Itoa(*p.ContextWindow)
	}
	return fmt.Sprintf("temperature=%s max_tokens=%s context_window=%s", temperature, maxTokens, contextWindow)
}

// GenerationRequest is everything a backend needs for one call.
type GenerationRequest struct {
	Provider Provider
	Model    string
	Prompt   string
	Params   GenerationParams
	// Schema is the JSON schema a strict reply must satisfy. Backends that
	// cannot enforce a schema fold it into the instructions instead.
	Schema map[string]any
}

// RawOutput is the normalized reply of Provider Dispatch.
type RawOutput struct {
	Contract OutputContract
	// Object holds the parsed JSON object under the strict contract.
	Object map[string]any
	// Text holds the trimmed document under the freeform contract.
	Text string
	// Empty reports a blank strict reply; no parse was attempted.
	Empty    bool
	Raw      string
	Metadata GenerationMetadata
}

// Backend is implemented once per text-generation provider.
type Backend interface {
	Name() Provider
	GenerateStrict(ctx context.Context, req GenerationRequest) (string, GenerationMetadata, error)
	GenerateFreeform(ctx context.Context, req GenerationRequest) (string, GenerationMetadata, error)
}

type GenerationMetadata map[string]string

const (
	MetadataKeyProvider       = "provider"
	MetadataKeyModel          = "model"
	MetadataKeyLatencyMs      = "latency_ms"
	MetadataKeyInputTokens    = "input_tokens"
	MetadataKeyOutputTokens   = "output_tokens"
	MetadataKeyTotalTokens    = "total_tokens"
	MetadataKeyResponseID     = "response_id"
	MetadataKeyResponseStatus = "response_status"
)

type GeneratorOption interface {
	apply(*GeneratorConfig)
}

type generatorOptionFunc func(*GeneratorConfig)

func (f generatorOptionFunc) apply(cfg *GeneratorConfig) {
	f(cfg)
}

// GeneratorConfig is the construction-time configuration of a backend.
type GeneratorConfig struct {
	URL          string
	AuthToken    string
	Model        *string
	SystemPrompt *string
	// HTTPTimeoutSeconds bounds a single transport call; zero keeps the backend default.
	HTTPTimeoutSeconds int
}

// SystemPromptFor returns the configured system prompt or the default for contract.
func (c GeneratorConfig) SystemPromptFor(contract OutputContract) string {
	if c.SystemPrompt != nil && strings.TrimSpace(*c.SystemPrompt) != "" {
		return *c.SystemPrompt
	}
	if contract == ContractStrictJSON {
		return SystemPromptStrict
	}
	return SystemPromptFreeform
}

// ModelFor returns the request model, then the configured one, then fallback.
func (c GeneratorConfig) ModelFor(req GenerationRequest, fallback string) string {
	if name := strings.TrimSpace(req.Model); name != "" {
		return name
	}
	if c.Model != nil {
		if name := strings.TrimSpace(*c.Model); name != "" {
			return name
		}
	}
	return fallback
}

func ResolveGeneratorOpts(opts ...GeneratorOption) GeneratorConfig {
	cfg := GeneratorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	return cfg
}

func WithURL(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.URL = value
	})
}

func WithAuthToken(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.AuthToken = value
	})
}

func WithModel(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.Model = &value
	})
}

func WithSystemPrompt(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.SystemPrompt = &value
	})
}

func WithHTTPTimeoutSeconds(value int) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.HTTPTimeoutSeconds = value
	})
}

// ClampTemperature returns a copy of t bounded to [lo, hi]; nil stays nil.
func ClampTemperature(t *float64, lo, hi float64) *float64 {
	if t == nil {
		return nil
	}
	v := *t
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return &v
}

// Float and Int build pointer params inline.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
