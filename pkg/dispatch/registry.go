package dispatch

import (
	"strings"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/llms/anthropic"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/llms/ollama"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/llms/openai"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

// NewFromConfig registers every provider with its configured model, key and
// transport timeout.
func NewFromConfig(cfg *config.Config) *Dispatcher {
	common := func(p model.Provider, extra ...model.GeneratorOption) []model.GeneratorOption {
		opts := []model.GeneratorOption{
			model.WithModel(cfg.ModelFor(p)),
			model.WithHTTPTimeoutSeconds(cfg.HTTPTimeoutSeconds),
		}
		if strings.TrimSpace(cfg.SystemPrompt) != "" {
			opts = append(opts, model.WithSystemPrompt(cfg.SystemPrompt))
		}
		return append(opts, extra...)
	}

	return New(cfg.Credentials,
		ollama.NewBackend(common(model.ProviderOllama, model.WithURL(cfg.Ollama.Host))...),
		openai.NewBackend(common(model.ProviderOpenAI, model.WithAuthToken(cfg.Credentials.OpenAI))...),
		anthropic.NewBackend(common(model.ProviderAnthropic, model.WithAuthToken(cfg.Credentials.Anthropic))...),
		gemini.NewBackend(common(model.ProviderGemini, model.WithAuthToken(cfg.Credentials.Google))...),
		bedrock.NewBackend(
			bedrock.Settings{Region: cfg.Bedrock.Region, Profile: cfg.Bedrock.Profile},
			common(model.ProviderBedrock)...,
		),
	)
}
