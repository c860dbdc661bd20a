package tests

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/dispatch"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/prompt"
)

type ProvidersIntegrationSuite struct {
	ExternalDependenciesSuite
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	strict     *prompt.Template
	freeform   *prompt.Template
}

func (s *ProvidersIntegrationSuite) SetupSuite() {
	s.ExternalDependenciesSuite.SetupSuite()
	s.requireEnabled("RUN_PROVIDER_TESTS")

	cfg, err := config.Load("")
	require.NoError(s.T(), err)
	s.cfg = cfg
	s.dispatcher = dispatch.NewFromConfig(cfg)

	s.strict, err = prompt.Load("../" + config.DefaultJSONTemplate)
	require.NoError(s.T(), err)
	s.freeform, err = prompt.Load("../" + config.DefaultMarkdownTemplate)
	require.NoError(s.T(), err)
}

// providers returns those listed in MINUTES_TEST_PROVIDERS, ollama by default.
func (s *ProvidersIntegrationSuite) providers() []model.Provider {
	raw := strings.TrimSpace(os.Getenv("MINUTES_TEST_PROVIDERS"))
	if raw == "" {
		return []model.Provider{model.ProviderOllama}
	}

	var out []model.Provider
	for _, name := range strings.Split(raw, ",") {
		p, ok := model.ParseProvider(name)
		require.True(s.T(), ok, "unknown provider %q", name)
		out = append(out, p)
	}
	return out
}

func (s *ProvidersIntegrationSuite) request(p model.Provider, tmpl *prompt.Template) model.GenerationRequest {
	text, err := tmpl.RenderNow(statusCheckTranscript, "Revisión semanal del equipo")
	require.NoError(s.T(), err)
	return model.GenerationRequest{
		Provider: p,
		Model:    s.cfg.ModelFor(p),
		Prompt:   text,
		Params:   s.cfg.Params(),
	}
}

func (s *ProvidersIntegrationSuite) TestStrictMinutes() {
	for _, p := range s.providers() {
		s.Run(string(p), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
			defer cancel()

			out, err := s.dispatcher.Generate(ctx, model.ContractStrictJSON, s.request(p, s.strict))
			require.NoError(s.T(), err)
			require.False(s.T(), out.Empty)

			doc := minutes.Validate(out.Object)
			assert.NotEqual(s.T(), minutes.DefaultText, doc.Title)
			assert.NotEmpty(s.T(), doc.Participants)
			assert.NotEmpty(s.T(), out.Metadata[model.MetadataKeyLatencyMs])
		})
	}
}

func (s *ProvidersIntegrationSuite) TestFreeformMinutes() {
	for _, p := range s.providers() {
		s.Run(string(p), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
			defer cancel()

			out, err := s.dispatcher.Generate(ctx, model.ContractFreeform, s.request(p, s.freeform))
			require.NoError(s.T(), err)
			assert.NotEqual(s.T(), model.EmptyFreeformSentinel, out.Text)
			assert.Contains(s.T(), strings.ToLower(out.Text), "atlas")
		})
	}
}

func TestProvidersIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ProvidersIntegrationSuite))
}
