// Package gemini implements minutes generation and speech recognition with
// the Gemini API.
package gemini

import (
	"context"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	providerName               = "gemini"
	defaultGenerationModelName = "gemini-2.5-flash"
	maxTemperature             = 2.0
)

func newAPIClient(ctx context.Context, cfg model.GeneratorConfig) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	if token := strings.TrimSpace(cfg.AuthToken); token != "" {
		clientCfg.APIKey = token
	}

	if baseURL := strings.TrimSpace(cfg.URL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL: baseURL,
		}
	}
	if cfg.HTTPTimeoutSeconds > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return client, nil
}

func applyGenerateMetadata(meta model.GenerationMetadata, response *genai.GenerateContentResponse) {
	if meta == nil || response == nil {
		return
	}

	if usage := response.UsageMetadata; usage != nil {
		meta.SetTokens(int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount), int64(usage.TotalTokenCount))
	}
	meta.SetIfNotEmpty(model.MetadataKeyResponseID, response.ResponseID)
	if len(response.Candidates) > 0 && response.Candidates[0] != nil {
		meta.SetIfNotEmpty(model.MetadataKeyResponseStatus, string(response.Candidates[0].FinishReason))
	}
}
