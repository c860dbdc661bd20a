// Package ollama implements minutes generation against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	providerName       = "ollama"
	defaultModelName   = "mistral"
	defaultBaseURL     = "http://localhost:11434"
	defaultHTTPTimeout = 600 * time.Second
	maxTemperature     = 2.0
	formatJSON         = "json"
)

type client struct {
	httpClient *http.Client
	baseURL    string
}

type generateOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
	NumCtx      *int     `json:"num_ctx,omitempty"`
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	System  string           `json:"system,omitempty"`
	Stream  bool             `json:"stream"`
	Format  string           `json:"format,omitempty"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
	Error           string `json:"error"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func newClient(cfg model.GeneratorConfig) *client {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := defaultHTTPTimeout
	if cfg.HTTPTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	}

	return &client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *client) generate(ctx context.Context, request generateRequest) (*generateResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")

	rawBody, err := c.do(httpRequest, "generate")
	if err != nil {
		return nil, err
	}

	var response generateResponse
	if err := json.Unmarshal(rawBody, &response); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if strings.TrimSpace(response.Error) != "" {
		return nil, utils.WrapIfNotNil(errors.New(strings.TrimSpace(response.Error)))
	}
	return &response, nil
}

func (c *client) tags(ctx context.Context) (*tagsResponse, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	httpRequest.Header.Set("Accept", "application/json")

	rawBody, err := c.do(httpRequest, "tags")
	if err != nil {
		return nil, err
	}

	var response tagsResponse
	if err := json.Unmarshal(rawBody, &response); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &response, nil
}

func (c *client) do(httpRequest *http.Request, operation string) ([]byte, error) {
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer httpResponse.Body.Close()

	rawBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		var apiError errorResponse
		if unmarshalErr := json.Unmarshal(rawBody, &apiError); unmarshalErr == nil && strings.TrimSpace(apiError.Error) != "" {
			return nil, utils.WrapIfNotNil(
				fmt.Errorf("ollama %s request failed with status %d: %s", operation, httpResponse.StatusCode, apiError.Error),
			)
		}
		return nil, utils.WrapIfNotNil(
			fmt.Errorf("ollama %s request failed with status %d: %s", operation, httpResponse.StatusCode, strings.TrimSpace(string(rawBody))),
		)
	}
	return rawBody, nil
}

func buildGenerateOptions(params model.GenerationParams) *generateOptions {
	options := &generateOptions{
		Temperature: model.ClampTemperature(params.Temperature, 0, maxTemperature),
	}
	if params.MaxOutputTokens != nil && *params.MaxOutputTokens > 0 {
		options.NumPredict = model.Int(*params.MaxOutputTokens)
	}
	if params.ContextWindow != nil && *params.ContextWindow > 0 {
		options.NumCtx = model.Int(*params.ContextWindow)
	}
	if options.Temperature == nil && options.NumPredict == nil && options.NumCtx == nil {
		return nil
	}
	return options
}

func applyOllamaMetadata(meta model.GenerationMetadata, response *generateResponse) {
	if meta == nil || response == nil {
		return
	}
	if response.PromptEvalCount > 0 || response.EvalCount > 0 {
		meta.SetTokens(response.PromptEvalCount, response.EvalCount, 0)
	}
	meta.SetIfNotEmpty(model.MetadataKeyResponseStatus, response.DoneReason)
	meta.SetIfNotEmpty(model.MetadataKeyModel, response.Model)
}
