// Package openai implements minutes generation through the OpenAI Responses
// API and speech recognition through the audio transcriptions API.
package openai

import (
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

type client struct {
	apiClient openai.Client
}

// newClient builds an SDK client with retries disabled; a failed call is
// reported to the caller as is.
func newClient(cfg model.GeneratorConfig) *client {
	requestOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.URL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.URL))
	}
	if cfg.AuthToken != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(cfg.AuthToken))
	}
	if cfg.HTTPTimeoutSeconds > 0 {
		requestOpts = append(requestOpts, option.WithRequestTimeout(time.Duration(cfg.HTTPTimeoutSeconds)*time.Second))
	}

	return &client{apiClient: openai.NewClient(requestOpts...)}
}
