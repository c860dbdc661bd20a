package openai

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	audioBackendName                   = "openai"
	defaultAudioTranscriptionModelName = "whisper-1"
)

// AudioTranscriber uploads recordings to the audio transcriptions API.
type AudioTranscriber struct {
	client *client
	opts   model.AudioOptions
}

var _ model.TranscriptionBackend = (*AudioTranscriber)(nil)

func NewAudioTranscriber(opts model.AudioOptions) *AudioTranscriber {
	return &AudioTranscriber{
		client: newClient(audioGeneratorConfigFromOptions(opts)),
		opts:   opts,
	}
}

func (t *AudioTranscriber) Name() string {
	return audioBackendName
}

func (t *AudioTranscriber) Transcribe(ctx context.Context, path string, data []byte) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveAudioTranscriptionModelName(t.opts)
	meta := model.NewGenerationMetadata(audioBackendName, modelName)
	defer meta.SetLatency(start)

	log := logging.NewLogger(ctx)
	log.Infof("audio_transcription_request model=%q bytes=%d", modelName, len(data))

	params := buildAudioTranscriptionParams(path, data, t.opts)
	response, err := t.client.apiClient.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if response == nil {
		return "", meta, utils.WrapIfNotNil(errors.New("audio transcriptions API returned nil response"))
	}

	meta.SetTokens(response.Usage.InputTokens, response.Usage.OutputTokens, response.Usage.TotalTokens)
	return strings.TrimSpace(response.Text), meta, nil
}

func buildAudioTranscriptionParams(path string, data []byte, opts model.AudioOptions) openai.AudioTranscriptionNewParams {
	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(data), filepath.Base(path), ""),
		Model:          openai.AudioModel(resolveAudioTranscriptionModelName(opts)),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if language := strings.TrimSpace(opts.Language); language != "" {
		params.Language = param.NewOpt(language)
	}
	if prompt := strings.TrimSpace(opts.Prompt); prompt != "" {
		params.Prompt = param.NewOpt(prompt)
	}
	return params
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		return modelName
	}

	return defaultAudioTranscriptionModelName
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		URL:       opts.URL,
		AuthToken: opts.AuthToken,
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		cfg.Model = &modelName
	}

	return cfg
}
