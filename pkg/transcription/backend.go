package transcription

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/llms/openai"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

// NewBackend builds the backend selected in cfg. Credentials are checked
// when a transcription is attempted, not here.
func NewBackend(cfg *config.Config) (model.TranscriptionBackend, error) {
	opts := model.AudioOptions{
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
	}

	switch cfg.Transcription.Backend {
	case config.TranscriptionDeepgram:
		opts.URL = cfg.Transcription.DeepgramURL
		opts.AuthToken = cfg.Credentials.Deepgram
		return NewDeepgramBackend(opts), nil
	case config.TranscriptionOpenAI:
		opts.AuthToken = cfg.Credentials.OpenAI
		return requireKey(openai.NewAudioTranscriber(opts), opts.AuthToken, "OPENAI_API_KEY"), nil
	case config.TranscriptionGemini:
		opts.AuthToken = cfg.Credentials.Google
		return requireKey(gemini.NewAudioTranscriber(opts), opts.AuthToken, "GOOGLE_API_KEY"), nil
	case config.TranscriptionWhisper:
		return NewWhisperBackend(cfg.Transcription.WhisperBinary, opts), nil
	default:
		return nil, &model.ConfigurationError{
			Component: "transcription",
			Setting:   "backend",
			Err:       fmt.Errorf("unknown transcription backend %q", cfg.Transcription.Backend),
		}
	}
}

type keyedBackend struct {
	model.TranscriptionBackend
	key     string
	setting string
}

func requireKey(backend model.TranscriptionBackend, key string, setting string) model.TranscriptionBackend {
	return &keyedBackend{TranscriptionBackend: backend, key: strings.TrimSpace(key), setting: setting}
}

func (k *keyedBackend) Transcribe(ctx context.Context, path string, data []byte) (string, model.GenerationMetadata, error) {
	if k.key == "" {
		return "", nil, &model.ConfigurationError{
			Component: k.Name(),
			Setting:   k.setting,
			Err:       fmt.Errorf("api key is required"),
		}
	}
	return k.TranscriptionBackend.Transcribe(ctx, path, data)
}
