package gemini

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const audioBackendName = "gemini"

// AudioTranscriber sends the recording inline to a multimodal model and asks
// for a plain transcript.
type AudioTranscriber struct {
	opts model.AudioOptions
	cfg  model.GeneratorConfig
}

var _ model.TranscriptionBackend = (*AudioTranscriber)(nil)

func NewAudioTranscriber(opts model.AudioOptions) *AudioTranscriber {
	return &AudioTranscriber{
		opts: opts,
		cfg:  audioGeneratorConfigFromOptions(opts),
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
	mimeType, err := resolveAudioMIMEType(path)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	client, err := newAPIClient(ctx, t.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof("audio_transcription_request model=%q mime=%q bytes=%d", modelName, mimeType, len(data))
	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(buildAudioTranscriptionPrompt(t.opts)),
				genai.NewPartFromBytes(data, mimeType),
			},
			genai.RoleUser,
		),
	}

	response, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	applyGenerateMetadata(meta, response)
	return strings.TrimSpace(response.Text()), meta, nil
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		return modelName
	}
	return defaultGenerationModelName
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		URL:       opts.URL,
		AuthToken: opts.AuthToken,
	}
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		cfg.Model = &modelName
	}
	return cfg
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions) string {
	if custom := strings.TrimSpace(opts.Prompt); custom != "" {
		return custom
	}
	base := "Transcribe this audio accurately. Return only the transcript text."
	if language := strings.TrimSpace(opts.Language); language != "" {
		base += " The recording is in language " + language + "; do not translate it."
	}
	return base
}

func resolveAudioMIMEType(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filePath)))
	if ext == "" {
		return "", utils.WrapIfNotNil(errors.New("audio file extension is required to determine mime type"))
	}

	switch ext {
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a":
		return "audio/mp4", nil
	case ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg":
		return "audio/ogg", nil
	case ".flac":
		return "audio/flac", nil
	case ".aac":
		return "audio/aac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "", utils.WrapIfNotNil(errors.New("unsupported audio file extension: " + ext))
	}

	// Strip parameters such as "; charset=utf-8".
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", utils.WrapIfNotNil(errors.New("unsupported audio mime type: " + mimeType))
	}
	return mimeType, nil
}
