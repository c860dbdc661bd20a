package transcription

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	DeepgramName = "deepgram"

	defaultDeepgramURL      = "https://api.deepgram.com"
	defaultDeepgramModel    = "nova-2-general"
	defaultDeepgramLanguage = "es"
	defaultDeepgramTimeout  = 600 * time.Second

	deepgramTranscriptPath = "results.channels.0.alternatives.0.transcript"
)

// DeepgramBackend uploads the raw file to the prerecorded listen endpoint.
type DeepgramBackend struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	language   string
}

var _ model.TranscriptionBackend = (*DeepgramBackend)(nil)

func NewDeepgramBackend(opts model.AudioOptions) *DeepgramBackend {
	baseURL := strings.TrimSpace(opts.URL)
	if baseURL == "" {
		baseURL = defaultDeepgramURL
	}
	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = defaultDeepgramModel
	}
	language := strings.TrimSpace(opts.Language)
	if language == "" {
		language = defaultDeepgramLanguage
	}

	return &DeepgramBackend{
		httpClient: &http.Client{Timeout: defaultDeepgramTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(opts.AuthToken),
		model:      modelName,
		language:   language,
	}
}

func (d *DeepgramBackend) Name() string {
	return DeepgramName
}

func (d *DeepgramBackend) Transcribe(ctx context.Context, path string, data []byte) (string, model.GenerationMetadata, error) {
	if d.apiKey == "" {
		return "", nil, &model.ConfigurationError{
			Component: DeepgramName,
			Setting:   "DEEPGRAM_API_KEY",
			Err:       fmt.Errorf("api key is required"),
		}
	}

	start := time.Now()
	meta := model.NewGenerationMetadata(DeepgramName, d.model)
	defer meta.SetLatency(start)

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, d.listenURL(), bytes.NewReader(data))
	if err != nil {
		return "", meta, utils.WrapIfNotNil(err)
	}
	httpRequest.Header.Set("Authorization", "Token "+d.apiKey)
	httpRequest.Header.Set("Content-Type", contentType(path))
	httpRequest.Header.Set("Accept", "application/json")

	httpResponse, err := d.httpClient.Do(httpRequest)
	if err != nil {
		return "", meta, utils.WrapIfNotNil(err)
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return "", meta, utils.WrapIfNotNil(err)
	}

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		message := gjson.GetBytes(body, "err_msg").String()
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		return "", meta, utils.WrapIfNotNil(fmt.Errorf("deepgram request failed with status %d: %s", httpResponse.StatusCode, message))
	}

	transcript := gjson.GetBytes(body, deepgramTranscriptPath)
	if !transcript.Exists() {
		return "", meta, utils.WrapIfNotNil(fmt.Errorf("deepgram response has no %s", deepgramTranscriptPath))
	}
	meta.SetIfNotEmpty(model.MetadataKeyResponseID, gjson.GetBytes(body, "metadata.request_id").String())
	return transcript.String(), meta, nil
}

func (d *DeepgramBackend) listenURL() string {
	query := url.Values{}
	query.Set("model", d.model)
	query.Set("language", d.language)
	for _, flag := range []string{"smart_format", "punctuate", "diarize", "detect_topics", "paragraphs"} {
		query.Set(flag, "true")
	}
	return d.baseURL + "/v1/listen?" + query.Encode()
}

func contentType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return "application/octet-stream"
}
