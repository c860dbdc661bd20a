// Package transcription turns a recording on disk into a transcript using
// one configured speech-recognition backend.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

// ErrEmptyTranscript is reported when a backend succeeds but recognizes no speech.
var ErrEmptyTranscript = errors.New("backend returned an empty transcript")

type Gateway struct {
	backend model.TranscriptionBackend
}

func NewGateway(backend model.TranscriptionBackend) *Gateway {
	return &Gateway{backend: backend}
}

// BackendName reports which backend the gateway was built with.
func (g *Gateway) BackendName() string {
	return g.backend.Name()
}

// Transcribe checks that path exists, reads it whole and hands it to the
// backend. A missing file never reaches the backend.
func (g *Gateway) Transcribe(ctx context.Context, path string) (model.Transcript, error) {
	start := time.Now()
	log := logging.NewLogger(ctx).WithField("backend", g.backend.Name())

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &model.NotFoundError{Path: path, Err: err}
		}
		return "", &model.TranscriptionError{Backend: g.backend.Name(), Err: utils.WrapIfNotNil(err)}
	}
	if info.IsDir() {
		return "", &model.NotFoundError{Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &model.TranscriptionError{Backend: g.backend.Name(), Err: utils.WrapIfNotNil(err)}
	}
	log.Infof("transcribing path=%q bytes=%d", path, len(data))

	text, meta, err := g.backend.Transcribe(ctx, path, data)
	if err != nil {
		var configErr *model.ConfigurationError
		if errors.As(err, &configErr) {
			return "", configErr
		}
		log.Errorf("error: %v", err)
		return "", &model.TranscriptionError{Backend: g.backend.Name(), Err: err}
	}

	transcript := model.Transcript(strings.TrimSpace(text))
	if transcript == "" {
		return "", &model.TranscriptionError{Backend: g.backend.Name(), Err: ErrEmptyTranscript}
	}
	if transcript.IsSuspiciouslyShort() {
		log.Warnf("transcript is suspiciously short chars=%d content=%q", len([]rune(transcript)), transcript)
	}

	log.Infof("transcribed chars=%d latency_ms=%d meta=%v", len([]rune(transcript)), time.Since(start).Milliseconds(), meta)
	return transcript, nil
}
