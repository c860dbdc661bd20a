package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	WhisperName = "whisper"

	defaultWhisperBinary = "whisper"
	defaultWhisperModel  = "base"
)

// WhisperBackend runs the local whisper CLI against the file on disk. It
// produces plain text without speaker labels.
type WhisperBackend struct {
	binary   string
	model    string
	language string
}

var _ model.TranscriptionBackend = (*WhisperBackend)(nil)

func NewWhisperBackend(binary string, opts model.AudioOptions) *WhisperBackend {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultWhisperBinary
	}
	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = defaultWhisperModel
	}
	return &WhisperBackend{
		binary:   binary,
		model:    modelName,
		language: strings.TrimSpace(opts.Language),
	}
}

func (w *WhisperBackend) Name() string {
	return WhisperName
}

func (w *WhisperBackend) Transcribe(ctx context.Context, path string, _ []byte) (string, model.GenerationMetadata, error) {
	start := time.Now()
	meta := model.NewGenerationMetadata(WhisperName, w.model)
	defer meta.SetLatency(start)

	outDir, err := os.MkdirTemp("", "minutes-whisper-")
	if err != nil {
		return "", meta, utils.WrapIfNotNil(err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, w.binary, w.args(path, outDir)...)
	cmd.Env = os.Environ()
	if _, err := cmd.Output(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", meta, utils.WrapIfNotNil(fmt.Errorf("whisper failed: %s", strings.TrimSpace(string(exitErr.Stderr))))
		}
		return "", meta, utils.WrapIfNotNil(err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	text, err := os.ReadFile(filepath.Join(outDir, base+".txt"))
	if err != nil {
		return "", meta, utils.WrapIfNotNil(fmt.Errorf("read whisper output: %w", err))
	}
	return string(text), meta, nil
}

func (w *WhisperBackend) args(path string, outDir string) []string {
	args := []string{path, "--model", w.model, "--output_format", "txt", "--output_dir", outDir}
	if w.language != "" {
		args = append(args, "--language", w.language)
	}
	return args
}
