package model

import (
	"fmt"
)

// ConfigurationError reports a missing template or credential. It is fatal
// to the invocation, not to the process.
type ConfigurationError struct {
	Component string
	Setting   string
	Err       error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error in %s", e.Component)
	if e.Setting != "" {
		msg += fmt.Sprintf(" (%s)", e.Setting)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NotFoundError reports an input file that does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TranscriptionError wraps a failed or empty transcription.
type TranscriptionError struct {
	Backend string
	Err     error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription with %s failed: %v", e.Backend, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// GenerationError means the provider is unusable right now: unreachable,
// rejected the request, or reported an error.
type GenerationError struct {
	Provider Provider
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation with %s (model %q) failed: %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedOutputError means the provider answered but the reply violates the
// requested contract. Raw carries the reply for diagnostics.
type MalformedOutputError struct {
	Provider Provider
	Raw      string
	Err      error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s returned output that is not a valid JSON object: %v", e.Provider, e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// ExportError reports a destination that could not be written.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// TemplateError reports a prompt template that cannot be loaded or rendered.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("prompt template error: %v", e.Err)
	}
	return fmt.Sprintf("prompt template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }
