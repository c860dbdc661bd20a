package model

import (
	"context"
	"strings"
	"unicode/utf8"
)

// ShortTranscriptThreshold is the length under which a transcript is flagged, not rejected.
const ShortTranscriptThreshold = 50

// Transcript is the recognized speech of one recording.
type Transcript string

func (t Transcript) String() string {
	return string(t)
}

func (t Transcript) IsSuspiciouslyShort() bool {
	return utf8.RuneCountInString(strings.TrimSpace(string(t))) < ShortTranscriptThreshold
}

// TranscriptionBackend converts one file into text. Data carries the whole
// file for backends that upload bytes; local backends read Path instead.
type TranscriptionBackend interface {
	Name() string
	Transcribe(ctx context.Context, path string, data []byte) (string, GenerationMetadata, error)
}

// AudioOptions configure remote speech recognition.
type AudioOptions struct {
	URL       string
	AuthToken string
	Model     string
	// Language is a BCP-47 tag such as "es".
	Language string
	// Prompt optionally biases recognition toward domain vocabulary.
	Prompt string
}
