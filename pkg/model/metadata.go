package model

import (
	"strconv"
	"strings"
	"time"
)

// NewGenerationMetadata seeds metadata with the provider and model names.
func NewGenerationMetadata(provider string, modelName string) GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}
	return GenerationMetadata{
		MetadataKeyProvider: provider,
		MetadataKeyModel:    modelName,
	}
}

// SetLatency records the time elapsed since start; meant to be deferred.
func (m GenerationMetadata) SetLatency(start time.Time) {
	if m == nil {
		return
	}
	m[MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

// SetTokens records token usage; a zero total is derived from the parts.
func (m GenerationMetadata) SetTokens(input, output, total int64) {
	if m == nil {
		return
	}
	if total == 0 {
		total = input + output
	}
	m[MetadataKeyInputTokens] = strconv.FormatInt(input, 10)
	m[MetadataKeyOutputTokens] = strconv.FormatInt(output, 10)
	m[MetadataKeyTotalTokens] = strconv.FormatInt(total, 10)
}

// SetIfNotEmpty stores value under key unless it is blank.
func (m GenerationMetadata) SetIfNotEmpty(key string, value string) {
	if m == nil || strings.TrimSpace(value) == "" {
		return
	}
	m[key] = value
}
