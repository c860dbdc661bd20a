// Package config assembles the startup configuration from a .env file, an
// optional TOML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/utils"
)

const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 8192
	DefaultContextWindow   = 16384
	DefaultOllamaHost      = "http://localhost:11434"

	DefaultJSONTemplate     = "prompts/minutes_json.tmpl"
	DefaultMarkdownTemplate = "prompts/minutes_markdown.tmpl"

	TranscriptionDeepgram = "deepgram"
	TranscriptionOpenAI   = "openai"
	TranscriptionWhisper  = "whisper"
	TranscriptionGemini   = "gemini"
)

// DefaultModels is the model used per provider when none is configured.
var DefaultModels = map[model.Provider]string{
	model.ProviderOllama:    "mistral",
	model.ProviderOpenAI:    "gpt-4o",
	model.ProviderAnthropic: "claude-3-5-sonnet-latest",
	model.ProviderGemini:    "gemini-2.5-flash",
	model.ProviderBedrock:   "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
}

type Config struct {
	LogLevel  string `toml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `toml:"log_format" validate:"omitempty,oneof=text json"`

	Provider string `toml:"provider" validate:"required,oneof=ollama openai anthropic gemini bedrock"`
	Format   string `toml:"format" validate:"required,oneof=json markdown"`
	// Models overrides DefaultModels, keyed by provider name.
	Models map[string]string `toml:"models"`
	// SystemPrompt replaces the built-in assistant persona when set.
	SystemPrompt string `toml:"system_prompt"`

	Temperature        float64 `toml:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens    int     `toml:"max_output_tokens" validate:"gte=1"`
	ContextWindow      int     `toml:"context_window" validate:"gte=1"`
	HTTPTimeoutSeconds int     `toml:"http_timeout_seconds" validate:"gte=0"`

	Templates     TemplatesConfig     `toml:"templates"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Ollama        OllamaConfig        `toml:"ollama"`
	Bedrock       BedrockConfig       `toml:"bedrock"`

	Credentials model.Credentials `toml:"-"`
}

type TemplatesConfig struct {
	JSON     string `toml:"json" validate:"required"`
	Markdown string `toml:"markdown" validate:"required"`
}

type TranscriptionConfig struct {
	Backend  string `toml:"backend" validate:"required,oneof=deepgram openai whisper gemini"`
	Language string `toml:"language"`
	Model    string `toml:"model"`
	// WhisperBinary is the local whisper executable.
	WhisperBinary string `toml:"whisper_binary"`
	DeepgramURL   string `toml:"deepgram_url" validate:"omitempty,url"`
}

type OllamaConfig struct {
	Host string `toml:"host" validate:"omitempty,url"`
}

type BedrockConfig struct {
	Region  string `toml:"region"`
	Profile string `toml:"profile"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Provider:        string(model.ProviderOllama),
		Format:          string(model.ContractStrictJSON),
		Models:          map[string]string{},
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
		ContextWindow:   DefaultContextWindow,
		Templates: TemplatesConfig{
			JSON:     DefaultJSONTemplate,
			Markdown: DefaultMarkdownTemplate,
		},
		Transcription: TranscriptionConfig{
			Backend:  TranscriptionDeepgram,
			Language: "es",
		},
		Ollama: OllamaConfig{Host: DefaultOllamaHost},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded first without overriding the environment. path names the TOML
// file; when empty the XDG location is used if it exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &model.ConfigurationError{Component: "config", Setting: ".env", Err: err}
	}

	cfg := Default()

	if path == "" {
		path = configFilePath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, &model.ConfigurationError{Component: "config", Setting: path, Err: err}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.Credentials = credentialsFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks ranges and enumerations and reports every violation.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &model.ConfigurationError{Component: "config", Err: err}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Namespace(), formatValidationError(e)))
	}
	return &model.ConfigurationError{Component: "config", Err: errors.New(strings.Join(messages, "; "))}
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// ModelFor returns the configured model for a provider.
func (c *Config) ModelFor(p model.Provider) string {
	if name := strings.TrimSpace(c.Models[string(p)]); name != "" {
		return name
	}
	return DefaultModels[p]
}

// Params returns the default generation parameters.
func (c *Config) Params() model.GenerationParams {
	return model.GenerationParams{
		Temperature:     model.Float(c.Temperature),
		MaxOutputTokens: model.Int(c.MaxOutputTokens),
		ContextWindow:   model.Int(c.ContextWindow),
	}
}

func applyEnvOverrides(cfg *Config) error {
	// Later entries win, so OLLAMA_HOST takes precedence over OLLAMA_BASE_URL.
	stringOverrides := []struct {
		key    string
		target *string
	}{
		{"MINUTES_LOG_LEVEL", &cfg.LogLevel},
		{"MINUTES_LOG_FORMAT", &cfg.LogFormat},
		{"MINUTES_PROVIDER", &cfg.Provider},
		{"MINUTES_FORMAT", &cfg.Format},
		{"MINUTES_SYSTEM_PROMPT", &cfg.SystemPrompt},
		{"MINUTES_JSON_TEMPLATE", &cfg.Templates.JSON},
		{"MINUTES_MARKDOWN_TEMPLATE", &cfg.Templates.Markdown},
		{"MINUTES_TRANSCRIPTION_BACKEND", &cfg.Transcription.Backend},
		{"MINUTES_TRANSCRIPTION_LANGUAGE", &cfg.Transcription.Language},
		{"MINUTES_WHISPER_BINARY", &cfg.Transcription.WhisperBinary},
		{"OLLAMA_BASE_URL", &cfg.Ollama.Host},
		{"OLLAMA_HOST", &cfg.Ollama.Host},
		{"AWS_REGION", &cfg.Bedrock.Region},
		{"AWS_PROFILE", &cfg.Bedrock.Profile},
	}
	for _, o := range stringOverrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.target = v
		}
	}
	cfg.Ollama.Host = normalizeHost(cfg.Ollama.Host)

	if v := strings.TrimSpace(os.Getenv("MINUTES_TEMPERATURE")); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &model.ConfigurationError{Component: "config", Setting: "MINUTES_TEMPERATURE", Err: utils.WrapIfNotNil(err)}
		}
		cfg.Temperature = parsed
	}
	intOverrides := []struct {
		key    string
		target *int
	}{
		{"MINUTES_MAX_OUTPUT_TOKENS", &cfg.MaxOutputTokens},
		{"MINUTES_CONTEXT_WINDOW", &cfg.ContextWindow},
		{"MINUTES_HTTP_TIMEOUT_SECONDS", &cfg.HTTPTimeoutSeconds},
	}
	for _, o := range intOverrides {
		v := strings.TrimSpace(os.Getenv(o.key))
		if v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return &model.ConfigurationError{Component: "config", Setting: o.key, Err: utils.WrapIfNotNil(err)}
		}
		*o.target = parsed
	}
	return nil
}

func credentialsFromEnv() model.Credentials {
	google := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	if google == "" {
		google = strings.TrimSpace(os.Getenv("GEMINI_KEY"))
	}
	return model.Credentials{
		OpenAI:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Anthropic: strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		Google:    google,
		Deepgram:  strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
	}
}

// normalizeHost accepts the bare host:port form OLLAMA_HOST allows.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if host == "" {
		return DefaultOllamaHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "minutes")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "minutes")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
