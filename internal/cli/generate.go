package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Nephrolytics-ai/polyglot-minutes/internal/output"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/pipeline"
)

type generateFlags struct {
	provider       string
	model          string
	format         string
	userContext    string
	contextFile    string
	fromTranscript bool
	temperature    float64
	maxTokens      int
	contextWindow  int
	pdfPath        string
	savePath       string
}

func NewGenerateCmd(deps *Dependencies) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <recording|transcript>",
		Short: "Generate minutes from a recording or a transcript file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := output.NewFormatter(cmd.ErrOrStderr())

			req, err := flags.request(cmd, deps.Config)
			if err != nil {
				return err
			}

			if flags.fromTranscript {
				text, err := readInput(args[0])
				if err != nil {
					return err
				}
				req.Transcript = model.Transcript(text)
			} else {
				status.Transcribing(args[0])
				req.Transcript, err = deps.Pipeline.Transcribe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			}

			status.Generating(string(req.Provider), string(req.Contract))
			generation, err := deps.Pipeline.GenerateMinutes(cmd.Context(), req)
			if err != nil {
				return err
			}
			if generation.Empty {
				status.Warning("The model returned an empty reply; the minutes only contain defaults.")
			}

			output.NewFormatter(cmd.OutOrStdout()).Preview(deps.Pipeline.Render(generation.Content))

			if flags.savePath != "" {
				if err := saveContent(generation.Content, flags.savePath); err != nil {
					return err
				}
				status.Saved("Minutes", flags.savePath)
			}
			if flags.pdfPath != "" {
				path := resolvePDFPath(flags.pdfPath, generation.Content)
				if err := deps.Pipeline.Export(cmd.Context(), generation.Content, path); err != nil {
					return err
				}
				status.Exported(path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.provider, "provider", "p", "", "generation provider (ollama, openai, anthropic, gemini, bedrock)")
	f.StringVarP(&flags.model, "model", "m", "", "model name; the configured one when empty")
	f.StringVarP(&flags.format, "format", "f", "", "output format: json or markdown")
	f.StringVarP(&flags.userContext, "context", "c", "", "notes about the meeting passed to the model")
	f.StringVar(&flags.contextFile, "context-file", "", "read the meeting notes from a file")
	f.BoolVar(&flags.fromTranscript, "from-transcript", false, "treat the argument as a transcript text file")
	f.Float64Var(&flags.temperature, "temperature", config.DefaultTemperature, "sampling temperature")
	f.IntVar(&flags.maxTokens, "max-tokens", config.DefaultMaxOutputTokens, "maximum output tokens")
	f.IntVar(&flags.contextWindow, "context-window", config.DefaultContextWindow, "context window for the local provider")
	f.StringVarP(&flags.pdfPath, "output", "o", "", "export a PDF to this file, or into this directory with the suggested name")
	f.StringVar(&flags.savePath, "save", "", "save the raw minutes (JSON or markdown) for later editing")
	return cmd
}

// request builds the generation request; unset flags fall back to config.
func (g *generateFlags) request(cmd *cobra.Command, cfg *config.Config) (pipeline.GenerateRequest, error) {
	req := pipeline.GenerateRequest{UserContext: g.userContext}

	providerName := g.provider
	if providerName == "" {
		providerName = cfg.Provider
	}
	provider, ok := model.ParseProvider(providerName)
	if !ok {
		return req, fmt.Errorf("unknown provider %q", providerName)
	}
	req.Provider = provider
	req.Model = g.model

	format := g.format
	if format == "" {
		format = cfg.Format
	}
	contract, ok := model.ParseOutputContract(format)
	if !ok {
		return req, fmt.Errorf("unknown format %q", format)
	}
	req.Contract = contract

	if g.contextFile != "" {
		text, err := readInput(g.contextFile)
		if err != nil {
			return req, err
		}
		req.UserContext = string(text)
	}

	flags := cmd.Flags()
	if flags.Changed("temperature") {
		req.Params.Temperature = model.Float(g.temperature)
	}
	if flags.Changed("max-tokens") {
		req.Params.MaxOutputTokens = model.Int(g.maxTokens)
	}
	if flags.Changed("context-window") {
		req.Params.ContextWindow = model.Int(g.contextWindow)
	}
	return req, nil
}

// readInput reads a user-supplied file. Only a missing file is a
// *model.NotFoundError.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &model.NotFoundError{Path: path, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func saveContent(content minutes.Content, path string) error {
	var data []byte
	switch c := content.(type) {
	case *minutes.Document:
		encoded, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return err
		}
		data = encoded
	case minutes.Freeform:
		data = []byte(c)
	}
	return os.WriteFile(path, data, 0o644)
}

// resolvePDFPath places the suggested filename inside path when it is a directory.
func resolvePDFPath(path string, content minutes.Content) string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}
	return filepath.Join(path, suggestedFilename(content))
}

func suggestedFilename(content minutes.Content) string {
	if doc, ok := content.(*minutes.Document); ok {
		return doc.SuggestedFilename()
	}
	return (&minutes.Document{}).SuggestedFilename()
}
