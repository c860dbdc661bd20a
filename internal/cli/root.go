package cli

import (
	"github.com/spf13/cobra"

	"github.com/Nephrolytics-ai/polyglot-minutes/internal/version"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/pipeline"
)

type Dependencies struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "minutes",
		Short:         "Turn meeting recordings into formal minutes",
		Long:          "Transcribes a meeting recording, asks a language model for structured or markdown minutes, previews them and exports a PDF.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewTranscribeCmd(deps))
	rootCmd.AddCommand(NewGenerateCmd(deps))
	rootCmd.AddCommand(NewExportCmd(deps))
	rootCmd.AddCommand(NewModelsCmd(deps))
	rootCmd.AddCommand(NewMCPCmd(deps))

	return rootCmd
}
