package cli

import (
	"github.com/spf13/cobra"

	"github.com/Nephrolytics-ai/polyglot-minutes/internal/version"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/mcp"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

func NewMCPCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the transcribe, generate and export tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _ := model.ParseProvider(deps.Config.Provider)
			contract, _ := model.ParseOutputContract(deps.Config.Format)

			s := mcp.NewServer(deps.Pipeline, mcp.Defaults{Provider: provider, Contract: contract}, version.Version)
			return mcp.ServeStdio(s)
		},
	}
}
