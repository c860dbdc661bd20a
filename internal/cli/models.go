package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nephrolytics-ai/polyglot-minutes/internal/output"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/model"
)

func NewModelsCmd(deps *Dependencies) *cobra.Command {
	var providerName string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available for a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if providerName == "" {
				providerName = deps.Config.Provider
			}
			provider, ok := model.ParseProvider(providerName)
			if !ok {
				return fmt.Errorf("unknown provider %q", providerName)
			}

			names, err := deps.Pipeline.ListModels(cmd.Context(), provider)
			if err != nil {
				return err
			}
			output.NewFormatter(cmd.OutOrStdout()).ModelList(string(provider), names)
			return nil
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "provider to query")
	return cmd
}
