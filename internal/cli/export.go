package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Nephrolytics-ai/polyglot-minutes/internal/output"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/minutes"
)

func NewExportCmd(deps *Dependencies) *cobra.Command {
	var (
		asJSON  bool
		asText  bool
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export <minutes-file>",
		Short: "Export saved or edited minutes to PDF",
		Long: "Exports a JSON minutes file (--json) or an edited preview or markdown " +
			"document (--text) to PDF.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON == asText {
				return errors.New("exactly one of --json or --text is required")
			}

			raw, err := readInput(args[0])
			if err != nil {
				return err
			}

			var content minutes.Content = minutes.Freeform(raw)
			if asJSON {
				doc, err := minutes.ParseStrict(string(raw))
				if err != nil {
					return err
				}
				content = doc
			}

			path := outPath
			if path == "" {
				path = suggestedFilename(content)
			}
			path = resolvePDFPath(path, content)

			if err := deps.Pipeline.Export(cmd.Context(), content, path); err != nil {
				return err
			}
			output.NewFormatter(cmd.ErrOrStderr()).Exported(path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "the file holds JSON minutes")
	cmd.Flags().BoolVar(&asText, "text", false, "the file holds a text or markdown document")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "destination PDF; the suggested name when empty")
	return cmd
}
