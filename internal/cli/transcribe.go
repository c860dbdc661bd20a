package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nephrolytics-ai/polyglot-minutes/internal/output"
)

func NewTranscribeCmd(deps *Dependencies) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "transcribe <recording>",
		Short: "Transcribe an audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := output.NewFormatter(cmd.ErrOrStderr())
			status.Transcribing(args[0])

			transcript, err := deps.Pipeline.Transcribe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if transcript.IsSuspiciouslyShort() {
				status.Warning("The transcript is very short; check the recording.")
			}

			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), transcript)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(transcript), 0o644); err != nil {
				return err
			}
			status.Saved("Transcript", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the transcript to this file instead of stdout")
	return cmd
}
