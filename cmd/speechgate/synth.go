package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/speechgate/internal/config"
	"github.com/ekisa-team/speechgate/internal/service"
)

func newSynthCmd(flags *rootFlags) *cobra.Command {
	var (
		languageID string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "synth <text>",
		Short: "Synthesize text to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.initModels(); err != nil {
				return err
			}

			speech, err := service.NewTTS(a.manager).Synthesize(cmd.Context(), args[0], languageID)
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, speech.Audio, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, %d Hz)\n", output, len(speech.Audio), speech.SampleRate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&languageID, "language", "l", config.DefaultLanguage, "Catalog language id")
	cmd.Flags().StringVarP(&output, "output", "o", "tts.wav", "Output WAV file")

	return cmd
}
