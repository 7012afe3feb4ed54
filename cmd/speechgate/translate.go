package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/speechgate/internal/service"
)

func newTranslateCmd(flags *rootFlags) *cobra.Command {
	var (
		sourceLang string
		targetLang string
	)

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text with the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.initTranslation(); err != nil {
				return err
			}

			out, err := a.translation.Translate(cmd.Context(), args[0], sourceLang, targetLang)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceLang, "from", "f", service.DefaultSourceLang, "Source language code, or auto")
	cmd.Flags().StringVarP(&targetLang, "to", "t", service.DefaultTargetLang, "Target language code")

	return cmd
}
