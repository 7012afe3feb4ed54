package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLanguagesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the configured TTS languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tBACKEND\tSOURCE")
			for _, id := range a.cfg.LanguageIDs() {
				mc := a.cfg.Languages[id]
				fmt.Fprintf(w, "%s\t%s\t%s\n", id, mc.Backend, mc.SourceID())
			}
			return w.Flush()
		},
	}
}
