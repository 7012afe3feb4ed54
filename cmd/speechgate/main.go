package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/speechgate/internal/config"
)

var version = "dev"

type rootFlags struct {
	configPath string
	schemaPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "speechgate",
		Short:         "Text-to-speech and translation gateway",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
	cmd.PersistentFlags().StringVar(&flags.schemaPath, "schema", "", "Path to schema file (embedded schema when empty)")

	cmd.AddCommand(
		newServeCmd(flags),
		newSynthCmd(flags),
		newTranslateCmd(flags),
		newLanguagesCmd(flags),
	)

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("speechgate failed", "error", err)
		os.Exit(1)
	}
}
