// Package cli wires the fansync command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apexmgmt/fansync/internal/config"
	"github.com/apexmgmt/fansync/internal/logging"
)

type rootFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

// Execute runs the fansync CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "fansync",
		Short:         "Creator-side fan conversation console",
		Long:          "fansync keeps a creator's fan roster and conversations in sync with the messaging platform and provides an operator console for reading and answering messages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.config/fansync/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override logging format (json, console)")

	cmd.AddCommand(newConsoleCmd(flags))
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fansync version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fansync %s\n", version)
		},
	}
}

// loadConfig loads configuration, applies flag overrides, and
// initializes logging.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	loader := config.NewLoader()
	if flags.configFile != "" {
		loader.SetConfigFile(flags.configFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	return cfg, nil
}
