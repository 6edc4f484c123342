// Package cli implements the classline command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classline/classline/internal/config"
	"github.com/classline/classline/internal/logging"
)

// Execute runs the CLI with the given arguments.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "classline",
		Short:         "Terminal client for school-communication messaging",
		Long:          "classline reads and sends messages between parents, students and teachers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().String("config", "", "Config file path")
	cmd.PersistentFlags().String("log-level", "", "Override log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("json", false, "Machine-readable JSON output")

	cmd.AddCommand(
		newConversationsCmd(),
		newThreadCmd(),
		newSendCmd(),
		newStartCmd(),
		newUnreadCmd(),
		newWatchCmd(),
	)

	return cmd
}

// loadConfig resolves configuration for a command invocation, honoring
// the --config and --log-level flags, and initializes logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return cfg, nil
}
