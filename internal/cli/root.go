// Package cli wires the command surface: login, the chat interface, and
// account management.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleychat/parley/internal/config"
	"github.com/parleychat/parley/internal/logging"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

type rootFlags struct {
	configFile string
	serverURL  string
	logLevel   string
	theme      string
}

func newRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "parley",
		Short:         "Terminal chat client",
		Long:          "parley is a terminal client for direct and group chat with live unread tracking and notifications.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runChat(cfg)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.config/parley/config.yaml)")
	pf.StringVar(&flags.serverURL, "server", "", "chat server base URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	pf.StringVar(&flags.theme, "theme", "", "color theme (default, mono, forest)")

	cmd.AddCommand(newSignupCmd(flags))

	return cmd
}

// loadConfig resolves configuration (file, env, flags) and initializes
// logging. The TUI owns the terminal, so logs go to the configured file
// or are discarded.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.configFile != "" {
		cfg, err = config.LoadFromFile(flags.configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flags.serverURL != "" {
		cfg.Server.BaseURL = flags.serverURL
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.theme != "" {
		cfg.TUI.Theme = flags.theme
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initLogging(cfg)
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			logCfg.Output = f
			logCfg.Format = "json"
		} else {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", cfg.Logging.File, err)
			logCfg.Output = io.Discard
		}
	} else {
		logCfg.Output = io.Discard
		logCfg.Format = "json"
	}

	logging.Init(logCfg)
}
