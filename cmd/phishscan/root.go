package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	applog "github.com/nao1215/phishscan/internal/log"
)

// NewRootCmd creates the root command for phishscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishscan",
		Short: "Phishing URL classifier",
		Long: `phishscan classifies URLs as phishing or legitimate.

It computes thirty indicators for a URL (lexical features of the URL
string, features of the page it serves and reputation lookups such as
WHOIS, DNS and traffic rank) and scores them with a gradient-boosted
model. Train a model once with 'phishscan train', then check URLs with
'phishscan check'. Every check is kept in a local history database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", "",
		"Write JSON logs to a rotating file instead of stderr")
	cmd.PersistentFlags().Lookup("log-file").NoOptDefVal = config.DefaultLogFile()
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .phishscan in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewTrainCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration shared by every command.
// Precedence is defaults, then the configuration file, then .env secrets;
// command flags are applied by the caller afterwards.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	cfg.LogFile, err = cmd.Flags().GetString("log-file")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path specified, silently keep the defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.ApplyTo(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	config.ApplyEnv(cfg)

	return cfg, nil
}

// setupLogger creates the secure logger selected by cfg. The returned
// closer releases the log file, if any.
func setupLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg.LogFile == "" {
		return applog.NewSecureLogger(stderr, cfg.Verbose), nopCloser{}, nil
	}
	logger, closer, err := applog.NewFileLogger(applog.DefaultFileOptions(cfg.LogFile), cfg.Verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openOutput returns the report destination: the file named by path, or
// stdout when path is empty. Reports may reveal what a user investigated,
// so files are created with owner-only permissions.
func openOutput(cmd *cobra.Command, path string) (io.Writer, io.Closer, error) {
	if path == "" {
		return cmd.OutOrStdout(), nopCloser{}, nil
	}
	if err := ensureParentDir(path); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // output path is chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f, nil
}

// ensureParentDir creates the directory of path if needed.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0750)
}
