package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/phishscan/internal/config"
)

// executeCommand runs the root command with args and returns what it
// wrote to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeConfigFile writes content to a configuration file in a temp
// directory. Tests pass it with --config so that no file from the
// working or home directory is picked up.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".phishscan")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "phishscan" {
			t.Errorf("expected use 'phishscan', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has log-file flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("log-file")
		if flag == nil {
			t.Fatal("expected log-file flag")
		}
		if flag.NoOptDefVal != config.DefaultLogFile() {
			t.Errorf("expected NoOptDefVal %q, got %q", config.DefaultLogFile(), flag.NoOptDefVal)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"train":   false,
			"check":   false,
			"history": false,
			"init":    false,
			"version": false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestLoadConfig tests configuration loading for commands.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies config file", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "batchSize: 3\ntimeouts:\n  content: 4s\n")
		cmd := NewRootCmd()
		if err := cmd.PersistentFlags().Set("config", path); err != nil {
			t.Fatal(err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BatchSize != 3 {
			t.Errorf("expected batch size 3, got %d", cfg.BatchSize)
		}
		if cfg.ContentTimeout.String() != "4s" {
			t.Errorf("expected content timeout 4s, got %s", cfg.ContentTimeout)
		}
		if cfg.ConfigFilePath != path {
			t.Errorf("expected config path %q, got %q", path, cfg.ConfigFilePath)
		}
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := cmd.PersistentFlags().Set("config", missing); err != nil {
			t.Fatal(err)
		}

		_, err := loadConfig(cmd)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "batchSize: [not a number\n")
		cmd := NewRootCmd()
		if err := cmd.PersistentFlags().Set("config", path); err != nil {
			t.Fatal(err)
		}

		if _, err := loadConfig(cmd); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

// TestSetupLogger tests logger selection.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("stderr logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cfg := config.NewConfig()
		cfg.Verbose = true

		logger, closer, err := setupLogger(cfg, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closer.Close()

		logger.Debug("hello")
		if !bytes.Contains(buf.Bytes(), []byte("hello")) {
			t.Errorf("expected debug message in output, got %q", buf.String())
		}
	})

	t.Run("file logger", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.LogFile = filepath.Join(t.TempDir(), "logs", "phishscan.log")

		logger, closer, err := setupLogger(cfg, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Info("written to file")
		if err := closer.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		data, err := os.ReadFile(cfg.LogFile)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !bytes.Contains(data, []byte("written to file")) {
			t.Errorf("expected message in log file, got %q", data)
		}
	})
}

// TestOpenOutput tests report destination handling.
func TestOpenOutput(t *testing.T) {
	t.Parallel()

	t.Run("empty path writes to stdout", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		var stdout bytes.Buffer
		cmd.SetOut(&stdout)

		w, closer, err := openOutput(cmd, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closer.Close()

		if _, err := w.Write([]byte("report")); err != nil {
			t.Fatal(err)
		}
		if stdout.String() != "report" {
			t.Errorf("expected stdout to receive the report, got %q", stdout.String())
		}
	})

	t.Run("creates file with owner-only permissions", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "report.txt")
		w, closer, err := openOutput(NewRootCmd(), path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := w.Write([]byte("report")); err != nil {
			t.Fatal(err)
		}
		if err := closer.Close(); err != nil {
			t.Fatal(err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected file to exist: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
		}
	})
}
