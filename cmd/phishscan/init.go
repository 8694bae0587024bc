package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
)

//go:embed templates/phishscan.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new phishscan configuration file",
		Long: `Initialize creates a new .phishscan configuration file in the current directory.

The generated file includes:
- Lookup timeouts and the lookup sources to enable
- Paths to the traffic rank list and blocklist
- Default training parameters

Examples:
  # Create .phishscan in current directory
  phishscan init

  # Create config file at a specific path
  phishscan init -o myconfig.yaml

  # Force overwrite existing file
  phishscan init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/phishscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if err := ensureParentDir(outputPath); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Lookup timeouts and sources")
	fmt.Fprintln(out, "  - A traffic rank list and a blocklist")
	fmt.Fprintln(out, "  - Training parameters")
	fmt.Fprintf(out, "\nPut the Open PageRank API key in %s (or a .env file).\n", config.OpenPageRankKeyEnv)

	return nil
}
