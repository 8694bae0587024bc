package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/feature"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion returns version string.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok && buildInfo.Main.Version != "" {
		return buildInfo.Main.Version
	}
	return "(devel)"
}

// buildSetting returns a VCS setting recorded by the Go toolchain.
func buildSetting(key string) string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range buildInfo.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// getCommit returns the short commit hash.
// Priority: ldflags > debug.ReadBuildInfo > "unknown"
func getCommit() string {
	if commit != "" {
		return commit
	}
	if rev := buildSetting("vcs.revision"); rev != "" {
		if len(rev) > 7 {
			return rev[:7]
		}
		return rev
	}
	return "unknown"
}

// getDate returns build date.
// Priority: ldflags > debug.ReadBuildInfo > "unknown"
func getDate() string {
	if date != "" {
		return date
	}
	if t := buildSetting("vcs.time"); t != "" {
		return t
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash and build date of phishscan, and the
model artifact that 'phishscan check' would load.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modelPath, err := cmd.Flags().GetString("model")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "phishscan version %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
			writeModelInfo(out, modelPath)
			return nil
		},
	}
	cmd.Flags().String("model", config.DefaultModelPath(), "Model artifact path")
	return cmd
}

// writeModelInfo describes the artifact at path, or why it cannot be used.
func writeModelInfo(out io.Writer, path string) {
	m, artifact, err := classifier.LoadArtifact(path, feature.DefaultSchema())
	if err != nil {
		fmt.Fprintf(out, "  model:  unavailable (%v)\n", err)
		return
	}
	fmt.Fprintf(out, "  model:  %s\n", path)
	fmt.Fprintf(out, "          trained %s, %d features, %d trees, checksum %s\n",
		artifact.CreatedAt.Format("2006-01-02 15:04:05"),
		m.NumFeatures,
		artifact.Params.Rounds,
		shortChecksum(artifact.Checksum),
	)
	if artifact.Evaluation != nil {
		fmt.Fprintf(out, "          test accuracy %.4f\n", artifact.Evaluation.Accuracy)
	}
}
