package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/report"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	defaults := config.NewConfig().Training

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the phishing classifier from a labeled dataset",
		Long: `Train fits a gradient-boosted classifier on a labeled CSV dataset and saves
the model artifact used by 'phishscan check'.

The dataset needs one column per indicator (named as in the indicator
schema, e.g. UsingIP, LongURL, ..., StatsReport) and a "class" column where
1 is legitimate and -1 is phishing. An "Index" column is ignored. The data
is split into a stratified training and test set; the report shows the
accuracy, the per-class precision, recall and F1 and the confusion matrix
on the test set.

The artifact is written atomically and replaces any previous model.

Examples:
  # Train with the default parameters
  phishscan train --dataset phishing.csv

  # More rounds, smaller steps
  phishscan train --dataset phishing.csv --rounds 300 --learning-rate 0.05

  # Markdown evaluation report
  phishscan train --dataset phishing.csv --markdown -o training.md`,
		Args: cobra.NoArgs,
		RunE: runTrainCmd,
	}

	cmd.Flags().StringP("dataset", "d", "",
		"Labeled CSV dataset")
	cmd.Flags().String("model", config.DefaultModelPath(),
		"Where to write the model artifact")

	// Boosting parameters
	cmd.Flags().Int("rounds", defaults.Rounds, "Number of boosting rounds")
	cmd.Flags().Float64("learning-rate", defaults.LearningRate, "Shrinkage applied to every tree")
	cmd.Flags().Int("max-depth", defaults.MaxDepth, "Maximum tree depth")
	cmd.Flags().Int("min-samples-leaf", defaults.MinSamplesLeaf, "Minimum samples per leaf")
	cmd.Flags().Float64("subsample", defaults.Subsample, "Row fraction drawn for each tree")
	cmd.Flags().Float64("test-ratio", defaults.TestRatio, "Share of the dataset held out for evaluation")
	cmd.Flags().Uint64("seed", defaults.Seed, "Seed for the split and subsampling")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"History database directory")

	// Report flags
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runTrainCmd executes the train command.
func runTrainCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildTrainConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateTraining(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := setupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runTrain(ctx, cmd, cfg, logger)
}

// buildTrainConfig creates a Config from the configuration file and the
// command flags.
func buildTrainConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.Training.DatasetPath, err = flags.GetString("dataset"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveToDB = false
	}

	if flags.Changed("model") {
		if cfg.ModelPath, err = flags.GetString("model"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rounds") {
		if cfg.Training.Rounds, err = flags.GetInt("rounds"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("learning-rate") {
		if cfg.Training.LearningRate, err = flags.GetFloat64("learning-rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-depth") {
		if cfg.Training.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("min-samples-leaf") {
		if cfg.Training.MinSamplesLeaf, err = flags.GetInt("min-samples-leaf"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("subsample") {
		if cfg.Training.Subsample, err = flags.GetFloat64("subsample"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("test-ratio") {
		if cfg.Training.TestRatio, err = flags.GetFloat64("test-ratio"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("seed") {
		if cfg.Training.Seed, err = flags.GetUint64("seed"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// boostingParams converts the training configuration into classifier
// parameters.
func boostingParams(t config.Training) classifier.GradientBoosting {
	return classifier.GradientBoosting{
		Rounds:         t.Rounds,
		LearningRate:   t.LearningRate,
		MaxDepth:       t.MaxDepth,
		MinSamplesLeaf: t.MinSamplesLeaf,
		Subsample:      t.Subsample,
		Seed:           t.Seed,
	}
}

// runTrain trains, saves and reports the model.
func runTrain(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	if err := ensureParentDir(cfg.ModelPath); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Training on %s...\n", cfg.Training.DatasetPath)

	result, err := classifier.Train(ctx, classifier.TrainOptions{
		DatasetPath: cfg.Training.DatasetPath,
		ModelPath:   cfg.ModelPath,
		Schema:      feature.DefaultSchema(),
		Params:      boostingParams(cfg.Training),
		TestRatio:   cfg.Training.TestRatio,
		Seed:        cfg.Training.Seed,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveTrainingRun(ctx, cfg, result, logger); err != nil {
			// The model is already saved; losing the history entry is not fatal.
			logger.Error("failed to record training run", "error", err)
		}
	}

	out, closer, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	_, err = report.NewTrainingWriter(out, report.WithTrainingMarkdown(cfg.MarkdownReport)).Write(result)
	return err
}

// saveTrainingRun records the run in the history database.
func saveTrainingRun(ctx context.Context, cfg *config.Config, result *classifier.TrainResult, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	run := database.NewTrainingRun(cfg.Training.DatasetPath, result)
	if err := db.SaveTrainingRun(ctx, run); err != nil {
		return err
	}
	logger.Debug("training run recorded", "id", run.ID)
	return nil
}
