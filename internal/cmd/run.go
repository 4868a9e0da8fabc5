package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mklein/coco/internal/checkpoint"
	"github.com/mklein/coco/internal/config"
	"github.com/mklein/coco/internal/logger"
	"github.com/mklein/coco/internal/metrics"
	"github.com/mklein/coco/internal/models"
	"github.com/mklein/coco/internal/orchestrator"
	"github.com/mklein/coco/internal/quality"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the coco pipeline for a project",
		Long: `Run the coco pipeline from its current phase through to output.

A fresh session is started unless --session names an existing
checkpoint, in which case the session resumes from the phase it was
interrupted in. The state is checkpointed after every phase and
periodically while a phase runs, so Ctrl-C is always safe.

Configuration is loaded from <project>/.coco/config.yaml if present.

Examples:
  # New session in the current directory
  coco run

  # New session for a specific project
  coco run --project ./myapp

  # Resume an interrupted session
  coco run --session coco-20260823-101500-1a2b3c4d

  # Disable the periodic checkpoint timer
  coco run --no-auto-checkpoint`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	// Add flags
	cmd.Flags().String("project", ".", "Project directory")
	cmd.Flags().String("session", "", "Session ID of a checkpoint to resume")
	cmd.Flags().String("config", "", "Path to config file (default: <project>/.coco/config.yaml)")
	cmd.Flags().Bool("verbose", false, "Show detailed execution information")
	cmd.Flags().Bool("no-auto-checkpoint", false, "Disable the periodic checkpoint timer")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	projectFlag, _ := cmd.Flags().GetString("project")
	sessionFlag, _ := cmd.Flags().GetString("session")
	configFlag, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noAutoCheckpoint, _ := cmd.Flags().GetBool("no-auto-checkpoint")

	projectPath, err := filepath.Abs(projectFlag)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}

	configPath := configFlag
	if configPath == "" {
		configPath = filepath.Join(projectPath, ".coco", "config.yaml")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Verbose flag overrides the configured log level
	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}
	log := logger.NewConsoleLogger(os.Stdout, logLevel)

	store := checkpoint.NewStore(projectPath, log)
	store.SetInterval(cfg.CheckpointInterval)

	state, err := loadOrCreateState(store, sessionFlag, projectPath)
	if err != nil {
		return err
	}

	opts := orchestrator.Options{
		Detector:       quality.NewDetector(detectorOptions(cfg)),
		Collector:      metrics.NewCollector(),
		Logger:         log,
		AutoCheckpoint: !noAutoCheckpoint,
	}

	if cfg.Metrics.PersistHistory {
		dbPath := cfg.Metrics.DBPath
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(projectPath, dbPath)
		}
		history, err := metrics.NewHistoryStore(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open metrics history: %w", err)
		}
		defer history.Close()
		opts.History = history
	}

	orch := orchestrator.New(state, store, opts)

	fmt.Fprintf(cmd.OutOrStdout(), "Session %s starting from phase %s\n\n", state.SessionID, state.CurrentPhase)

	if err := orch.Run(context.Background()); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	printRunSummary(cmd, orch, opts.Collector)
	return nil
}

// loadOrCreateState resumes the named session, or starts a fresh one
// when no session is given.
func loadOrCreateState(store *checkpoint.Store, sessionID, projectPath string) (*models.OrchestratorState, error) {
	if sessionID == "" {
		return models.NewOrchestratorState("", projectPath), nil
	}
	state, err := store.Resume(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resume session %s: %w", sessionID, err)
	}
	if state == nil {
		return nil, fmt.Errorf("no checkpoint found for session %s", sessionID)
	}
	return state, nil
}

// detectorOptions maps the regression section of the config onto the
// detector's options.
func detectorOptions(cfg *config.Config) quality.DetectorOptions {
	return quality.DetectorOptions{
		MinDelta:          cfg.Regression.MinDelta,
		MinPercentChange:  cfg.Regression.MinPercentChange,
		ModerateThreshold: cfg.Regression.ModerateThreshold,
		SevereThreshold:   cfg.Regression.SevereThreshold,
		IgnoreDimensions:  cfg.Regression.IgnoreDimensions,
	}
}

// printRunSummary prints the post-run phase metrics and the suggestion
// for what to do next.
func printRunSummary(cmd *cobra.Command, orch *orchestrator.Orchestrator, collector *metrics.Collector) {
	out := cmd.OutOrStdout()
	state := orch.State()

	fmt.Fprintf(out, "\nPipeline Summary:\n")
	fmt.Fprintf(out, "  Session: %s\n", state.SessionID)
	fmt.Fprintf(out, "  Completed phases: %d\n", len(state.CompletedPhases))
	if len(state.GeneratedFiles) > 0 {
		fmt.Fprintf(out, "  Generated files: %d\n", len(state.GeneratedFiles))
	}

	for _, p := range models.AllPhases() {
		stats := collector.Stats(p)
		if stats == nil {
			continue
		}
		fmt.Fprintf(out, "  Phase %s: %d run(s), %.0f%% success, avg %s\n",
			p, stats.Executions, stats.SuccessRate()*100, stats.AverageDuration().Round(time.Millisecond))
	}

	fmt.Fprintf(out, "\nNext: %s\n", orch.Suggestion(suggestionContext(state)))
}
