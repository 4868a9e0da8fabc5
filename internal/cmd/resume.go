package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mklein/coco/internal/checkpoint"
	"github.com/mklein/coco/internal/models"
	"github.com/mklein/coco/internal/phase"
)

// NewResumeCommand creates the 'coco resume' command
func NewResumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [session-id]",
		Short: "Inspect a checkpointed session and show the next step",
		Long: `Load a checkpointed session and display its state: current phase,
completed phases, task progress, and the suggested next action.

Without a session ID the most recently modified checkpoint is used.
To continue executing a session, pass its ID to 'coco run --session'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runResume,
	}

	cmd.Flags().String("project", ".", "Project directory")

	return cmd
}

// runResume executes the resume command
func runResume(cmd *cobra.Command, args []string) error {
	projectFlag, _ := cmd.Flags().GetString("project")
	projectPath, err := filepath.Abs(projectFlag)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}

	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	}

	store := checkpoint.NewStore(projectPath, nil)
	state, err := store.Resume(sessionID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if state == nil {
		if sessionID != "" {
			return fmt.Errorf("no checkpoint found for session %s", sessionID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No checkpoints found in %s\n", store.Dir())
		return nil
	}

	printSessionState(cmd, state)
	return nil
}

// printSessionState formats the loaded session for display
func printSessionState(cmd *cobra.Command, state *models.OrchestratorState) {
	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(out, "\n=== Session %s ===\n\n", state.SessionID)
	fmt.Fprintf(out, "  Project: %s\n", state.Metadata.ProjectPath)
	fmt.Fprintf(out, "  Started: %s\n", state.Metadata.StartTime.Format(time.RFC3339))
	if !state.Metadata.LastCheckpoint.IsZero() {
		fmt.Fprintf(out, "  Last checkpoint: %s\n", state.Metadata.LastCheckpoint.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "  Current phase: %s\n", state.CurrentPhase)
	if len(state.CompletedPhases) > 0 {
		fmt.Fprintf(out, "  Completed phases:")
		for _, p := range state.CompletedPhases {
			fmt.Fprintf(out, " %s", p)
		}
		fmt.Fprintf(out, "\n")
	}
	if len(state.Tasks) > 0 {
		fmt.Fprintf(out, "  Tasks: %d/%d complete\n", len(state.CompletedTasks), len(state.Tasks))
	}
	if len(state.GeneratedFiles) > 0 {
		fmt.Fprintf(out, "  Generated files: %d\n", len(state.GeneratedFiles))
	}
	if n := len(state.QualityHistory); n > 0 {
		fmt.Fprintf(out, "  Quality: %.1f (across %d snapshot(s))\n", state.QualityHistory[n-1].Overall, n)
	}

	machine := phase.NewMachine(state)
	fmt.Fprintf(out, "\nNext: %s\n", machine.Suggestion(suggestionContext(state)))
}

// suggestionContext derives the suggestion detail from session state
func suggestionContext(state *models.OrchestratorState) phase.SuggestionContext {
	return phase.SuggestionContext{
		SpecName:       filepath.Base(state.Metadata.ProjectPath),
		ComponentCount: len(state.Tasks),
		SprintCurrent:  len(state.CompletedTasks),
		SprintTotal:    len(state.Tasks),
	}
}
