package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mklein/coco/internal/checkpoint"
)

// NewCheckpointsCommand creates the 'coco checkpoints' command group
func NewCheckpointsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "List checkpointed sessions for a project",
		Long: `List the checkpointed sessions under <project>/.coco/checkpoints,
most recent first. Unreadable or corrupt checkpoint files are skipped.`,
		Args: cobra.NoArgs,
		RunE: runCheckpointsList,
	}

	cmd.PersistentFlags().String("project", ".", "Project directory")

	cmd.AddCommand(newCheckpointsDeleteCommand())

	return cmd
}

// newCheckpointsDeleteCommand creates 'coco checkpoints delete'
func newCheckpointsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session's checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckpointsDelete,
	}
}

// runCheckpointsList executes the checkpoints listing
func runCheckpointsList(cmd *cobra.Command, args []string) error {
	store, err := storeForProject(cmd)
	if err != nil {
		return err
	}

	infos, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintf(out, "No checkpoints found in %s\n", store.Dir())
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(out, "\n=== Checkpoints in %s ===\n\n", store.Dir())
	for _, info := range infos {
		fmt.Fprintf(out, "  %s\n", info.SessionID)
		fmt.Fprintf(out, "    Phase: %s\n", info.Phase)
		fmt.Fprintf(out, "    Saved: %s (%s ago)\n",
			info.ModTime.Format(time.RFC3339), time.Since(info.ModTime).Round(time.Second))
	}
	fmt.Fprintf(out, "\n%d checkpoint(s)\n", len(infos))

	return nil
}

// runCheckpointsDelete executes checkpoint deletion
func runCheckpointsDelete(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	store, err := storeForProject(cmd)
	if err != nil {
		return err
	}

	if !store.Has(sessionID) {
		return fmt.Errorf("no checkpoint found for session %s", sessionID)
	}
	if err := store.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted checkpoint for session %s\n", sessionID)
	return nil
}

// storeForProject builds a checkpoint store from the --project flag
func storeForProject(cmd *cobra.Command) (*checkpoint.Store, error) {
	projectFlag, _ := cmd.Flags().GetString("project")
	projectPath, err := filepath.Abs(projectFlag)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	return checkpoint.NewStore(projectPath, nil), nil
}
