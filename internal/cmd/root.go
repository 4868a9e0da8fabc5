package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for coco
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coco",
		Short: "Autonomous coding pipeline orchestration engine",
		Long: `Coco drives an autonomous coding session through four ordered
phases: converge on a specification, orchestrate the component plan,
complete the implementation, and produce the final output.

Every phase boundary is checkpointed to .coco/checkpoints/ so an
interrupted session can be resumed exactly where it stopped.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewResumeCommand())
	cmd.AddCommand(NewCheckpointsCommand())

	return cmd
}
