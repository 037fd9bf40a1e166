package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the presence CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "presence",
		Short:         "Attendance reconciliation between the time tracker, the HR system and the curated roster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSyncCmd(),
		newSyncDayCmd(),
		newDiffCmd(),
		newMigrateCmd(),
		newSeedCmd(),
	)
	return root
}
