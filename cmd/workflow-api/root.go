package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:          "workflow-api",
	Short:        "TerraMatch status transition and task workflow service",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(reconcileTasksCmd)
	rootCmd.AddCommand(setStatusCmd)
}
