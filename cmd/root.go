// Package cmd wires the CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "panacea",
	Short: "Panacea - job application copilot in your terminal",
	Long: `Panacea is a terminal client for the Panacea job application
assistant. It streams chat with the assistant, renders tool results
like job listings and resume scores inline, and keeps generated
documents in an artifact panel.

Running panacea with no arguments starts the interactive chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
