package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/panacea-app/panacea-cli/internal/autoapply"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Drive browser-automation job applications",
}

var applyStartCmd = &cobra.Command{
	Use:   "start <application-id>",
	Short: "Start an auto-apply task for an application",
	Args:  cobra.ExactArgs(1),
	RunE:  runApplyStart,
}

var applyWatchCmd = &cobra.Command{
	Use:   "watch <task-id>",
	Short: "Stream a task's status until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runApplyWatch,
}

var applyCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Abort a running task",
	Args:  cobra.ExactArgs(1),
	RunE:  runApplyCancel,
}

var applyResumeID string

func init() {
	applyStartCmd.Flags().StringVar(&applyResumeID, "resume", "", "resume id to apply with (default: the active resume)")
	applyCmd.AddCommand(applyStartCmd)
	applyCmd.AddCommand(applyWatchCmd)
	applyCmd.AddCommand(applyCancelCmd)
	rootCmd.AddCommand(applyCmd)
}

func runApplyStart(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	status, err := a.client.StartAutoApply(cmd.Context(), args[0], applyResumeID)
	if err != nil {
		return err
	}

	fmt.Printf("Started task %s (%s)\n", status.TaskID, status.Status)
	fmt.Printf("Follow it with: panacea apply watch %s\n", status.TaskID)
	return nil
}

func runApplyWatch(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	return applyWatch(cmd.Context(), a, cmd.OutOrStdout(), args[0])
}

// applyWatch streams one task's status transitions to out, preferring
// the WebSocket and falling back to polling.
func applyWatch(ctx context.Context, a *app, out io.Writer, taskID string) error {
	watcher := autoapply.NewWatcher(a.client, a.logger)

	for status, err := range watcher.Watch(ctx, taskID) {
		if err != nil {
			return err
		}
		line := status.Status
		if status.Step != "" {
			line += "  " + status.Step
		}
		if status.Message != "" {
			line += "  " + status.Message
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runApplyCancel(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	watcher := autoapply.NewWatcher(a.client, a.logger)
	if err := watcher.Cancel(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Canceled task %s\n", args[0])
	return nil
}
