package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/panacea-app/panacea-cli/internal/api"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question without entering the chat interface",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

// runAsk creates a throwaway conversation, streams the answer to stdout
// token by token, and prints tool activity to stderr so stdout stays
// pipeable.
func runAsk(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	question := strings.Join(args, " ")

	conv, err := a.client.CreateConversation(ctx, "", nil)
	if err != nil {
		return err
	}

	for event, err := range a.client.StreamMessage(ctx, conv.ID, question, nil) {
		if err != nil {
			return err
		}
		switch event.Type {
		case api.EventText:
			fmt.Print(event.Text)
		case api.EventToolStart:
			fmt.Fprintf(os.Stderr, "[%s...]\n", event.Tool)
		case api.EventDone:
			fmt.Println()
			return nil
		}
	}

	fmt.Println()
	return nil
}
