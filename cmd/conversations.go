package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/panacea-app/panacea-cli/internal/api"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs"},
	Short:   "Manage saved conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, newest first",
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show one conversation's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func runConversationsList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	convs, err := a.client.ListConversations(cmd.Context())
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	for _, conv := range convs {
		title := conv.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %-40s  %s\n", conv.ID, title, formatTime(conv.UpdatedAt))
	}
	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	conv, err := a.client.GetConversation(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Title: %s\n", conv.Title)
	fmt.Printf("Created: %s\n", formatTime(conv.CreatedAt))
	fmt.Printf("Messages: %d\n\n", len(conv.Messages))

	for _, msg := range conv.Messages {
		switch msg.Role {
		case api.RoleUser:
			fmt.Printf("You> %s\n\n", msg.Content)
		case api.RoleAssistant:
			fmt.Printf("Panacea> %s\n\n", msg.Content)
		case api.RoleToolResult:
			fmt.Printf("[%s result]\n\n", msg.ToolName)
		}
	}
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.client.DeleteConversation(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted conversation %s\n", args[0])
	return nil
}

// formatTime renders timestamps relative for recent activity.
func formatTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
