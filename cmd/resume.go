package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/panacea-app/panacea-cli/internal/editor"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage the resume library and prompt-driven edits",
}

var resumeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded resumes",
	RunE:  runResumeList,
}

var resumeEditCmd = &cobra.Command{
	Use:   "edit <resume-id> <prompt...>",
	Short: "Apply a prompt-driven edit and print the new version",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runResumeEdit,
}

var resumeVersionsCmd = &cobra.Command{
	Use:   "versions <resume-id>",
	Short: "List the edit versions of a resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runResumeVersions,
}

func init() {
	resumeCmd.AddCommand(resumeListCmd)
	resumeCmd.AddCommand(resumeEditCmd)
	resumeCmd.AddCommand(resumeVersionsCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runResumeList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	resumes, err := a.client.ListResumes(cmd.Context())
	if err != nil {
		return err
	}
	if len(resumes) == 0 {
		fmt.Println("No resumes uploaded yet.")
		return nil
	}

	for _, r := range resumes {
		marker := " "
		if r.Active {
			marker = "*"
		}
		fmt.Printf("%s %s  %-30s  %s\n", marker, r.ID, r.Name, formatTime(r.UploadedAt))
	}
	return nil
}

func runResumeEdit(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	prompt := strings.Join(args[1:], " ")
	return resumeEdit(cmd.Context(), a, cmd.OutOrStdout(), args[0], prompt)
}

// resumeEdit drives one edit through an editor session and prints the
// resulting version with its document URLs.
func resumeEdit(ctx context.Context, a *app, out io.Writer, resumeID, prompt string) error {
	session := editor.NewSession(a.client, resumeID, a.logger)

	if err := session.LoadFormMap(ctx, false); err != nil {
		return err
	}
	session.LoadVersions(ctx)

	if err := session.SubmitEdit(ctx, prompt, nil); err != nil {
		if msg := session.LastError(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}

	history := session.History()
	item := history[len(history)-1]

	fmt.Fprintf(out, "Applied edit: version %d (%d changes)\n", item.Version, len(item.Changes))
	for _, change := range item.Changes {
		if change.Section != "" {
			fmt.Fprintf(out, "  - %s: %s\n", change.Section, change.NewText)
		} else {
			fmt.Fprintf(out, "  - %s\n", change.NewText)
		}
	}
	fmt.Fprintf(out, "PDF:  %s\n", session.CurrentPDFURL())
	if diff := session.CurrentDiffURL(); diff != "" {
		fmt.Fprintf(out, "Diff: %s\n", diff)
	}
	return nil
}

func runResumeVersions(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	versions, err := a.client.ListResumeVersions(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("No edit versions yet.")
		return nil
	}

	for _, v := range versions {
		prompt := v.Prompt
		if prompt == "" {
			prompt = "(no prompt recorded)"
		}
		fmt.Printf("v%-3d  %2d changes  %-19s  %s\n", v.Version, v.ChangeCount, formatTime(v.CreatedAt), prompt)
	}
	return nil
}
