package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage decoded policy sessions",
	RunE:  runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show details of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its index",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsListCmd.Flags().Bool("json", false, "Print sessions as JSON")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	sessions, err := policyService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), sessions)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions. Decode a policy with 'clausewise decode <ref>'.")
		return nil
	}

	cmd.Printf("Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		analysed := ""
		if s.Analysed {
			analysed = ", analysed"
		}
		cmd.Printf("  %s  %s\n", s.ID, s.FileName)
		cmd.Printf("      %d pages, %d clauses, index %s%s, created %s\n",
			s.PageCount, s.ClauseCount, s.IndexState, analysed,
			s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	session, err := policyService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}

	printSession(cmd, session)
	cmd.Printf("Source:   %s\n", session.Source)
	cmd.Printf("Created:  %s\n", session.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if session.Analysis != nil {
		cmd.Println()
		cmd.Println("Summary:")
		cmd.Println(session.Analysis.FullSummary)
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	if err := policyService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	cmd.Printf("Deleted session %s\n", args[0])
	return nil
}
