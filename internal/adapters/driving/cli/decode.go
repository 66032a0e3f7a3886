package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <ref>",
	Short: "Decode a policy document into a session",
	Long: `Fetch a policy, extract its pages, split them into clauses and index the
clauses for retrieval.

The reference may be a local path, file://path, gdrive://<file-id> (needs
GOOGLE_API_KEY), dropbox://<path> (needs DROPBOX_TOKEN) or
github://owner/repo/path[@ref] (GITHUB_TOKEN for private repositories). Indexing problems do not fail the command; the
session is created with a degraded index and plain clause listing still works.

Examples:
  clausewise decode ./home-policy.pdf
  clausewise decode github://acme/policies/home/2026.pdf@main
  clausewise decode --json ./policy.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().Bool("json", false, "Print the session summary as JSON")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	session, err := policyService.Decode(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), session.Summary())
	}

	printSession(cmd, session)
	return nil
}

func printSession(cmd *cobra.Command, s *domain.Session) {
	cmd.Printf("Session:  %s\n", s.ID)
	cmd.Printf("File:     %s\n", s.DisplayName())
	cmd.Printf("Pages:    %d\n", s.PageCount)
	cmd.Printf("Clauses:  %d\n", len(s.Clauses))
	cmd.Printf("Index:    %s\n", s.IndexState())
	if s.Index.IsDegraded() {
		cmd.Printf("Warning:  semantic search unavailable: %s\n", s.Index.Reason())
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
