package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <session-id>",
	Short: "Summarise and classify each page with the LLM",
	Long: `Run the LLM over the decoded policy to produce an overall summary and a
per-page classification (Coverage, Exclusions, Claims Process,
Deductibles/Limits, General Terms, Definitions).

The result is stored on the session and used by the report command.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var queryCmd = &cobra.Command{
	Use:   "query <session-id> <question>",
	Short: "Ask a question about a decoded policy",
	Long: `Retrieve the clauses most relevant to a question.

Examples:
  clausewise query 3f2a... "Am I covered for flood damage?"
  clausewise query -k 10 3f2a... "excess on claims"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

var clausesCmd = &cobra.Command{
	Use:   "clauses <session-id>",
	Short: "List the clauses of a decoded policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runClauses,
}

var termsCmd = &cobra.Command{
	Use:   "terms <session-id>",
	Short: "Show the clauses that define key policy terms",
	Args:  cobra.ExactArgs(1),
	RunE:  runTerms,
}

func init() {
	queryCmd.Flags().IntP("top-k", "k", 0, "Number of clauses to return (default from settings)")
	clausesCmd.Flags().Bool("json", false, "Print clauses as JSON")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(clausesCmd)
	rootCmd.AddCommand(termsCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	analysis, err := policyService.Analyze(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	cmd.Println("Summary")
	cmd.Println("=======")
	cmd.Println(analysis.FullSummary)
	cmd.Println()

	if len(analysis.Pages) == 0 {
		return nil
	}
	cmd.Println("Pages")
	cmd.Println("=====")
	for _, p := range analysis.Pages {
		cmd.Printf("Page %d [%s]\n", p.PageNumber, p.Classification)
		cmd.Printf("  %s\n", p.Summary)
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	k, _ := cmd.Flags().GetInt("top-k")
	if k < 0 {
		return fmt.Errorf("k must be positive, got %d", k)
	}
	if k == 0 {
		k = defaultTopK
	}

	question := strings.Join(args[1:], " ")
	answer, err := policyService.Query(cmd.Context(), args[0], question, k)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println(answer)
	return nil
}

func runClauses(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	clauses, err := policyService.Clauses(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing clauses: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), clauses)
	}

	if len(clauses) == 0 {
		cmd.Println("No clauses found.")
		return nil
	}
	for _, c := range clauses {
		cmd.Printf("[%s] (page %d)\n%s\n\n", c.Label(), c.PageNum, c.Text)
	}
	cmd.Printf("%d clauses\n", len(clauses))
	return nil
}

func runTerms(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	text, err := policyService.KeyTerms(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("key terms failed: %w", err)
	}

	cmd.Println(text)
	return nil
}
