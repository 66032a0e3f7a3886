package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui <session-id>",
	Short: "Browse a decoded policy in the terminal UI",
	Long: `Open an interactive view of a decoded policy.

Views (tab to cycle): Clauses, Analysis, Query, Help.

Controls:
  ↑/k, ↓/j - Move through clauses or results
  /        - Focus the question box
  Enter    - Run the question
  a        - Analyse the policy (Analysis view)
  Esc      - Back / leave the question box
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(policyService), args[0], defaultTopK)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
