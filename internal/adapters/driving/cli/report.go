package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// minWrapWidth stops wrapping on very narrow terminals.
const minWrapWidth = 40

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Print or save the plain-text policy report",
	Long: `Compile the analysed policy into a plain-text report containing the
overall summary and one section per page.

The session must have been analysed first. Use -o to write the report to a
file instead of standard output.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringP("output", "o", "", "Write the report to this file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	report, err := policyService.Report(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		if err := os.WriteFile(output, []byte(report), 0o600); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		cmd.Printf("Report written to %s\n", output)
		return nil
	}

	if w := terminalWidth(cmd.OutOrStdout()); w > 0 {
		report = lipgloss.NewStyle().Width(w).Render(report)
	}
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}

// terminalWidth returns the width of w when it is a terminal, or 0.
func terminalWidth(w any) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < minWrapWidth {
		return 0
	}
	return width
}
