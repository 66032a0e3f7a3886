package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Decode every policy dropped into a directory",
	Long: `Watch an inbox directory and decode each new policy file once it stops
changing. Each decode creates a session exactly like 'clausewise decode'.

Runs until interrupted.

Examples:
  clausewise watch ~/policies/inbox
  clausewise watch --ext .pdf --debounce 2s ./inbox`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSlice("ext", []string{".pdf", ".docx", ".html", ".txt"}, "File extensions to decode")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a file is decoded")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	exts, _ := cmd.Flags().GetStringSlice("ext")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	w := watch.New(args[0], policyService,
		watch.WithDebounce(debounce),
		watch.WithSupports(extensionFilter(exts)),
	)

	cmd.Printf("Watching %s for %s (Ctrl+C to stop)\n", args[0], strings.Join(exts, ", "))
	return w.Run(cmd.Context(), func(r watch.Result) {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			cmd.PrintErrf("%s: %v\n", name, r.Err)
			return
		}
		cmd.Printf("%s: session %s (%d clauses, index %s)\n",
			name, r.Session.ID, len(r.Session.Clauses), r.Session.IndexState())
	})
}

// extensionFilter matches paths by case-insensitive extension.
func extensionFilter(exts []string) func(string) bool {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}
	return func(path string) bool {
		return allowed[strings.ToLower(filepath.Ext(path))]
	}
}
