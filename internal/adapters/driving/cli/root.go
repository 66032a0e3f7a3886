// Package cli provides the cobra command tree for clausewise.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
	"github.com/custodia-labs/clausewise/internal/logger"
)

var (
	// version is set at build time.
	version = "dev"

	policyService   driving.PolicyService
	settingsService driving.SettingsService

	// defaultTopK is used when a command is run without -k.
	defaultTopK = domain.DefaultTopK
)

var (
	errPolicyNotConfigured   = errors.New("policy service not configured")
	errSettingsNotConfigured = errors.New("settings service not configured")
)

var rootCmd = &cobra.Command{
	Use:   "clausewise",
	Short: "Decode and question insurance policy documents",
	Long: `clausewise turns an insurance policy PDF into numbered clauses, indexes them
for semantic retrieval and answers plain-language questions about the cover.

A policy reference may be a local path, file://path, gdrive://<file-id>,
dropbox://<path> or github://owner/repo/path[@ref]. Each decoded policy becomes a session that later
commands address by ID.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// SetServices installs the services used by commands.
func SetServices(policy driving.PolicyService, settings driving.SettingsService) {
	policyService = policy
	settingsService = settings
}

// SetDefaultTopK sets the retrieval depth used when -k is not given.
func SetDefaultTopK(k int) {
	if k > 0 {
		defaultTopK = k
	}
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx available to every command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func requirePolicy() error {
	if policyService == nil {
		return errPolicyNotConfigured
	}
	return nil
}
