// Package cli provides the drivequery command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// version is set at build time.
var version = "dev"

// QueryFactory builds a query service for the given settings. It is called
// per command so flag overrides reach the Drive and assistant clients.
type QueryFactory func(ctx context.Context, settings *domain.AppSettings) (driving.QueryService, error)

// Services are the driving ports the commands use.
type Services struct {
	Settings driving.SettingsService
	Auth     driving.AuthService
	History  driving.RunHistory
	Query    QueryFactory

	// VerifyAssistant checks the OpenAI credentials in settings. Optional.
	VerifyAssistant func(ctx context.Context, settings *domain.AppSettings) error
}

var deps Services

var rootCmd = &cobra.Command{
	Use:   "drivequery",
	Short: "Ask questions about the files in a Google Drive folder",
	Long: `drivequery walks a shared Google Drive folder, downloads every PDF and
Google Workspace file beneath it, and asks an OpenAI assistant a question
against the whole set. The answer is printed and written to a Google Doc.

Get started:
  drivequery auth login
  drivequery config set openai.api_key
  drivequery ask https://drive.google.com/drive/folders/<id> "What changed?"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging to stderr")
}

// SetServices configures the services used by the commands.
func SetServices(s Services) {
	deps = s
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadSettings reads the stored settings and applies command flag overrides.
func loadSettings(cmd *cobra.Command) (*domain.AppSettings, error) {
	if deps.Settings == nil {
		return nil, errors.New("settings service not configured")
	}

	settings, err := deps.Settings.Get()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		settings.Drive.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("concurrency") {
		settings.Drive.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("dedupe") {
		settings.Drive.Dedupe, _ = flags.GetBool("dedupe")
	}
	if flags.Changed("skip-failed") {
		settings.Drive.SkipFailedFolders, _ = flags.GetBool("skip-failed")
	}
	if flags.Changed("dir") {
		settings.DownloadDir, _ = flags.GetString("dir")
	}
	return settings, nil
}

// queryService builds the pipeline for a command.
func queryService(cmd *cobra.Command) (driving.QueryService, *domain.AppSettings, error) {
	if deps.Query == nil {
		return nil, nil, errors.New("query service not configured")
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}
	query, err := deps.Query(cmd.Context(), settings)
	if err != nil {
		return nil, nil, err
	}
	return query, settings, nil
}

// addWalkFlags registers the folder walk overrides on cmd.
func addWalkFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-depth", domain.DefaultMaxDepth, "Maximum folder depth below the root")
	cmd.Flags().Int("concurrency", domain.DefaultCollectConcurrency, "Concurrent folder listings")
	cmd.Flags().Bool("dedupe", false, "Drop files reachable through more than one folder")
	cmd.Flags().Bool("skip-failed", false, "Skip folders that fail to list instead of aborting")
}
