// Command drivequery asks an OpenAI assistant questions about the files in a
// Google Drive folder tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/drivequery/internal/adapters/driven/assistant/openai"
	"github.com/custodia-labs/drivequery/internal/adapters/driven/auth"
	"github.com/custodia-labs/drivequery/internal/adapters/driven/config/file"
	"github.com/custodia-labs/drivequery/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/drivequery/internal/adapters/driving/cli"
	"github.com/custodia-labs/drivequery/internal/connectors/google"
	"github.com/custodia-labs/drivequery/internal/connectors/google/docs"
	"github.com/custodia-labs/drivequery/internal/connectors/google/drive"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
	"github.com/custodia-labs/drivequery/internal/core/services"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// A .env in the working directory may carry OPENAI_API_KEY.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	configDir, err := file.DefaultDir()
	if err != nil {
		return err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	var authorizer driven.OAuthAuthorizer
	if oauthConfig, err := auth.LoadConfig(settings.Google.CredentialsFile); err != nil {
		logger.Debug("Google client credentials unavailable: %v", err)
	} else {
		authorizer = auth.NewOAuthFlow(oauthConfig)
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings: settingsService,
		Auth:     services.NewAuthService(authorizer, store.CredentialsStore()),
		History:  services.NewRunHistory(store.RunStore()),
		Query:    queryFactory(store),

		VerifyAssistant: verifyAssistant,
	})

	return cli.Execute(ctx)
}

// verifyAssistant checks the configured OpenAI key against the API.
func verifyAssistant(ctx context.Context, settings *domain.AppSettings) error {
	a, err := openai.New(openai.ConfigFromSettings(settings.Assistant))
	if err != nil {
		return err
	}
	return a.Ping(ctx)
}

// queryFactory wires the Drive, Docs and OpenAI clients for one command.
func queryFactory(store *sqlite.Store) cli.QueryFactory {
	return func(ctx context.Context, settings *domain.AppSettings) (driving.QueryService, error) {
		oauthConfig, err := auth.LoadConfig(settings.Google.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAuthRequired, err)
		}
		tokens := google.NewTokenSource(ctx, auth.NewTokenProvider(oauthConfig, store.CredentialsStore(), nil))

		driveSvc, err := google.NewDriveService(ctx, tokens)
		if err != nil {
			return nil, err
		}
		docsSvc, err := google.NewDocsService(ctx, tokens)
		if err != nil {
			return nil, err
		}

		driveLimiter := google.NewRateLimiter(google.ServiceDrive)
		lister := services.NewRetryingLister(
			drive.NewLister(driveSvc, driveLimiter, drive.ConfigFromSettings(settings.Drive)),
			settings.Drive.Retries,
			services.DefaultRetryBackoff,
		)
		collector := services.NewCollector(lister, settings.Drive.CollectOptions())

		var assistant driven.DocumentAssistant
		if a, err := openai.New(openai.ConfigFromSettings(settings.Assistant)); err != nil {
			logger.Debug("Assistant disabled: %v", err)
		} else {
			assistant = a
		}

		writer := docs.NewWriter(docsSvc, driveSvc, settings.Docs.FolderID, google.NewRateLimiter(google.ServiceDocs))

		return services.NewQueryService(
			collector,
			drive.NewDownloader(driveSvc, driveLimiter),
			assistant,
			writer,
			store.UploadStore(),
			store.RunStore(),
			services.QueryConfigFromSettings(settings),
		), nil
	}
}
