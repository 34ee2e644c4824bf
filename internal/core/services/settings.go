package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyGoogleCredentials   = "google.credentials_file"
	keyDriveMaxDepth       = "drive.max_depth"
	keyDriveConcurrency    = "drive.concurrency"
	keyDriveDedupe         = "drive.dedupe"
	keyDriveSkipFailed     = "drive.skip_failed_folders"
	keyDrivePageSize       = "drive.page_size"
	keyDriveRetries        = "drive.retries"
	keyDownloadDir         = "download.dir"
	keyOpenAIAPIKey        = "openai.api_key"
	keyOpenAIBaseURL       = "openai.base_url"
	keyOpenAIModel         = "openai.model"
	keyAssistantPrompt     = "assistant.instructions"
	keyAssistantPollSecs   = "assistant.poll_interval_seconds"
	keyAssistantTimeoutSec = "assistant.timeout_seconds"
	keyDocsTitle           = "docs.title"
	keyDocsFolderID        = "docs.folder_id"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvGoogleCredentials = "DRIVEQUERY_GOOGLE_CREDENTIALS"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
)

// settingKinds lists every key SetValue accepts.
var settingKinds = map[string]valueKind{
	keyGoogleCredentials:   kindString,
	keyDriveMaxDepth:       kindInt,
	keyDriveConcurrency:    kindInt,
	keyDriveDedupe:         kindBool,
	keyDriveSkipFailed:     kindBool,
	keyDrivePageSize:       kindInt,
	keyDriveRetries:        kindInt,
	keyDownloadDir:         kindString,
	keyOpenAIAPIKey:        kindString,
	keyOpenAIBaseURL:       kindString,
	keyOpenAIModel:         kindString,
	keyAssistantPrompt:     kindString,
	keyAssistantPollSecs:   kindInt,
	keyAssistantTimeoutSec: kindInt,
	keyDocsTitle:           kindString,
	keyDocsFolderID:        kindString,
}

// SettingKeys returns every supported setting key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// Environment overrides are read with os.Getenv.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// WithEnv replaces the environment lookup, for tests.
func (s *SettingsService) WithEnv(getenv func(string) string) *SettingsService {
	s.getenv = getenv
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Google: domain.GoogleSettings{
			CredentialsFile: s.getString(keyGoogleCredentials, defaults.Google.CredentialsFile),
		},
		Drive: domain.DriveSettings{
			MaxDepth:          s.getPositiveInt(keyDriveMaxDepth, defaults.Drive.MaxDepth),
			Concurrency:       s.getPositiveInt(keyDriveConcurrency, defaults.Drive.Concurrency),
			Dedupe:            s.getBool(keyDriveDedupe, defaults.Drive.Dedupe),
			SkipFailedFolders: s.getBool(keyDriveSkipFailed, defaults.Drive.SkipFailedFolders),
			PageSize:          s.getPageSize(defaults.Drive.PageSize),
			Retries:           s.getPositiveInt(keyDriveRetries, defaults.Drive.Retries),
		},
		DownloadDir: s.getString(keyDownloadDir, defaults.DownloadDir),
		Assistant: domain.AssistantSettings{
			APIKey:       s.configStore.GetString(keyOpenAIAPIKey),
			BaseURL:      s.configStore.GetString(keyOpenAIBaseURL), // empty means the public endpoint
			Model:        s.getString(keyOpenAIModel, defaults.Assistant.Model),
			Instructions: s.getString(keyAssistantPrompt, defaults.Assistant.Instructions),
			PollInterval: s.getSeconds(keyAssistantPollSecs, defaults.Assistant.PollInterval),
			Timeout:      s.getSeconds(keyAssistantTimeoutSec, defaults.Assistant.Timeout),
		},
		Docs: domain.DocsSettings{
			Title:    s.getString(keyDocsTitle, defaults.Docs.Title),
			FolderID: s.configStore.GetString(keyDocsFolderID),
		},
	}

	if v := s.getenv(EnvOpenAIAPIKey); v != "" {
		settings.Assistant.APIKey = v
	}
	if v := s.getenv(EnvGoogleCredentials); v != "" {
		settings.Google.CredentialsFile = v
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyGoogleCredentials, settings.Google.CredentialsFile},
		{keyDriveMaxDepth, settings.Drive.MaxDepth},
		{keyDriveConcurrency, settings.Drive.Concurrency},
		{keyDriveDedupe, settings.Drive.Dedupe},
		{keyDriveSkipFailed, settings.Drive.SkipFailedFolders},
		{keyDrivePageSize, settings.Drive.PageSize},
		{keyDriveRetries, settings.Drive.Retries},
		{keyDownloadDir, settings.DownloadDir},
		{keyOpenAIAPIKey, settings.Assistant.APIKey},
		{keyOpenAIBaseURL, settings.Assistant.BaseURL},
		{keyOpenAIModel, settings.Assistant.Model},
		{keyAssistantPrompt, settings.Assistant.Instructions},
		{keyAssistantPollSecs, int(settings.Assistant.PollInterval / time.Second)},
		{keyAssistantTimeoutSec, int(settings.Assistant.Timeout / time.Second)},
		{keyDocsTitle, settings.Docs.Title},
		{keyDocsFolderID, settings.Docs.FolderID},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// SetValue parses value according to key's type and stores it.
// An empty value removes the key so the default applies again.
func (s *SettingsService) SetValue(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if value == "" {
		return s.configStore.Delete(key)
	}

	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		if key == keyDrivePageSize && n > domain.MaxPageSize {
			return fmt.Errorf("%w: %s must be at most %d", domain.ErrInvalidInput, key, domain.MaxPageSize)
		}
		return s.configStore.Set(key, n)
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, b)
	default:
		return s.configStore.Set(key, strings.TrimSpace(value))
	}
}

// Values returns every supported key with its effective value.
func (s *SettingsService) Values() (map[string]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		keyGoogleCredentials:   settings.Google.CredentialsFile,
		keyDriveMaxDepth:       strconv.Itoa(settings.Drive.MaxDepth),
		keyDriveConcurrency:    strconv.Itoa(settings.Drive.Concurrency),
		keyDriveDedupe:         strconv.FormatBool(settings.Drive.Dedupe),
		keyDriveSkipFailed:     strconv.FormatBool(settings.Drive.SkipFailedFolders),
		keyDrivePageSize:       strconv.Itoa(settings.Drive.PageSize),
		keyDriveRetries:        strconv.Itoa(settings.Drive.Retries),
		keyDownloadDir:         settings.DownloadDir,
		keyOpenAIAPIKey:        settings.Assistant.APIKey,
		keyOpenAIBaseURL:       settings.Assistant.BaseURL,
		keyOpenAIModel:         settings.Assistant.Model,
		keyAssistantPrompt:     settings.Assistant.Instructions,
		keyAssistantPollSecs:   strconv.Itoa(int(settings.Assistant.PollInterval / time.Second)),
		keyAssistantTimeoutSec: strconv.Itoa(int(settings.Assistant.Timeout / time.Second)),
		keyDocsTitle:           settings.Docs.Title,
		keyDocsFolderID:        settings.Docs.FolderID,
	}, nil
}

// Helper methods for reading config values with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

func (s *SettingsService) getPageSize(defaultVal int) int {
	val := s.configStore.GetInt(keyDrivePageSize)
	if val <= 0 || val > domain.MaxPageSize {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if val := s.configStore.GetInt(key); val > 0 {
		return time.Duration(val) * time.Second
	}
	return defaultVal
}
