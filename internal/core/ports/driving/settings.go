package driving

import "github.com/custodia-labs/drivequery/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// SetValue parses and stores a single dotted key.
	SetValue(key, value string) error

	// Values returns every known key with its current effective value.
	Values() (map[string]string, error)
}
