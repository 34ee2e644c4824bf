package drive

import "github.com/custodia-labs/drivequery/internal/core/domain"

// listFields is the partial response requested for folder listings.
const listFields = "nextPageToken, files(id, name, mimeType)"

// Config holds Google Drive connector configuration.
type Config struct {
	// PageSize is the page size for list requests (1..1000).
	PageSize int64
	// AllDrives includes shared drives in listings.
	AllDrives bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:  domain.MaxPageSize,
		AllDrives: true,
	}
}

// ConfigFromSettings derives connector configuration from drive settings.
func ConfigFromSettings(s domain.DriveSettings) Config {
	cfg := DefaultConfig()
	if s.PageSize > 0 && s.PageSize <= domain.MaxPageSize {
		cfg.PageSize = int64(s.PageSize)
	}
	return cfg
}

// normalised clamps the page size into the range Drive accepts.
func (c Config) normalised() Config {
	if c.PageSize <= 0 || c.PageSize > domain.MaxPageSize {
		c.PageSize = domain.MaxPageSize
	}
	return c
}
