package driving

import (
	"context"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Load returns current settings with defaults and environment overrides applied.
	Load() (domain.Settings, error)

	// Set validates and stores one configuration key.
	Set(key string, value string) error

	// Get returns the stored value for key, if any.
	Get(key string) (string, bool)

	// Keys returns every supported key.
	Keys() []string

	// Path returns the configuration file path.
	Path() string

	// Validate checks the configured providers by calling them once.
	Validate(ctx context.Context) error
}
