package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/appcatalog/internal/query"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Search    SearchConfig      `yaml:"search"`
	Events    EventsConfig      `yaml:"events"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	CORS      CORSConfig        `yaml:"cors"`
	Analytics AnalyticsConfig   `yaml:"analytics"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.Catalog, &c.Search, &c.Events, &c.RateLimit, &c.CORS, &c.Analytics, &c.Auth,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CatalogConfig names the source document of every locale.
type CatalogConfig struct {
	DefaultLocale  string            `yaml:"default_locale"`
	Sources        map[string]string `yaml:"sources"`
	IgnoreSections []string          `yaml:"ignore_sections"`
	Watch          bool              `yaml:"watch"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DefaultLocale, validation.Required),
		validation.Field(&c.Sources, validation.Required, validation.Each(validation.Required)),
	); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if _, ok := c.Sources[c.DefaultLocale]; !ok {
		return fmt.Errorf("catalog: default_locale %q has no source", c.DefaultLocale)
	}
	return nil
}

// SearchConfig bounds per-request search work.
type SearchConfig struct {
	CandidateCap    int `yaml:"candidate_cap"`
	DefaultLimit    int `yaml:"default_limit"`
	MaxLimit        int `yaml:"max_limit"`
	SuggestionLimit int `yaml:"suggestion_limit"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.CandidateCap, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxLimit, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&c.SuggestionLimit, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("search: default_limit %d exceeds max_limit %d", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}

// QueryConfig converts the section into query service limits.
func (c *SearchConfig) QueryConfig() query.Config {
	return query.Config{
		CandidateCap:    c.CandidateCap,
		DefaultLimit:    c.DefaultLimit,
		MaxLimit:        c.MaxLimit,
		SuggestionLimit: c.SuggestionLimit,
	}
}

// EventsConfig controls server-sent catalog events.
type EventsConfig struct {
	// Throttle is the minimum interval between catalog.updated events per locale.
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RPS, validation.When(c.Enabled, validation.Required, validation.Min(0.0))),
		validation.Field(&c.Burst, validation.When(c.Enabled, validation.Required, validation.Min(1))),
	)
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Validate validates the CORS configuration.
func (c *CORSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AllowedOrigins, validation.Each(validation.Required)),
	)
}

// AnalyticsConfig holds search analytics storage configuration.
type AnalyticsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SQLitePath string `yaml:"sqlite_path"`
	Workers    int    `yaml:"workers"`
}

// Validate validates the analytics configuration.
func (c *AnalyticsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Workers, validation.When(c.Enabled, validation.Required, validation.Min(1))),
	)
}

// AuthConfig holds authentication configuration for the admin routes.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	q := query.DefaultConfig()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Catalog: CatalogConfig{
			DefaultLocale:  "en",
			Sources:        map[string]string{"en": "./data/README.md"},
			IgnoreSections: []string{"Contents"},
			Watch:          true,
		},
		Search: SearchConfig{
			CandidateCap:    q.CandidateCap,
			DefaultLimit:    q.DefaultLimit,
			MaxLimit:        q.MaxLimit,
			SuggestionLimit: q.SuggestionLimit,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     10,
			Burst:   20,
		},
		Analytics: AnalyticsConfig{
			Enabled:    false,
			SQLitePath: "./appcatalog.db",
			Workers:    2,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
