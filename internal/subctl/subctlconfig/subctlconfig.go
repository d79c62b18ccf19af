// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlconfig provides configuration parsing and validation for subctl.
//
// Configuration is stored at subctl.yaml within the base directory given by --dir.
package subctlconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bufdev/subctl/internal/pkg/currencyapi"
	"github.com/bufdev/subctl/internal/pkg/exchangerateapi"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/subctl/subctlpath"
	"gopkg.in/yaml.v3"
)

const (
	// PrimaryURLEnvKey overrides rates.primary_url.
	PrimaryURLEnvKey = "SUBCTL_PRIMARY_URL"
	// FallbackURLEnvKey overrides rates.fallback_url.
	FallbackURLEnvKey = "SUBCTL_FALLBACK_URL"

	defaultTimeout       = 10 * time.Second
	defaultCacheTTL      = 24 * time.Hour
	defaultRetryAttempts = 1
)

// StorageBackend selects where subscriptions, preferences, and cached rates are kept.
type StorageBackend string

const (
	// StorageBackendDir keeps one file per key in the data directory.
	StorageBackendDir StorageBackend = "dir"
	// StorageBackendSQLite keeps keys in a SQLite database in the data directory.
	StorageBackendSQLite StorageBackend = "sqlite"
	// StorageBackendMemory keeps keys in memory for the life of the process.
	StorageBackendMemory StorageBackend = "memory"
)

// configTemplate is the configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
//
// The verbs are filled with the reporting currency, the view period, and the
// storage backend.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# The currency totals are reported in, for example EUR.
#
# Optional. When empty, the stored preference is used, falling back to the
# most common currency among your subscriptions.
reporting_currency: %q
# The default period totals are expressed in: weekly, monthly, or yearly.
#
# Optional. Defaults to monthly.
view_period: %s
storage:
  # Where data is kept: dir, sqlite, or memory.
  #
  # Optional. Defaults to dir.
  backend: %s
# Exchange rate configuration.
#
# Optional. The URLs can also be set with the SUBCTL_PRIMARY_URL and
# SUBCTL_FALLBACK_URL environment variables.
rates:
  primary_url: https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies
  fallback_url: https://api.exchangerate-api.com/v4/latest
  # The timeout for each request to a rate source.
  timeout: 10s
  # How long fetched rates are reused before fetching again.
  cache_ttl: 24h
  # The number of attempts per rate source for transient failures.
  retry_attempts: 1
`

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version"`
	// ReportingCurrency is the optional reporting currency code.
	ReportingCurrency string `yaml:"reporting_currency"`
	// ViewPeriod is the optional default view period.
	ViewPeriod string `yaml:"view_period"`
	// Storage holds the storage configuration.
	Storage ExternalStorageConfig `yaml:"storage"`
	// Rates holds the exchange rate configuration.
	Rates ExternalRatesConfig `yaml:"rates"`
}

// ExternalStorageConfig holds storage configuration.
type ExternalStorageConfig struct {
	// Backend is one of dir, sqlite, memory.
	Backend string `yaml:"backend"`
}

// ExternalRatesConfig holds exchange rate configuration.
type ExternalRatesConfig struct {
	PrimaryURL    string `yaml:"primary_url"`
	FallbackURL   string `yaml:"fallback_url"`
	Timeout       string `yaml:"timeout"`
	CacheTTL      string `yaml:"cache_ttl"`
	RetryAttempts *int   `yaml:"retry_attempts"`
}

// Config is the validated runtime configuration derived from the config file.
type Config struct {
	// ReportingCurrency is the uppercase reporting currency, or empty.
	ReportingCurrency string
	// ViewPeriod is the default view period.
	ViewPeriod period.Period
	// StorageBackend is the storage backend.
	StorageBackend StorageBackend
	// PrimaryURL is the base URL of the primary rate source.
	PrimaryURL string
	// FallbackURL is the base URL of the secondary rate source.
	FallbackURL string
	// Timeout bounds each request to a rate source.
	Timeout time.Duration
	// CacheTTL is how long a cached rate table is fresh.
	CacheTTL time.Duration
	// RetryAttempts is the number of attempts per rate source.
	RetryAttempts int
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		ViewPeriod:     period.Monthly,
		StorageBackend: StorageBackendDir,
		PrimaryURL:     currencyapi.DefaultBaseURL,
		FallbackURL:    exchangerateapi.DefaultBaseURL,
		Timeout:        defaultTimeout,
		CacheTTL:       defaultCacheTTL,
		RetryAttempts:  defaultRetryAttempts,
	}
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
//
// Empty optional fields take their defaults.
func NewConfig(externalConfig ExternalConfig) (*Config, error) {
	if externalConfig.Version != "v1" {
		return nil, fmt.Errorf("unsupported config version %q, must be v1", externalConfig.Version)
	}
	config := DefaultConfig()
	config.ReportingCurrency = strings.ToUpper(strings.TrimSpace(externalConfig.ReportingCurrency))
	if externalConfig.ViewPeriod != "" {
		viewPeriod, err := period.ParsePeriod(externalConfig.ViewPeriod)
		if err != nil {
			return nil, fmt.Errorf("view_period: %w", err)
		}
		config.ViewPeriod = viewPeriod
	}
	if externalConfig.Storage.Backend != "" {
		storageBackend, err := ParseStorageBackend(externalConfig.Storage.Backend)
		if err != nil {
			return nil, fmt.Errorf("storage.backend: %w", err)
		}
		config.StorageBackend = storageBackend
	}
	rates := externalConfig.Rates
	if rates.PrimaryURL != "" {
		if err := validateURL(rates.PrimaryURL); err != nil {
			return nil, fmt.Errorf("rates.primary_url: %w", err)
		}
		config.PrimaryURL = rates.PrimaryURL
	}
	if rates.FallbackURL != "" {
		if err := validateURL(rates.FallbackURL); err != nil {
			return nil, fmt.Errorf("rates.fallback_url: %w", err)
		}
		config.FallbackURL = rates.FallbackURL
	}
	if rates.Timeout != "" {
		timeout, err := parsePositiveDuration(rates.Timeout)
		if err != nil {
			return nil, fmt.Errorf("rates.timeout: %w", err)
		}
		config.Timeout = timeout
	}
	if rates.CacheTTL != "" {
		cacheTTL, err := parsePositiveDuration(rates.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("rates.cache_ttl: %w", err)
		}
		config.CacheTTL = cacheTTL
	}
	if rates.RetryAttempts != nil {
		if *rates.RetryAttempts < 1 {
			return nil, errors.New("rates.retry_attempts must be at least 1")
		}
		config.RetryAttempts = *rates.RetryAttempts
	}
	return config, nil
}

// ParseStorageBackend parses a storage backend name.
func ParseStorageBackend(s string) (StorageBackend, error) {
	switch storageBackend := StorageBackend(strings.ToLower(strings.TrimSpace(s))); storageBackend {
	case StorageBackendDir, StorageBackendSQLite, StorageBackendMemory:
		return storageBackend, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q, must be one of dir, sqlite, memory", s)
	}
}

// ApplyEnv overrides the rate source URLs from SUBCTL_PRIMARY_URL and
// SUBCTL_FALLBACK_URL when they are set.
func ApplyEnv(config *Config, getenv func(string) string) error {
	if primaryURL := getenv(PrimaryURLEnvKey); primaryURL != "" {
		if err := validateURL(primaryURL); err != nil {
			return fmt.Errorf("%s: %w", PrimaryURLEnvKey, err)
		}
		config.PrimaryURL = primaryURL
	}
	if fallbackURL := getenv(FallbackURLEnvKey); fallbackURL != "" {
		if err := validateURL(fallbackURL); err != nil {
			return fmt.Errorf("%s: %w", FallbackURLEnvKey, err)
		}
		config.FallbackURL = fallbackURL
	}
	return nil
}

// ReadConfig reads and validates the configuration file from the given base directory.
// Returns a clear error message directing users to run "subctl config init" if the file is missing.
func ReadConfig(dirPath string) (*Config, error) {
	filePath := subctlpath.ConfigFilePath(dirPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found at %s, run \"subctl config init\" to create one: %w", filePath, err)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	return NewConfig(externalConfig)
}

// ReadConfigOrDefault is ReadConfig, but returns DefaultConfig if the file does not exist.
func ReadConfigOrDefault(dirPath string) (*Config, error) {
	config, err := ReadConfig(dirPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return config, nil
}

// InitConfigOption is an option for InitConfig.
type InitConfigOption func(*initConfigOptions)

// InitConfigWithReportingCurrency sets reporting_currency in the created file.
func InitConfigWithReportingCurrency(currency string) InitConfigOption {
	return func(initConfigOptions *initConfigOptions) {
		initConfigOptions.reportingCurrency = strings.ToUpper(strings.TrimSpace(currency))
	}
}

// InitConfigWithViewPeriod sets view_period in the created file.
func InitConfigWithViewPeriod(viewPeriod period.Period) InitConfigOption {
	return func(initConfigOptions *initConfigOptions) {
		initConfigOptions.viewPeriod = viewPeriod
	}
}

// InitConfigWithStorageBackend sets storage.backend in the created file.
func InitConfigWithStorageBackend(storageBackend StorageBackend) InitConfigOption {
	return func(initConfigOptions *initConfigOptions) {
		initConfigOptions.storageBackend = storageBackend
	}
}

// InitConfig creates a new configuration file with a documented template.
// Creates the base directory if it does not exist.
//
// The rendered file is validated before it is written. Returns the validated
// config and the path to the created file, or an error if the file already exists.
func InitConfig(dirPath string, options ...InitConfigOption) (*Config, string, error) {
	initConfigOptions := newInitConfigOptions()
	for _, option := range options {
		option(initConfigOptions)
	}
	data := []byte(
		fmt.Sprintf(
			configTemplate,
			initConfigOptions.reportingCurrency,
			initConfigOptions.viewPeriod,
			initConfigOptions.storageBackend,
		),
	)
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, "", err
	}
	config, err := NewConfig(externalConfig)
	if err != nil {
		return nil, "", err
	}
	filePath := subctlpath.ConfigFilePath(dirPath)
	if _, err := os.Stat(filePath); err == nil {
		return nil, "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return nil, "", err
	}
	return config, filePath, nil
}

// ValidateConfig reads and validates the configuration file from the given base directory.
func ValidateConfig(dirPath string) error {
	_, err := ReadConfig(dirPath)
	return err
}

// *** PRIVATE ***

type initConfigOptions struct {
	reportingCurrency string
	viewPeriod        period.Period
	storageBackend    StorageBackend
}

func newInitConfigOptions() *initConfigOptions {
	return &initConfigOptions{
		viewPeriod:     period.Monthly,
		storageBackend: StorageBackendDir,
	}
}

func validateURL(s string) error {
	parsed, err := url.Parse(s)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", s)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL %q has no host", s)
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if duration <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return duration, nil
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
