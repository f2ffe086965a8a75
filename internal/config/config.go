package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything SkyScout needs to reach the flight API and
// where to keep its own files.
type Config struct {
	APIKey      string
	APIHost     string
	BaseURL     string
	Locale      string
	Market      string
	Currency    string
	CountryCode string

	LogDir    string
	ExportDir string

	SuggestDelay   time.Duration
	MinQueryLength int
	RequestTimeout time.Duration
	CacheTTL       time.Duration // negative disables the lookup cache
	RateInterval   time.Duration
}

const (
	defaultConfigPath = "~/.config/skyscout/config.toml"
	defaultEnvPath    = ".env"
	defaultLogDir     = "~/.local/share/skyscout/logs"
	defaultExportDir  = "~/.local/share/skyscout/exports"

	defaultAPIHost        = "sky-scrapper.p.rapidapi.com"
	defaultLocale         = "en-US"
	defaultMarket         = "en-US"
	defaultCurrency       = "USD"
	defaultCountryCode    = "US"
	defaultSuggestDelay   = 300 * time.Millisecond
	defaultMinQueryLength = 2
	defaultRequestTimeout = 15 * time.Second
	defaultCacheTTL       = 10 * time.Minute
	defaultRateInterval   = 250 * time.Millisecond

	// EnvAPIKey and EnvAPIHost override the file values when set.
	EnvAPIKey  = "SKYSCOUT_API_KEY"
	EnvAPIHost = "SKYSCOUT_API_HOST"
)

// ErrMissingAPIKey reports that no key was found in the file or the
// environment.
var ErrMissingAPIKey = errors.New("api key not configured")

type rawConfig struct {
	APIKey         string `toml:"api_key"`
	APIHost        string `toml:"api_host"`
	BaseURL        string `toml:"base_url"`
	Locale         string `toml:"locale"`
	Market         string `toml:"market"`
	Currency       string `toml:"currency"`
	CountryCode    string `toml:"country_code"`
	LogDir         string `toml:"log_dir"`
	ExportDir      string `toml:"export_dir"`
	SuggestDelayMS int    `toml:"suggest_delay_ms"`
	MinQueryLength int    `toml:"min_query_length"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
	CacheTTL       int    `toml:"cache_ttl_seconds"`
	RateIntervalMS int    `toml:"rate_interval_ms"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIHost:        defaultAPIHost,
		Locale:         defaultLocale,
		Market:         defaultMarket,
		Currency:       defaultCurrency,
		CountryCode:    defaultCountryCode,
		LogDir:         mustExpand(defaultLogDir),
		ExportDir:      mustExpand(defaultExportDir),
		SuggestDelay:   defaultSuggestDelay,
		MinQueryLength: defaultMinQueryLength,
		RequestTimeout: defaultRequestTimeout,
		CacheTTL:       defaultCacheTTL,
		RateInterval:   defaultRateInterval,
	}
}

// Load reads the TOML config at path, then the dotenv file at envPath, then
// applies environment overrides. Missing files are not an error.
func Load(path, envPath string) (Config, error) {
	if err := loadEnvFile(envPath); err != nil {
		return Config{}, err
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		applyEnv(&cfg)
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := raw.apply(&cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func (r rawConfig) apply(cfg *Config) error {
	setString(&cfg.APIKey, r.APIKey)
	setString(&cfg.APIHost, r.APIHost)
	setString(&cfg.BaseURL, r.BaseURL)
	setString(&cfg.Locale, r.Locale)
	setString(&cfg.Market, r.Market)
	setString(&cfg.Currency, strings.ToUpper(r.Currency))
	setString(&cfg.CountryCode, strings.ToUpper(r.CountryCode))
	if dir := strings.TrimSpace(r.LogDir); dir != "" {
		cfg.LogDir = mustExpand(dir)
	}
	if dir := strings.TrimSpace(r.ExportDir); dir != "" {
		cfg.ExportDir = mustExpand(dir)
	}

	for _, field := range []struct {
		name  string
		value int
	}{
		{"suggest_delay_ms", r.SuggestDelayMS},
		{"min_query_length", r.MinQueryLength},
		{"request_timeout_seconds", r.RequestTimeout},
		{"rate_interval_ms", r.RateIntervalMS},
	} {
		if field.value < 0 {
			return fmt.Errorf("parse config: %s must not be negative", field.name)
		}
	}

	if r.SuggestDelayMS > 0 {
		cfg.SuggestDelay = time.Duration(r.SuggestDelayMS) * time.Millisecond
	}
	if r.MinQueryLength > 0 {
		cfg.MinQueryLength = r.MinQueryLength
	}
	if r.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(r.RequestTimeout) * time.Second
	}
	// A negative TTL is kept as is and turns the lookup cache off.
	if r.CacheTTL != 0 {
		cfg.CacheTTL = time.Duration(r.CacheTTL) * time.Second
	}
	if r.RateIntervalMS > 0 {
		cfg.RateInterval = time.Duration(r.RateIntervalMS) * time.Millisecond
	}
	return nil
}

// Validate reports configuration that would make every API call fail.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: set api_key or %s", ErrMissingAPIKey, EnvAPIKey)
	}
	if strings.TrimSpace(c.APIHost) == "" {
		return fmt.Errorf("api host is empty")
	}
	return nil
}

// LogPath returns the SkyScout log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/skyscout.log")
	}
	return filepath.Join(c.LogDir, "skyscout.log")
}

// loadEnvFile populates the process environment from a dotenv file without
// overriding variables that are already set.
func loadEnvFile(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultEnvPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := godotenv.Load(resolved); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIHost)); v != "" {
		cfg.APIHost = v
	}
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
