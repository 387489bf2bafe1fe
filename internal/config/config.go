// Package config loads server configuration from flags, environment variables and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Data       DataConfig
	Server     ServerConfig
	Auth       AuthConfig
	Store      StoreConfig
	Relay      RelayConfig
	TitleFetch TitleFetchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local storage locations.
type DataConfig struct {
	// BasePath holds the SQLite database, the token key and the title cache.
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// KeyHex overrides the key file in the data directory when set.
	KeyHex              string
	AccessTokenDuration time.Duration
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend            string
	SupabaseURL        string
	SupabaseServiceKey string
}

// RelayConfig configures the cross-process broadcast relay.
type RelayConfig struct {
	// RedisURL enables the Redis relay; empty keeps relaying in-process.
	RedisURL string
	Channel  string
}

// TitleFetchConfig configures page title lookups.
type TitleFetchConfig struct {
	Timeout   time.Duration
	UserAgent string
	CacheTTL  time.Duration
	// HostRate is outbound requests per second allowed to a single host.
	HostRate float64
}

// DefaultUserAgent is sent with title fetch requests.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, keys and caches")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout, 0 for streaming (default: 0s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma separated CORS origins (default: *)")
	rateLimit := fs.String("rate-limit", "", "Requests per second per client (default: 20)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 24h)")

	backend := fs.String("store", "", "Store backend: sqlite or supabase (default: sqlite)")
	supabaseURL := fs.String("supabase-url", "", "Supabase project URL")
	supabaseKey := fs.String("supabase-service-key", "", "Supabase service role key")

	redisURL := fs.String("redis-url", "", "Redis URL for the broadcast relay")
	relayChannel := fs.String("relay-channel", "", "Broadcast relay channel (default: bookmarks-sync)")

	titleTimeout := fs.String("title-timeout", "", "Title fetch timeout (default: 5s)")
	titleCacheTTL := fs.String("title-cache-ttl", "", "Title cache lifetime (default: 24h)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; existing environment variables win.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
			RateBurst:      getIntConfigValue("", "RATE_BURST", 40),
		},
		Auth: AuthConfig{
			KeyHex: getConfigValue("", "ACCESS_TOKEN_KEY", ""),
		},
		Store: StoreConfig{
			Backend:            strings.ToLower(getConfigValue(*backend, "STORE_BACKEND", BackendSQLite)),
			SupabaseURL:        getConfigValue(*supabaseURL, "SUPABASE_URL", ""),
			SupabaseServiceKey: getConfigValue(*supabaseKey, "SUPABASE_SERVICE_KEY", ""),
		},
		Relay: RelayConfig{
			RedisURL: getConfigValue(*redisURL, "REDIS_URL", ""),
			Channel:  getConfigValue(*relayChannel, "RELAY_CHANNEL", "bookmarks-sync"),
		},
		TitleFetch: TitleFetchConfig{
			UserAgent: getConfigValue("", "TITLE_FETCH_USER_AGENT", DefaultUserAgent),
		},
	}

	var err error
	if cfg.Server.RateLimit, err = getFloatConfigValue(*rateLimit, "RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.TitleFetch.HostRate, err = getFloatConfigValue("", "TITLE_FETCH_HOST_RATE", 2); err != nil {
		return nil, err
	}

	durations := []struct {
		dst   *time.Duration
		flag  string
		env   string
		def   string
		label string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.Auth.AccessTokenDuration, *accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h", "access token duration"},
		{&cfg.TitleFetch.Timeout, *titleTimeout, "TITLE_FETCH_TIMEOUT", "5s", "title fetch timeout"},
		{&cfg.TitleFetch.CacheTTL, *titleCacheTTL, "TITLE_CACHE_TTL", "24h", "title cache ttl"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.env, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.label, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Store.Backend {
	case BackendSQLite:
	case BackendSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseServiceKey == "" {
			return errors.New("supabase backend requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be sqlite or supabase)", c.Store.Backend)
	}

	if c.Relay.Channel == "" {
		return errors.New("relay channel cannot be empty")
	}

	if c.TitleFetch.Timeout <= 0 {
		return errors.New("title fetch timeout must be positive")
	}

	return nil
}

// DatabasePath returns the SQLite database file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.BasePath, "bookmarks.db")
}

// TitleCachePath returns the directory of the title cache.
func (c *Config) TitleCachePath() string {
	return filepath.Join(c.Data.BasePath, "cache", "titles")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, ".smartbookmarks"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
