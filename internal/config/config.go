// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/auth"
	"github.com/digitalrsvp/rsvp-server/internal/domain"
)

// Store backends.
const (
	BackendBadger  = "badger"
	BackendSQLite  = "sqlite"
	BackendMongoDB = "mongodb"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	RSVP   RSVPConfig
	Access AccessConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local storage configuration.
type DataConfig struct {
	// BasePath holds the embedded database files and the token key.
	BasePath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	PublicURL    string        // Base URL used in invitation share links
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend       string // badger, sqlite or mongodb
	Cache         bool   // read-through cache in front of the backend (default: true)
	MongoURI      string
	MongoDatabase string
}

// AuthConfig holds host authentication configuration.
type AuthConfig struct {
	HostUsername     string
	HostPasswordHash string // argon2id PHC string, see cmd/hashpw
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
}

// RSVPConfig holds public RSVP settings.
type RSVPConfig struct {
	Resubmission domain.ResubmissionPolicy
	// RateLimit is the number of public RSVP requests allowed per minute per client.
	RateLimit int
	RateBurst int
}

// AccessConfig restricts who may reach the server.
type AccessConfig struct {
	AllowedIPs  []string // empty allows everyone
	CORSOrigins []string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load is LoadConfig with an explicit flag set and arguments.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for local data")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public base URL for share links")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Store flags
	storeBackend := fs.String("store", "", "Store backend: badger, sqlite or mongodb (default: badger)")
	storeCache := fs.String("store-cache", "", "Cache reads in memory (default: true)")
	mongoURI := fs.String("mongodb-uri", "", "MongoDB connection URI")
	mongoDatabase := fs.String("mongodb-database", "", "MongoDB database name")

	// Auth flags
	hostUsername := fs.String("host-username", "", "Host login name (default: admin)")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 12h)")

	// RSVP flags
	resubmission := fs.String("rsvp-resubmission", "", "Resubmission policy: overwrite or reject")
	rateLimit := fs.String("rsvp-rate-limit", "", "Public RSVP requests per minute per client (default: 30)")
	rateBurst := fs.String("rsvp-rate-burst", "", "Public RSVP burst size (default: 10)")

	allowedIPs := fs.String("allowed-ips", "", "Comma-separated client IPs or CIDRs allowed to connect")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated CORS origins (default: *)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	port := getConfigValue(*serverPort, "SERVER_PORT", "8080")

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
			Port:      port,
			PublicURL: strings.TrimRight(getConfigValue(*publicURL, "PUBLIC_URL", "http://localhost:"+port), "/"),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getConfigValue(*storeBackend, "STORE_BACKEND", BackendBadger)),
			Cache:         getBoolConfigValue(*storeCache, "STORE_CACHE", true),
			MongoURI:      getConfigValue(*mongoURI, "MONGODB_URI", ""),
			MongoDatabase: getConfigValue(*mongoDatabase, "MONGODB_DATABASE", "digital-rsvp"),
		},
		Auth: AuthConfig{
			HostUsername:     getConfigValue(*hostUsername, "HOST_USERNAME", "admin"),
			HostPasswordHash: getConfigValue("", "HOST_PASSWORD_HASH", ""),
			AccessTokenKey:   nil, // Will be set by auth.LoadOrGenerateKey
		},
		RSVP: RSVPConfig{
			Resubmission: domain.ResubmissionPolicy(strings.ToLower(getConfigValue(*resubmission, "RSVP_RESUBMISSION", string(domain.ResubmissionOverwrite)))),
			RateLimit:    getIntConfigValue(*rateLimit, "RSVP_RATE_LIMIT", 30),
			RateBurst:    getIntConfigValue(*rateBurst, "RSVP_RATE_BURST", 10),
		},
		Access: AccessConfig{
			AllowedIPs:  splitList(getConfigValue(*allowedIPs, "ALLOWED_IPS", "")),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dest                   *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "12h", &cfg.Auth.AccessTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dest = parsed
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
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Store.Backend {
	case BackendBadger, BackendSQLite:
	case BackendMongoDB:
		if c.Store.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongodb backend")
		}
		if c.Store.MongoDatabase == "" {
			return errors.New("MONGODB_DATABASE cannot be empty")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger, sqlite, or mongodb)", c.Store.Backend)
	}

	if !c.RSVP.Resubmission.IsValid() {
		return fmt.Errorf("invalid resubmission policy: %s (must be overwrite or reject)", c.RSVP.Resubmission)
	}
	if c.RSVP.RateLimit <= 0 || c.RSVP.RateBurst <= 0 {
		return errors.New("RSVP rate limit and burst must be positive")
	}

	for _, entry := range c.Access.AllowedIPs {
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err != nil {
			return fmt.Errorf("invalid allowed IP %q", entry)
		}
	}

	if c.Auth.HostUsername == "" {
		return errors.New("HOST_USERNAME cannot be empty")
	}

	// HOST_PASSWORD_HASH may be empty: host login is then disabled.
	if c.Auth.HostPasswordHash != "" {
		if err := auth.CheckHash(c.Auth.HostPasswordHash); err != nil {
			return fmt.Errorf("invalid HOST_PASSWORD_HASH: %w", err)
		}
	}
	// Auth key is set by auth.LoadOrGenerateKey.

	return nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/rsvp-server/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "rsvp-server", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
