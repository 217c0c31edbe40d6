// ABOUTME: Oura tool configuration loaded from the XDG config directory.
// ABOUTME: Environment variables override file values; paths support ~ expansion.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/oura/internal/ingest"
	"github.com/harperreed/oura/internal/models"
	"github.com/harperreed/oura/internal/storage"
)

// Environment variables that override the config file.
const (
	EnvToken         = "OURA_TOKEN"
	EnvBaseURL       = "OURA_API_BASE_URL"
	EnvDataDir       = "OURA_DATA_DIR"
	EnvPasswordHash  = "OURA_PASSWORD_HASH"
	EnvSessionSecret = "OURA_SESSION_SECRET"
	EnvLogMode       = "OURA_LOG_MODE"
)

// Config stores oura tool configuration.
type Config struct {
	// Token is the Oura personal access token.
	Token string `json:"token,omitempty"`

	// BaseURL overrides the Oura usercollection endpoint root.
	BaseURL string `json:"api_base_url,omitempty"`

	// StartDate is the first day fetched, YYYY-MM-DD. Defaults to 2024-01-01.
	StartDate string `json:"start_date,omitempty"`

	// DataDir holds the fetched JSON files and the bundle.
	// Supports ~ expansion. Defaults to ~/.local/share/oura.
	DataDir string `json:"data_dir,omitempty"`

	// DBPath is the sqlite file for run records and sessions.
	// Defaults to ~/.local/state/oura/oura.db.
	DBPath string `json:"db_path,omitempty"`

	// PasswordHash is the bcrypt hash checked by `oura serve` logins.
	PasswordHash string `json:"password_hash,omitempty"`

	// SessionSecret signs session tokens.
	SessionSecret string `json:"session_secret,omitempty"`

	// SessionTTL is a Go duration string such as "24h".
	SessionTTL string `json:"session_ttl,omitempty"`

	// LogMode is "quiet" (default, warnings only), "dev", or "prod" (JSON).
	LogMode string `json:"log_mode,omitempty"`
}

// ApplyEnv overlays any set OURA_* environment variables.
func (c *Config) ApplyEnv() {
	overlay := map[string]*string{
		EnvToken:         &c.Token,
		EnvBaseURL:       &c.BaseURL,
		EnvDataDir:       &c.DataDir,
		EnvPasswordHash:  &c.PasswordHash,
		EnvSessionSecret: &c.SessionSecret,
		EnvLogMode:       &c.LogMode,
	}
	for key, field := range overlay {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
}

// GetBaseURL returns the API root, defaulting to the public Oura API.
func (c *Config) GetBaseURL() string {
	if c.BaseURL == "" {
		return ingest.DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// GetStartDate returns the configured first fetch day.
func (c *Config) GetStartDate() string {
	if c.StartDate == "" {
		return ingest.DefaultStartDate
	}
	return c.StartDate
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetDBPath returns the sqlite path with ~ expanded.
func (c *Config) GetDBPath() string {
	if c.DBPath == "" {
		return storage.DefaultDBPath()
	}
	return ExpandPath(c.DBPath)
}

// GetSessionTTL parses SessionTTL. Zero means the authenticator default.
func (c *Config) GetSessionTTL() (time.Duration, error) {
	if c.SessionTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl %q: %w", c.SessionTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	return d, nil
}

// GetLogMode returns the logger mode, defaulting to quiet.
func (c *Config) GetLogMode() string {
	if c.LogMode == "" {
		return "quiet"
	}
	return c.LogMode
}

// BundlePath is where the ingestion job writes the combined bundle.
func (c *Config) BundlePath() string {
	return filepath.Join(c.GetDataDir(), models.BundleFile)
}

// TokenPath is the local session file used by `oura login`.
func TokenPath() string {
	return filepath.Join(storage.StateDir(), "session")
}

// DataDir returns the default data directory following the XDG spec.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "oura")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "oura", "config.json")
}

// Load reads config from disk and applies environment overrides.
// A missing file is not an error.
func Load() (*Config, error) {
	cfg, err := readFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk. Environment overrides are not persisted
// unless the caller copied them into the struct.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
