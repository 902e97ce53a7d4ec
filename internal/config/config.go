package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state, cache and log locations.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	CacheDir   string `toml:"cache_dir"`
	LogDir     string `toml:"log_dir"`
	LedgerPath string `toml:"ledger_path"`
	AliasFile  string `toml:"alias_file"`
}

// Catalog describes the tracklist catalog site and the account used on it.
type Catalog struct {
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	Email          string `toml:"email"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Session controls where the authenticated catalog session is cached.
type Session struct {
	Store         string `toml:"store"`
	CachePath     string `toml:"cache_path"`
	MaxRedirects  int    `toml:"max_redirects"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisKey      string `toml:"redis_key"`
}

// Scoring holds the additive relevance weights applied to search candidates.
type Scoring struct {
	DurationExact    float64 `toml:"duration_exact"`
	DurationClose    float64 `toml:"duration_close"`
	DurationNear     float64 `toml:"duration_near"`
	DurationLoose    float64 `toml:"duration_loose"`
	DurationMismatch float64 `toml:"duration_mismatch"`
	Abbreviation     float64 `toml:"abbreviation"`
	Alias            float64 `toml:"alias"`
	KeywordCoverage  float64 `toml:"keyword_coverage"`
	KeywordAllBonus  float64 `toml:"keyword_all_bonus"`
	EventMatch       float64 `toml:"event_match"`
	EventMismatch    float64 `toml:"event_mismatch"`
	Year             float64 `toml:"year"`
	RecencyMax       float64 `toml:"recency_max"`
	RecencyFlat      float64 `toml:"recency_flat"`
}

// Workflow contains per-file processing behaviour.
type Workflow struct {
	Policy            string  `toml:"policy"`
	Language          string  `toml:"language"`
	MaxUntimedRetries int     `toml:"max_untimed_retries"`
	FileDelaySeconds  int     `toml:"file_delay_seconds"`
	MinAutoScore      float64 `toml:"min_auto_score"`
}

// Media names the container tools used to probe and edit files.
type Media struct {
	FFprobeBinary     string `toml:"ffprobe_binary"`
	MkvpropeditBinary string `toml:"mkvpropedit_binary"`
	CommandTimeout    int    `toml:"command_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications configures the optional ntfy push for batch results.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnlyOnProblems bool   `toml:"only_on_problems"`
}

// Config encapsulates all configuration values for mixchapters.
//
// Configuration sections by subsystem:
//   - Paths: state, cache, ledger and log locations
//   - Catalog: site address, user agent and account credentials
//   - Session: session cache backend and redirect bound
//   - Scoring: candidate relevance weights
//   - Workflow: metadata policy, untimed retries and pacing
//   - Media: ffprobe and mkvpropedit binaries
//   - Logging: log format, level, and retention
//   - Aliases: inline abbreviation to event name table
type Config struct {
	Paths    Paths             `toml:"paths"`
	Catalog  Catalog           `toml:"catalog"`
	Session  Session           `toml:"session"`
	Scoring  Scoring           `toml:"scoring"`
	Workflow Workflow          `toml:"workflow"`
	Media    Media             `toml:"media"`
	Logging  Logging           `toml:"logging"`
	Notify   Notifications     `toml:"notifications"`
	Aliases  map[string]string `toml:"aliases"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mixchapters.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, cache and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.CacheDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.LedgerPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.LedgerPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HasCredentials reports whether both catalog account fields are set.
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.Catalog.Email) != "" && c.Catalog.Password != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
