package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirName is the per-user and per-repo configuration directory name.
const DirName = ".quill"

// Config holds application configuration.
type Config struct {
	// Provider selects the language model backend: "openai" (default) or "gemini".
	Provider string `json:"provider,omitempty"`

	// Model overrides the provider's default model name.
	Model string `json:"model,omitempty"`

	// MaxChars is the character budget for a generated post.
	MaxChars int `json:"max_chars"`

	// MaxTokens caps completion length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature is the sampling temperature. An explicit 0 is kept; leave
	// the key out for the default.
	Temperature *float64 `json:"temperature,omitempty"`

	// RequestTimeoutSeconds bounds each model and upstream HTTP call.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`

	// HistoryCacheTTLSeconds is how long fetched post history is reused.
	// A negative value disables the cache.
	HistoryCacheTTLSeconds int `json:"history_cache_ttl_seconds,omitempty"`

	// PostDelaySeconds is the default pause between consecutive publishes.
	PostDelaySeconds int `json:"post_delay_seconds,omitempty"`

	// BrandProfilePath points at the markdown brand profile. Relative paths
	// resolve against the working directory.
	BrandProfilePath string `json:"brand_profile_path,omitempty"`

	// AppBaseURL is used to build approve/reject links in notification emails.
	// APP_BASE_URL in the environment wins when set.
	AppBaseURL string `json:"app_base_url,omitempty"`

	// AllowedOrigins lists origins allowed to call the JSON API cross-origin.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes disables every MCP tool of a type ("draft", "style").
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// LogLevel is one of trace, debug, info, notice, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:               "openai",
		MaxChars:               500,
		MaxTokens:              200,
		Temperature:            float64Ptr(0.7),
		RequestTimeoutSeconds:  30,
		HistoryCacheTTLSeconds: 3600,
		PostDelaySeconds:       60,
		BrandProfilePath:       "brand_profile.md",
		AppBaseURL:             "http://localhost:8080",
		LogLevel:               "info",
	}
}

// RequestTimeout returns RequestTimeoutSeconds as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// HistoryCacheTTL returns the history cache TTL; zero or less means disabled.
func (c *Config) HistoryCacheTTL() time.Duration {
	if c.HistoryCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.HistoryCacheTTLSeconds) * time.Second
}

// PostDelay returns PostDelaySeconds as a duration.
func (c *Config) PostDelay() time.Duration {
	if c.PostDelaySeconds <= 0 {
		return 0
	}
	return time.Duration(c.PostDelaySeconds) * time.Second
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.quill.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.quill) and repo (.quill) directories.
// Repo config is found by walking upward from startDir to find the nearest .quill/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .quill/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		Provider:               pick(overlay.Provider, base.Provider),
		Model:                  pick(overlay.Model, base.Model),
		MaxChars:               pick(overlay.MaxChars, base.MaxChars),
		MaxTokens:              pick(overlay.MaxTokens, base.MaxTokens),
		Temperature:            pick(overlay.Temperature, base.Temperature),
		RequestTimeoutSeconds:  pick(overlay.RequestTimeoutSeconds, base.RequestTimeoutSeconds),
		HistoryCacheTTLSeconds: pick(overlay.HistoryCacheTTLSeconds, base.HistoryCacheTTLSeconds),
		PostDelaySeconds:       pick(overlay.PostDelaySeconds, base.PostDelaySeconds),
		BrandProfilePath:       pick(overlay.BrandProfilePath, base.BrandProfilePath),
		AppBaseURL:             pick(overlay.AppBaseURL, base.AppBaseURL),
		DBMaxOpenConns:         pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:         pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		LogLevel:               pick(overlay.LogLevel, base.LogLevel),

		AllowedOrigins: mergeStringSlice(base.AllowedOrigins, overlay.AllowedOrigins),
		DisabledTools:  mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes:  mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
}

func float64Ptr(v float64) *float64 { return &v }

// pick returns overlay unless it is the zero value. For pointer fields only
// nil counts as zero.
func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
