package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config is the root configuration for readeckbot.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Channels ChannelsConfig `json:"channels"`
	Readeck  ReadeckConfig  `json:"readeck"`
	Store    StoreConfig    `json:"store"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	Workspace             string `json:"workspace"`
	LogLevel              string `json:"logLevel"`
	MaxConcurrentMessages int    `json:"maxConcurrentMessages"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	CLI      CLIConfig      `json:"cli"`
}

type TelegramConfig struct {
	Enabled   bool           `json:"enabled"`
	Token     string         `json:"token"`
	AllowFrom FlexStringList `json:"allowFrom"`
	ParseMode string         `json:"parseMode"`
}

type CLIConfig struct {
	Enabled bool `json:"enabled"`
}

// ReadeckConfig points at the Readeck instance the bot bridges to.
type ReadeckConfig struct {
	BaseURL        string `json:"baseUrl"`
	ConfigPath     string `json:"configPath,omitempty"` // passed as -config to the readeck CLI
	DockerImage    string `json:"dockerImage"`
	Application    string `json:"application"` // application name sent on token exchange
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type StoreConfig struct {
	TokensPath    string `json:"tokensPath"`
	HistoryDBPath string `json:"historyDbPath"`
	AliasesPath   string `json:"aliasesPath,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays containing
// both strings and numbers (e.g. ["123", 456] both become "123", "456").
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// DefaultConfigDir returns the default config directory (~/.readeckbot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".readeckbot"
	}
	return filepath.Join(home, ".readeckbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.Workspace = expandPath(cfg.General.Workspace)
	cfg.Store.TokensPath = expandPath(cfg.Store.TokensPath)
	cfg.Store.HistoryDBPath = expandPath(cfg.Store.HistoryDBPath)
	cfg.Store.AliasesPath = expandPath(cfg.Store.AliasesPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		// ${VAR:-} is a present-but-empty default, distinct from ${VAR}.
		hasDefault := strings.Contains(match, ":-")
		defaultVal := groups[2]

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.General.MaxConcurrentMessages < 1 || cfg.General.MaxConcurrentMessages > 100 {
		errs = append(errs, "general.maxConcurrentMessages must be between 1 and 100")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Readeck.BaseURL == "" {
		errs = append(errs, "readeck.baseUrl is required")
	} else if !strings.HasPrefix(cfg.Readeck.BaseURL, "http://") && !strings.HasPrefix(cfg.Readeck.BaseURL, "https://") {
		errs = append(errs, "readeck.baseUrl must start with http:// or https://")
	}
	if cfg.Readeck.TimeoutSeconds < 1 {
		errs = append(errs, "readeck.timeoutSeconds must be >= 1")
	}

	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token == "" {
		errs = append(errs, "channels.telegram.token is required when telegram is enabled")
	}

	if cfg.Store.TokensPath == "" {
		errs = append(errs, "store.tokensPath is required")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
