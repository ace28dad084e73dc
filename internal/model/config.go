package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MailConfig selects the mail provider and the account to triage.
type MailConfig struct {
	// Provider is the provider preset name ("gmail" or "icloud").
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Account is the full mailbox address used to log in.
	Account string `mapstructure:"account" yaml:"account"`

	// Host, Port and Mailbox override the provider preset when set.
	Host    string `mapstructure:"host" yaml:"host"`
	Port    string `mapstructure:"port" yaml:"port"`
	Mailbox string `mapstructure:"mailbox" yaml:"mailbox"`

	// Password is never read from the config file; it is resolved from
	// the environment or the system keyring at startup.
	Password string `mapstructure:"-" yaml:"-"`
}

// OllamaConfig holds settings for the local text-generation service.
type OllamaConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Model      string `mapstructure:"model" yaml:"model"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxTokens maps to num_predict; zero leaves it out of the request.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// BodyLimit is how many characters of the body go into the prompt.
	BodyLimit int `mapstructure:"body_limit" yaml:"body_limit"`
}

// NotionConfig holds settings for the page database sink.
type NotionConfig struct {
	DatabaseID string `mapstructure:"database_id" yaml:"database_id"`
	BodyLimit  int    `mapstructure:"body_limit" yaml:"body_limit"`

	// APIKey is resolved from the environment or keyring, never the file.
	APIKey string `mapstructure:"-" yaml:"-"`
}

// OutputConfig holds local output locations.
type OutputConfig struct {
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`
}

// RunConfig holds per-run behaviour switches.
type RunConfig struct {
	// MarkSeen sets \Seen on each message after it has been processed.
	MarkSeen bool `mapstructure:"mark_seen" yaml:"mark_seen"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Mail   MailConfig   `mapstructure:"mail" yaml:"mail"`
	Ollama OllamaConfig `mapstructure:"ollama" yaml:"ollama"`
	Notion NotionConfig `mapstructure:"notion" yaml:"notion"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Run    RunConfig    `mapstructure:"run" yaml:"run"`
}

const (
	DefaultProvider      = "gmail"
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultOllamaModel   = "gemma3:latest"
	DefaultTimeoutSec    = 30
	DefaultPromptLimit   = 500
	DefaultNotionLimit   = 2000
	DefaultActionLogFile = "action_emails.txt"
)

// ConfigDir returns ~/.config/mailtriage, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailtriage")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailtriage/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultHistoryPath returns the default location of the history database.
func DefaultHistoryPath() string {
	return filepath.Join(ConfigDir(), "history.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mail: MailConfig{
			Provider: DefaultProvider,
		},
		Ollama: OllamaConfig{
			BaseURL:    DefaultOllamaURL,
			Model:      DefaultOllamaModel,
			TimeoutSec: DefaultTimeoutSec,
			BodyLimit:  DefaultPromptLimit,
		},
		Notion: NotionConfig{
			BodyLimit: DefaultNotionLimit,
		},
		Output: OutputConfig{
			LogFile:   DefaultActionLogFile,
			HistoryDB: DefaultHistoryPath(),
		},
	}
}

// newViper builds a viper instance with defaults and the environment
// bindings shared by LoadConfig.
func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	d := defaultAppConfig()
	v.SetDefault("mail.provider", d.Mail.Provider)
	v.SetDefault("ollama.base_url", d.Ollama.BaseURL)
	v.SetDefault("ollama.model", d.Ollama.Model)
	v.SetDefault("ollama.timeout_sec", d.Ollama.TimeoutSec)
	v.SetDefault("ollama.body_limit", d.Ollama.BodyLimit)
	v.SetDefault("notion.body_limit", d.Notion.BodyLimit)
	v.SetDefault("output.log_file", d.Output.LogFile)
	v.SetDefault("output.history_db", d.Output.HistoryDB)

	// Environment always wins over the file for these keys.
	_ = v.BindEnv("ollama.base_url", "OLLAMA_API_URL")
	_ = v.BindEnv("ollama.model", "OLLAMA_MODEL")
	_ = v.BindEnv("notion.database_id", "NOTION_DATABASE_ID")
	_ = v.BindEnv("mail.provider", "MAIL_PROVIDER")
	_ = v.BindEnv("mail.account", "MAIL_ACCOUNT")

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults plus environment overrides are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Mail.Provider = strings.ToLower(strings.TrimSpace(cfg.Mail.Provider))
	if cfg.Ollama.TimeoutSec <= 0 {
		cfg.Ollama.TimeoutSec = DefaultTimeoutSec
	}
	if cfg.Ollama.BodyLimit <= 0 {
		cfg.Ollama.BodyLimit = DefaultPromptLimit
	}
	if cfg.Notion.BodyLimit <= 0 {
		cfg.Notion.BodyLimit = DefaultNotionLimit
	}
	if cfg.Output.LogFile == "" {
		cfg.Output.LogFile = DefaultActionLogFile
	}

	return cfg, nil
}

// Validate reports configuration that would make a run impossible.
func (c *AppConfig) Validate() error {
	if c.Mail.Account == "" {
		return errors.New("mail.account is not set")
	}
	if c.Mail.Password == "" {
		return fmt.Errorf("no password available for %s", c.Mail.Account)
	}
	if c.Ollama.BaseURL == "" {
		return errors.New("ollama.base_url is empty")
	}
	return nil
}

// NotionEnabled reports whether the page database sink is fully configured.
func (c *AppConfig) NotionEnabled() bool {
	return c.Notion.DatabaseID != "" && c.Notion.APIKey != ""
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. Secrets are not written.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("mail", map[string]any{
		"provider": cfg.Mail.Provider,
		"account":  cfg.Mail.Account,
		"host":     cfg.Mail.Host,
		"port":     cfg.Mail.Port,
		"mailbox":  cfg.Mail.Mailbox,
	})
	v.Set("ollama", map[string]any{
		"base_url":    cfg.Ollama.BaseURL,
		"model":       cfg.Ollama.Model,
		"timeout_sec": cfg.Ollama.TimeoutSec,
		"max_tokens":  cfg.Ollama.MaxTokens,
		"body_limit":  cfg.Ollama.BodyLimit,
	})
	v.Set("notion", map[string]any{
		"database_id": cfg.Notion.DatabaseID,
		"body_limit":  cfg.Notion.BodyLimit,
	})
	v.Set("output", map[string]any{
		"log_file":   cfg.Output.LogFile,
		"history_db": cfg.Output.HistoryDB,
	})
	v.Set("run", map[string]any{
		"mark_seen": cfg.Run.MarkSeen,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
