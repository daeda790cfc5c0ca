package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	// Overrides the provider's default endpoint (OpenAI-compatible and Gemini).
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`

	HTTPTimeoutSec     int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Sources
	DataDir         string `mapstructure:"data_dir" yaml:"data_dir"`
	SourceEncoding  string `mapstructure:"source_encoding" yaml:"source_encoding"`
	SourceDelimiter string `mapstructure:"source_delimiter" yaml:"source_delimiter"`

	ReportLanguage string `mapstructure:"report_language" yaml:"report_language"`
	// Empty disables the run journal.
	JournalPath string `mapstructure:"journal_path" yaml:"journal_path"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// Delimiter returns the first rune of SourceDelimiter, ';' when unset.
func (g *Global) Delimiter() rune {
	for _, r := range g.SourceDelimiter {
		return r
	}
	return ';'
}

// Validate reports settings no component can work with.
func (g *Global) Validate() error {
	if g.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("http_timeout_sec must be positive, got %d", g.HTTPTimeoutSec)
	}
	if g.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative, got %d", g.RateLimitPerMinute)
	}
	if g.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// Dir is the default configuration directory, ~/.callpulse.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".callpulse"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.callpulse/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// the file holds the API key
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CALLPULSE")
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("provider", "openrouter")
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("http_timeout_sec", 120)
	v.SetDefault("rate_limit_per_minute", 0)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("data_dir", "data")
	v.SetDefault("source_encoding", "cp1251")
	v.SetDefault("source_delimiter", ";")
	v.SetDefault("report_language", "Russian")
	v.SetDefault("journal_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", "127.0.0.1:8080")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing default file is fine; an explicit one must exist and parse
		var nf viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	return &c, nil
}
