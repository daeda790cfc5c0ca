package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/callpulse/internal/ai"
	cfgpkg "github.com/KaramelBytes/callpulse/internal/config"
	"github.com/KaramelBytes/callpulse/internal/logging"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set CallPulse configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "api_key: %s\n", mask(cfg.APIKey))
		fmt.Fprintf(out, "provider: %s\n", cfg.Provider)
		model := cfg.Model
		if model == "" {
			model = ai.DefaultModel(cfg.Provider) + " (default)"
		}
		fmt.Fprintf(out, "model: %s\n", model)
		if cfg.BaseURL != "" {
			fmt.Fprintf(out, "base_url: %s\n", cfg.BaseURL)
		}
		if cfg.Provider == ai.ProviderOllama {
			fmt.Fprintf(out, "ollama_host: %s\n", cfg.OllamaHost)
		}
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "rate_limit_per_minute: %d\n", cfg.RateLimitPerMinute)
		fmt.Fprintf(out, "data_dir: %s\n", cfg.DataDir)
		fmt.Fprintf(out, "source_encoding: %s\n", cfg.SourceEncoding)
		fmt.Fprintf(out, "source_delimiter: %q\n", cfg.SourceDelimiter)
		fmt.Fprintf(out, "report_language: %s\n", cfg.ReportLanguage)
		if cfg.JournalPath != "" {
			fmt.Fprintf(out, "journal_path: %s\n", cfg.JournalPath)
		}
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "api_key":
			cfg.APIKey = val
		case "provider":
			p := strings.ToLower(strings.TrimSpace(val))
			known := false
			for _, name := range ai.Providers() {
				if name == p {
					known = true
				}
			}
			if !known {
				return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(ai.Providers(), ", "))
			}
			cfg.Provider = p
		case "model":
			cfg.Model = val
		case "base_url":
			cfg.BaseURL = val
		case "ollama_host":
			cfg.OllamaHost = val
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for http_timeout_sec: %v", val)
			}
			cfg.HTTPTimeoutSec = i
		case "rate_limit_per_minute":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for rate_limit_per_minute: %v", val)
			}
			cfg.RateLimitPerMinute = i
		case "data_dir":
			cfg.DataDir = val
		case "source_encoding":
			cfg.SourceEncoding = val
		case "source_delimiter":
			if len([]rune(val)) != 1 {
				return fmt.Errorf("source_delimiter must be a single character, got %q", val)
			}
			cfg.SourceDelimiter = val
		case "report_language":
			cfg.ReportLanguage = val
		case "journal_path":
			cfg.JournalPath = val
		case "log_level":
			if _, err := logging.ParseLevel(val); err != nil {
				return err
			}
			cfg.LogLevel = val
		case "listen_addr":
			cfg.ListenAddr = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
