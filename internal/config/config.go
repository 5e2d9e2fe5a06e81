package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"defect-ledger/internal/history"

	"github.com/spf13/viper"
)

// AppName names the per-user configuration directory
const AppName = "defect-ledger"

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	History  HistoryConfig  `mapstructure:"history"`
	Log      LogConfig      `mapstructure:"log"`
	Template TemplateConfig `mapstructure:"template"`
	Import   ImportConfig   `mapstructure:"import"`
}

// AppConfig holds application identity settings
type AppConfig struct {
	Name      string `mapstructure:"name"`       // Directory name under the platform config root
	ConfigDir string `mapstructure:"config_dir"` // Overrides the platform config directory
}

// LedgerConfig holds document defaults
type LedgerConfig struct {
	File  string `mapstructure:"file"`  // Default workbook when none is given on the command line
	Sheet string `mapstructure:"sheet"` // Sheet to open; empty selects the first sheet
}

// HistoryConfig holds recently-opened list settings
type HistoryConfig struct {
	File    string `mapstructure:"file"`    // History JSON file; defaults into ConfigDir
	Enabled bool   `mapstructure:"enabled"` // Record opened documents
}

// LogConfig holds logging settings
type LogConfig struct {
	Dir     string `mapstructure:"dir"`     // Log directory; defaults to ConfigDir
	Verbose bool   `mapstructure:"verbose"` // Show DEBUG on the console
}

// TemplateConfig holds settings for new workbooks
type TemplateConfig struct {
	Title   string `mapstructure:"title"`    // Title written into A1
	Creator string `mapstructure:"creator"`  // Default creator (作成者)
	BaseDir string `mapstructure:"base_dir"` // Parent folder for monthly workbooks
}

// ImportConfig holds CSV import settings
type ImportConfig struct {
	Encoding  string `mapstructure:"encoding"`   // auto, utf-8 or shift_jis
	HasHeader bool   `mapstructure:"has_header"` // Skip the first CSV line
}

// Load reads the configuration from a file or uses defaults.
// A missing file is not an error. Environment variables prefixed
// DEFECT_LEDGER_ override file values (e.g. DEFECT_LEDGER_LEDGER_SHEET).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DEFECT_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = "config.yaml"
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) &&
			!strings.Contains(err.Error(), "no such file") && !strings.Contains(err.Error(), "cannot find") {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults configures sensible default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", AppName)
	v.SetDefault("app.config_dir", "")

	v.SetDefault("ledger.file", "")
	v.SetDefault("ledger.sheet", "")

	v.SetDefault("history.file", "")
	v.SetDefault("history.enabled", true)

	v.SetDefault("log.dir", "")
	v.SetDefault("log.verbose", false)

	v.SetDefault("template.title", "不具合品一覧表")
	v.SetDefault("template.creator", "")
	v.SetDefault("template.base_dir", ".")

	v.SetDefault("import.encoding", "auto")
	v.SetDefault("import.has_header", true)
}

// resolvePaths fills the derived directories and makes them absolute
func (c *Config) resolvePaths() error {
	if c.App.ConfigDir == "" {
		dir, err := DefaultConfigDir(c.App.Name, runtime.GOOS, os.Getenv)
		if err != nil {
			return err
		}
		c.App.ConfigDir = dir
	}
	if c.History.File == "" {
		c.History.File = filepath.Join(c.App.ConfigDir, history.FileName)
	}
	if c.Log.Dir == "" {
		c.Log.Dir = c.App.ConfigDir
	}

	for _, p := range []*string{&c.App.ConfigDir, &c.History.File, &c.Log.Dir, &c.Template.BaseDir} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

// DefaultConfigDir returns %APPDATA%/<app> on Windows, otherwise
// $XDG_CONFIG_HOME/<app> or ~/.config/<app>. goos and getenv are injected
// so the rule can be tested without touching the process environment.
func DefaultConfigDir(app, goos string, getenv func(string) string) (string, error) {
	if goos == "windows" {
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, app), nil
		}
	}
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, app), nil
	}

	home := getenv("HOME")
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		home = h
	}
	return filepath.Join(home, ".config", app), nil
}

// LogPath returns the log file path
func (c *Config) LogPath() string {
	return filepath.Join(c.Log.Dir, c.App.Name+".log")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.App.Name) == "" {
		return fmt.Errorf("app.name cannot be empty")
	}

	switch strings.ToLower(c.Import.Encoding) {
	case "auto", "utf-8", "utf8", "shift_jis", "sjis", "cp932":
	default:
		return fmt.Errorf("import.encoding must be auto, utf-8 or shift_jis, got %q", c.Import.Encoding)
	}

	return nil
}

// Print displays the current configuration
func (c *Config) Print() {
	fmt.Println("=== Defect Ledger Configuration ===")
	fmt.Printf("Config Dir:       %s\n", c.App.ConfigDir)
	fmt.Printf("Default File:     %s\n", c.Ledger.File)
	fmt.Printf("Default Sheet:    %s\n", c.Ledger.Sheet)
	fmt.Printf("History File:     %s (enabled: %v)\n", c.History.File, c.History.Enabled)
	fmt.Printf("Log File:         %s\n", c.LogPath())
	fmt.Printf("Template Title:   %s\n", c.Template.Title)
	fmt.Printf("Template Creator: %s\n", c.Template.Creator)
	fmt.Printf("Template BaseDir: %s\n", c.Template.BaseDir)
	fmt.Printf("Import Encoding:  %s\n", c.Import.Encoding)
	fmt.Println("===================================")
}
