// FILE: src/internal/config/settings.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

// Settings is the daemon's own configuration, distinct from the log
// destination text handled by Store. Loaded from TOML with environment
// and CLI overrides.
type Settings struct {
	// LoggersFile points at the XML or JSON destination configuration;
	// the daemon watches it for changes.
	LoggersFile string `toml:"loggers_file"`

	// DataDir overrides the default log root. Empty defers to the
	// environment and working directory.
	DataDir string `toml:"data_dir"`

	SweepIntervalMs int `toml:"sweep_interval_ms"`
	WatchIntervalMs int `toml:"watch_interval_ms"`

	Logging LoggingSettings `toml:"logging"`
	Admin   AdminSettings   `toml:"admin"`
}

// LoggingSettings controls the daemon's internal diagnostic logger.
type LoggingSettings struct {
	Output    string `toml:"output"` // stderr, stdout, file, both, none
	Level     string `toml:"level"`  // debug, info, warn, error
	Directory string `toml:"directory"`
	Name      string `toml:"name"`
}

// AdminSettings declares the optional HTTP admin surface.
type AdminSettings struct {
	Enabled       bool     `toml:"enabled"`
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	BearerTokens  []string `toml:"bearer_tokens"`
	JWTSigningKey string   `toml:"jwt_signing_key"`
}

func defaultSettings() *Settings {
	return &Settings{
		SweepIntervalMs: 1000,
		WatchIntervalMs: 1000,
		Logging: LoggingSettings{
			Output: "stderr",
			Level:  "info",
			Name:   "logroute",
		},
		Admin: AdminSettings{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// LoadSettings builds the daemon settings from defaults, the settings
// file, LOGROUTE_ environment variables and CLI arguments, in ascending
// priority.
func LoadSettings(cliArgs []string) (*Settings, error) {
	settingsPath := SettingsPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaultSettings()).
		WithEnvPrefix("LOGROUTE_").
		WithFile(settingsPath).
		WithArgs(cliArgs).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()
	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
	}

	final := &Settings{}
	if err := cfg.Scan(final); err != nil {
		return nil, fmt.Errorf("failed to scan settings: %w", err)
	}
	return final, final.validate()
}

func (s *Settings) validate() error {
	switch s.Logging.Output {
	case "", "stderr", "stdout", "file", "both", "none":
	default:
		return fmt.Errorf("invalid logging output %q", s.Logging.Output)
	}
	if s.Admin.Enabled && s.Admin.Port <= 0 {
		return fmt.Errorf("admin server enabled without a port")
	}
	if s.SweepIntervalMs < 0 || s.WatchIntervalMs < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	return nil
}

// SettingsPath resolves the settings file location from the
// environment, falling back to the user config directory.
func SettingsPath() string {
	if file := os.Getenv("LOGROUTE_CONFIG_FILE"); file != "" {
		if filepath.IsAbs(file) {
			return file
		}
		if dir := os.Getenv("LOGROUTE_CONFIG_DIR"); dir != "" {
			return filepath.Join(dir, file)
		}
		return file
	}
	if dir := os.Getenv("LOGROUTE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "logroute.toml")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "logroute.toml")
	}
	return "logroute.toml"
}
