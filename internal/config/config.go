package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the editing API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SnapshotConfig controls periodic PNG captures of the dashboard for
// shift reports.
type SnapshotConfig struct {
	// Cron is a cron-style schedule string (e.g. "0 5,13,21 * * *").
	// Empty disables periodic capture.
	Cron string `yaml:"cron" json:"cron"`

	// OutputPath is where the captured PNG is written.
	OutputPath string `yaml:"output_path" json:"output_path"`

	// View is the timeline view captured ("day", "week" or "month").
	View string `yaml:"view" json:"view"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the dashboard and API.
	Listen string `yaml:"listen" json:"listen"`

	// DataFile is the Excel workbook holding the loss event log.
	DataFile string `yaml:"data_file" json:"data_file"`

	// Year is the fixed calendar year applied to DD.MM event dates.
	Year int `yaml:"year" json:"year"`

	// Timezone is the IANA timezone used for window computation
	// (e.g. "Europe/Berlin"). Empty means the process-local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel sets the minimum log level (debug/info/warn/error).
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Snapshot configures periodic dashboard PNG capture.
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// ExtraColors maps additional category names to hex colors,
	// extending the built-in palette.
	ExtraColors map[string]string `yaml:"extra_colors" json:"extra_colors"`

	// BasicAuth, if non-nil, protects mutating endpoints.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		DataFile: "events_last_saved.xlsx",
		Year:     2025,
		Timezone: "",
		LogLevel: "info",
		Snapshot: SnapshotConfig{
			Cron:       "",
			OutputPath: "snapshot.png",
			View:       "day",
		},
		ExtraColors: map[string]string{},
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DataFile == "" {
		c.DataFile = "events_last_saved.xlsx"
	}
	if c.Year <= 0 {
		c.Year = 2025
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.Snapshot.View {
	case "day", "week", "month":
		// ok
	default:
		c.Snapshot.View = "day"
	}
	if c.Snapshot.OutputPath == "" {
		c.Snapshot.OutputPath = "snapshot.png"
	}
	if c.ExtraColors == nil {
		c.ExtraColors = map[string]string{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".lossdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
