// Package config loads the flasher's persistent defaults: retry/timeout
// overrides, a per-path baud-rate override table, and the sniffer relay
// target. These back the CLI flags of spec §6 when a flag is omitted.
//
// Grounded on the teacher's config/config.go pattern (embed a default
// file, create it on first run, decode with BurntSushi/toml into a typed
// struct, validate, expose package-level read state) but repurposed:
// the teacher's single "default drive" lookup becomes a table of optional
// per-device overrides, since unlike a floppy drive there is no single
// mandatory "current device" here — most runs pass -d explicitly.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

//go:embed gcfflasher.toml
var defaultConfigData []byte

// Config is the decoded TOML structure.
type Config struct {
	MaxTimeSeconds int             `toml:"max_time_seconds"`
	DebugLevel     int             `toml:"debug_level"`
	Sniffer        SnifferConfig   `toml:"sniffer"`
	DeviceOverride []DeviceOverride `toml:"device"`
}

// SnifferConfig holds the -H/-p defaults for sniffer mode.
type SnifferConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DeviceOverride pins a baud rate for a specific serial path, overriding
// the classifier's guess (spec §4.5) for hosts with nonstandard wiring.
type DeviceOverride struct {
	Path     string `toml:"path"`
	Baudrate int    `toml:"baudrate"`
}

// Default values used when no config file is present or a field is zero.
const (
	DefaultMaxTimeSeconds = 10
	DefaultSnifferHost    = "127.0.0.1"
)

// Loaded is the process-wide decoded configuration, populated by Load.
var Loaded Config

// path determines the config file location: ~/.gcfflasher.toml, or
// %AppData%\gcfflasher\gcfflasher.toml on Windows.
func path() (string, error) {
	if runtime.GOOS == "windows" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: user config dir: %w", err)
		}
		return filepath.Join(dir, "gcfflasher", "gcfflasher.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: user home dir: %w", err)
	}
	return filepath.Join(home, ".gcfflasher.toml"), nil
}

// Load reads the config file, creating it from the embedded default on
// first run, decodes it into Loaded, and validates it. Missing optional
// sections fall back to the package defaults rather than erroring — unlike
// the teacher's config, which requires a matching drive, there is no
// mandatory section here.
func Load() error {
	p, err := path()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("config: create directory for %s: %w", p, err)
		}
		if err := os.WriteFile(p, defaultConfigData, 0644); err != nil {
			return fmt.Errorf("config: write default config %s: %w", p, err)
		}
	}

	var c Config
	if _, err := toml.DecodeFile(p, &c); err != nil {
		return fmt.Errorf("config: parse %s: %w", p, err)
	}

	if c.MaxTimeSeconds <= 0 {
		c.MaxTimeSeconds = DefaultMaxTimeSeconds
	}
	if c.MaxTimeSeconds > 3600 {
		return fmt.Errorf("config: max_time_seconds %d exceeds 3600", c.MaxTimeSeconds)
	}
	if c.Sniffer.Host == "" {
		c.Sniffer.Host = DefaultSnifferHost
	}
	for _, o := range c.DeviceOverride {
		if o.Path == "" {
			return fmt.Errorf("config: device override with empty path")
		}
		if o.Baudrate <= 0 {
			return fmt.Errorf("config: device override %q has non-positive baudrate %d", o.Path, o.Baudrate)
		}
	}

	Loaded = c
	return nil
}

// BaudOverride returns a pinned baud rate for devicePath, if one is
// configured, and whether one was found.
func BaudOverride(devicePath string) (int, bool) {
	for _, o := range Loaded.DeviceOverride {
		if o.Path == devicePath {
			return o.Baudrate, true
		}
	}
	return 0, false
}
