package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultAndAppliesFallbacks(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	if err := os.Setenv("USERPROFILE", dir); err != nil {
		t.Fatal(err)
	}

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if Loaded.MaxTimeSeconds != DefaultMaxTimeSeconds {
		t.Errorf("MaxTimeSeconds = %d, want %d", Loaded.MaxTimeSeconds, DefaultMaxTimeSeconds)
	}
	if Loaded.Sniffer.Host != DefaultSnifferHost {
		t.Errorf("Sniffer.Host = %q, want %q", Loaded.Sniffer.Host, DefaultSnifferHost)
	}

	if _, err := os.Stat(filepath.Join(dir, ".gcfflasher.toml")); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestBaudOverride(t *testing.T) {
	Loaded = Config{DeviceOverride: []DeviceOverride{{Path: "/dev/ttyUSB0", Baudrate: 9600}}}

	b, ok := BaudOverride("/dev/ttyUSB0")
	if !ok || b != 9600 {
		t.Fatalf("BaudOverride = %d, %v", b, ok)
	}

	if _, ok := BaudOverride("/dev/ttyUSB1"); ok {
		t.Fatal("expected no override for unconfigured path")
	}
}

func TestLoadRejectsOversizedMaxTime(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	bad := `max_time_seconds = 99999`
	if err := os.WriteFile(filepath.Join(dir, ".gcfflasher.toml"), []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Load(); err == nil {
		t.Fatal("expected error for max_time_seconds > 3600")
	}
}
