package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	cfg := &Config{
		Aliases: map[string][]string{
			"mem":  {"dump"},
			"heap": {"filter", "heap"},
		},
		Unaligned:   true,
		MaxMatches:  42,
		HistoryFile: "/tmp/hist",
	}
	if err := saveTo(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := loadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip changed the config:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestLoadFromPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("unaligned: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Unaligned {
		t.Error("unaligned not read")
	}
	if cfg.MaxMatches != 100 {
		t.Errorf("unset field lost its default: %d", cfg.MaxMatches)
	}
}

func TestLoadFromErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := loadFrom(filepath.Join(dir, "missing.yml")); !os.IsNotExist(err) {
		t.Errorf("missing file: %v", err)
	}

	bad := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(bad, []byte("{not yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFrom(bad); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.MaxMatches != 100 || cfg.Unaligned || cfg.HistoryFile != "" {
		t.Errorf("defaults = %+v", cfg)
	}
}
