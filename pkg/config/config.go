package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const (
	configDir  = ".winnow"
	configFile = "config.yml"
)

// Config holds the knobs read from ~/.winnow/config.yml.
type Config struct {
	// Aliases maps user-defined command names onto existing commands
	// plus leading arguments.
	Aliases map[string][]string `yaml:"aliases"`

	// Unaligned makes scans slide byte-by-byte unless the command says
	// otherwise.
	Unaligned bool `yaml:"unaligned"`

	// MaxMatches caps how many candidates the matches command prints.
	MaxMatches int `yaml:"max-matches"`

	// HistoryFile overrides where the terminal keeps its history.
	HistoryFile string `yaml:"history-file"`
}

func defaultConfig() *Config {
	return &Config{MaxMatches: 100}
}

// Dir is where winnow keeps its config and history.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

// Load reads the config file, writing out the defaults on first run.
// An unreadable home directory falls back to the defaults.
func Load() *Config {
	dir, err := Dir()
	if err != nil {
		return defaultConfig()
	}

	path := filepath.Join(dir, configFile)
	cfg, err := loadFrom(path)
	if err == nil {
		return cfg
	}

	cfg = defaultConfig()
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o700); err == nil {
			_ = saveTo(path, cfg)
		}
	}
	return cfg
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func saveTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
