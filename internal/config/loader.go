package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates sections, so GROWTHRING_NOTIFY__EXPORT sets notify.export.
const EnvPrefix = "GROWTHRING_"

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set at compile time if needed

	// Overrides are applied last, keyed like "notify.export". The CLI puts
	// explicitly set flags here.
	Overrides map[string]interface{}
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

func (l *Loader) dev() bool { return l.Version == "dev" }

// Load layers defaults, the config file, a dev-mode .env file, GROWTHRING_
// environment variables and overrides, then validates the result.
func (l *Loader) Load() (*Config, error) {
	k := newKoanf()

	if path := l.GetConfigPath(); path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if l.dev() {
		wd, _ := os.Getwd()
		if err := godotenv.Load(filepath.Join(wd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	for key, val := range l.Overrides {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps GROWTHRING_NOTIFY__EXPORT to notify.export.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	}
	return RCParser()
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Variable override path
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	// 2. Local run directory (dev mode)
	if l.dev() {
		wd, _ := os.Getwd()
		for _, name := range []string{".growthringrc", ".growthring.yaml"} {
			localPath := filepath.Join(wd, name)
			if _, err := os.Stat(localPath); err == nil {
				return localPath
			}
		}
	}

	// 3. XDG Config Path
	home, _ := os.UserHomeDir()
	for _, name := range []string{"config.rc", "growthring.rc", "config.yaml"} {
		xdgPath := filepath.Join(home, ".config", "growthring", name)
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	return ""
}

// DefaultPath is where `config save` writes when no file exists yet.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "growthring", "config.rc")
}

// Save writes cfg in rc format to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(cfg.String()), 0o644)
}

func newKoanf() *koanf.Koanf {
	return koanf.New(".")
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	if cfg.Palettes == nil {
		cfg.Palettes = make(map[string]PaletteSpec)
	}
	return cfg, nil
}

// rawBytes feeds an in-memory document to koanf.
type rawBytes []byte

func (b rawBytes) ReadBytes() ([]byte, error) { return b, nil }

func (b rawBytes) Read() (map[string]interface{}, error) {
	return nil, errors.New("rawBytes provider does not support Read")
}
