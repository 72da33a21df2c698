package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = ".netsnap/config.yaml"

// ErrUndefinedReferenceDir is returned when no snapshot directory is
// configured. It is a fatal setup error, not a deferred validation one.
var ErrUndefinedReferenceDir = errors.New("snapshots.dir is not set")

type SnapshotsConfig struct {
	Dir string `yaml:"dir"`
}

type FilterConfig struct {
	IgnoreURLPrefixes []string `yaml:"ignore_url_prefixes"`
	IgnoreMethods     []string `yaml:"ignore_methods"`
}

type SanitizeConfig struct {
	Headers     []string `yaml:"headers"`
	Params      []string `yaml:"params"`
	Replacement string   `yaml:"replacement"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Snapshots SnapshotsConfig `yaml:"snapshots"`
	Filter    FilterConfig    `yaml:"filter"`
	Sanitize  SanitizeConfig  `yaml:"sanitize"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
}

// Load loads YAML config, then applies env overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if len(c.Sanitize.Headers) == 0 {
		c.Sanitize.Headers = []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key", "X-Auth-Token"}
	}
	if len(c.Sanitize.Params) == 0 {
		c.Sanitize.Params = []string{"password", "secret", "token", "api_key", "access_token"}
	}
	if c.Sanitize.Replacement == "" {
		c.Sanitize.Replacement = "***REDACTED***"
	}
	if c.History.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.History.Path = filepath.Join(home, ".netsnap", "history.db")
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the one required setting: a writable snapshot dir.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Snapshots.Dir) == "" {
		return ErrUndefinedReferenceDir
	}
	if err := ensureWritableDir(c.Snapshots.Dir); err != nil {
		return fmt.Errorf("snapshots.dir not writable: %w", err)
	}
	return nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func applyEnvOverrides(c *Config) {
	setString(&c.Snapshots.Dir, "NETSNAP_SNAPSHOTS_DIR")
	setString(&c.History.Path, "NETSNAP_HISTORY_PATH")
	setString(&c.Log.Level, "NETSNAP_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
