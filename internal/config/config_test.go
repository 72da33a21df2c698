package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaults(t *testing.T) {
	c := &Config{}
	c.SetDefaults()
	if c.Log.Level != "info" {
		t.Fatalf("expected info level")
	}
	if c.Sanitize.Replacement != "***REDACTED***" {
		t.Fatalf("expected default replacement")
	}
	if len(c.Sanitize.Headers) == 0 {
		t.Fatalf("expected default sanitize headers")
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	content := "snapshots:\n  dir: ./refs\nfilter:\n  ignore_methods:\n    - OPTIONS\nlog:\n  level: debug\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Snapshots.Dir != "./refs" {
		t.Fatalf("unexpected snapshots dir %s", cfg.Snapshots.Dir)
	}
	if len(cfg.Filter.IgnoreMethods) != 1 || cfg.Filter.IgnoreMethods[0] != "OPTIONS" {
		t.Fatalf("unexpected filter config %+v", cfg.Filter)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %s", cfg.Log.Level)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NETSNAP_SNAPSHOTS_DIR", "/tmp/refs")
	t.Setenv("NETSNAP_LOG_LEVEL", "warn")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Snapshots.Dir != "/tmp/refs" {
		t.Fatalf("env override not applied: %s", cfg.Snapshots.Dir)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("env override not applied: %s", cfg.Log.Level)
	}
}

func TestValidateRequiresSnapshotDir(t *testing.T) {
	c := &Config{}
	c.SetDefaults()
	if err := c.Validate(); !errors.Is(err, ErrUndefinedReferenceDir) {
		t.Fatalf("expected ErrUndefinedReferenceDir, got %v", err)
	}
	c.Snapshots.Dir = t.TempDir()
	if err := c.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}
