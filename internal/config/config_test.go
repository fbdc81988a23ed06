package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := "root: /kb\ndb_path: /var/lib/kbsync.db\ndefault_org: acme\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != "/kb" || cfg.DBPath != "/var/lib/kbsync.db" || cfg.DefaultOrg != "acme" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with no file: %v", err)
	}
	if cfg.Root == "" || cfg.DBPath == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KBSYNC_ROOT", "/env/kb")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != "/env/kb" {
		t.Errorf("root = %q, want env override", cfg.Root)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("root: [unclosed\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Error("malformed config accepted")
	}
}

func TestRuntimeOpenClose(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Root:    dir,
		DBPath:  filepath.Join(dir, "kbsync.db"),
		LogFile: filepath.Join(dir, "kbsync.log"),
	}

	rt, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if rt.DB == nil || rt.Logger == nil {
		t.Fatal("runtime missing resources")
	}
	rt.Logger.Printf("session start")
	if err := rt.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if _, err := os.Stat(cfg.LogFile); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
