package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("temperature: 0.7\ntop_k: 20\ntop_p: 0.9\nserver_address: \"0.0.0.0:8080\"\nlog_level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := loadConfigFrom(path)
	if cfg.Temperature == nil || *cfg.Temperature != 0.7 {
		t.Fatalf("temperature: got %v", cfg.Temperature)
	}
	if cfg.TopK == nil || *cfg.TopK != 20 {
		t.Fatalf("top_k: got %v", cfg.TopK)
	}
	if cfg.TopP == nil || *cfg.TopP != 0.9 {
		t.Fatalf("top_p: got %v", cfg.TopP)
	}
	if cfg.ServerAddress != "0.0.0.0:8080" {
		t.Fatalf("server_address: got %q", cfg.ServerAddress)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level: got %q", cfg.LogLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := loadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Temperature != nil || cfg.ServerAddress != "" {
		t.Fatalf("expected zero config for missing file, got %+v", cfg)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("temperature: [not a number"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := loadConfigFrom(path)
	if cfg.Temperature != nil {
		t.Fatalf("expected zero config for malformed file, got %+v", cfg)
	}
}
