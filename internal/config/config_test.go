package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "Umbrasol" {
		t.Errorf("expected Name=Umbrasol, got %s", cfg.Name)
	}
	if cfg.Execution.MaxRetries != 2 {
		t.Errorf("expected MaxRetries=2, got %d", cfg.Execution.MaxRetries)
	}
	if cfg.Execution.HeuristicWordThreshold != 5 {
		t.Errorf("expected HeuristicWordThreshold=5, got %d", cfg.Execution.HeuristicWordThreshold)
	}
	if cfg.Brain.BaseURL != "http://localhost:11434" {
		t.Errorf("unexpected brain base URL: %s", cfg.Brain.BaseURL)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "umbrasol.yaml")

	cfg := DefaultConfig()
	cfg.Brain.Model = "llama3.2:1b"
	cfg.Execution.MaxRetries = 5

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Brain.Model != "llama3.2:1b" {
		t.Errorf("expected Model=llama3.2:1b, got %s", loaded.Brain.Model)
	}
	if loaded.Execution.MaxRetries != 5 {
		t.Errorf("expected MaxRetries=5, got %d", loaded.Execution.MaxRetries)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Execution.MaxConcurrentTasks != 4 {
		t.Errorf("expected defaults, got MaxConcurrentTasks=%d", cfg.Execution.MaxConcurrentTasks)
	}
}

func TestPathResolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.BaseDir = "/srv/umbrasol"

	if got := cfg.LockFile(); got != "/srv/umbrasol/logs/core.lock" {
		t.Errorf("unexpected lock file path: %s", got)
	}
	if got := cfg.DatabasePath(); got != "/srv/umbrasol/memory/umbrasol.db" {
		t.Errorf("unexpected db path: %s", got)
	}
}

func TestInstantMapOrder(t *testing.T) {
	// "battery" must outrank "stats": order is part of the contract.
	if InstantMap[0].Trigger != "battery" {
		t.Errorf("expected battery first, got %s", InstantMap[0].Trigger)
	}
	for _, rule := range InstantMap {
		if !SafeTools[rule.Tool] {
			t.Errorf("instant rule %q maps to non-whitelisted tool %q", rule.Trigger, rule.Tool)
		}
	}
}
