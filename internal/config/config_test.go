package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pagetone/pagetone-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Mode != "development" {
		t.Errorf("unexpected defaults: port=%s mode=%s", cfg.Port, cfg.Mode)
	}
	if cfg.MaxSummaryChars != 18000 || cfg.LargeContentThreshold != 22000 {
		t.Errorf("unexpected summary thresholds: %d/%d", cfg.MaxSummaryChars, cfg.LargeContentThreshold)
	}
	if cfg.LLMProvider != "ollama" || cfg.TTSBackend != "gcloud" {
		t.Errorf("unexpected provider defaults: %s/%s", cfg.LLMProvider, cfg.TTSBackend)
	}
	if cfg.IsProduction() {
		t.Errorf("development mode should not report production")
	}
}

func TestLoadYAMLFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("port: \"9999\"\nmode: production\nworker_count: 4\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7777")

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7777" {
		t.Errorf("env should override yaml, got port %s", cfg.Port)
	}
	if cfg.Mode != "production" || !cfg.IsProduction() {
		t.Errorf("yaml mode not applied, got %s", cfg.Mode)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("yaml worker_count not applied, got %d", cfg.WorkerCount)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_PROVIDER", "bard")
	if _, err := Load(testLogger(t)); err == nil {
		t.Fatal("expected error for unknown llm provider")
	}
}

func TestLoadRejectsUnknownTTSBackend(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TTS_BACKEND", "espeak")
	if _, err := Load(testLogger(t)); err == nil {
		t.Fatal("expected error for unknown tts backend")
	}
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MAX_SUMMARY_CHARS", "30000")
	t.Setenv("LARGE_CONTENT_THRESHOLD", "20000")
	if _, err := Load(testLogger(t)); err == nil {
		t.Fatal("expected error when max exceeds large threshold")
	}
}
