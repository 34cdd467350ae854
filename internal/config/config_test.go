package config

import (
	"encoding/json"
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.ScanCacheFile != "scan-cache.db" {
		t.Errorf("ScanCacheFile: got %s", cfg.ScanCacheFile)
	}
	if cfg.ScanCacheCapacity != 10000 {
		t.Errorf("ScanCacheCapacity: got %d, want 10000", cfg.ScanCacheCapacity)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %s", cfg.LogLevel)
	}
	if cfg.LogPHIText {
		t.Error("LogPHIText should default to false")
	}
	if cfg.TraceSpans {
		t.Error("TraceSpans should default to false")
	}
	if cfg.MLDevice != "cpu" {
		t.Errorf("MLDevice: got %s, want cpu", cfg.MLDevice)
	}
}

func TestLoadEnv_ScanCacheFile(t *testing.T) {
	t.Setenv("ENGINE_SCAN_CACHE_FILE", "/tmp/other.db")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.ScanCacheFile != "/tmp/other.db" {
		t.Errorf("ScanCacheFile: got %s", cfg.ScanCacheFile)
	}
}

func TestLoadEnv_ScanCacheCapacity(t *testing.T) {
	t.Setenv("ENGINE_SCAN_CACHE_CAPACITY", "500")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.ScanCacheCapacity != 500 {
		t.Errorf("ScanCacheCapacity: got %d, want 500", cfg.ScanCacheCapacity)
	}
}

func TestLoadEnv_MaxWorkers(t *testing.T) {
	t.Setenv("ENGINE_MAX_WORKERS", "4")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.MaxWorkers != 4 {
		t.Errorf("MaxWorkers: got %d, want 4", cfg.MaxWorkers)
	}
}

func TestLoadEnv_MaxWorkers_Zero_Ignored(t *testing.T) {
	t.Setenv("ENGINE_MAX_WORKERS", "0")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.MaxWorkers != 0 {
		t.Errorf("MaxWorkers: got %d, want 0 (zero should be ignored, not set)", cfg.MaxWorkers)
	}
}

func TestLoadEnv_DetectorBudgetMS(t *testing.T) {
	t.Setenv("ENGINE_DETECTOR_BUDGET_MS", "1500")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.DetectorBudgetMS != 1500 {
		t.Errorf("DetectorBudgetMS: got %d, want 1500", cfg.DetectorBudgetMS)
	}
}

func TestLoadEnv_LogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %s", cfg.LogLevel)
	}
}

func TestLoadEnv_LogPHIText(t *testing.T) {
	t.Setenv("ENGINE_LOG_PHI_TEXT", "1")
	cfg := defaults()
	loadEnv(cfg)
	if !cfg.LogPHIText {
		t.Error("LogPHIText should be true")
	}
}

func TestLoadEnv_TraceSpans(t *testing.T) {
	t.Setenv("ENGINE_TRACE_SPANS", "1")
	cfg := defaults()
	loadEnv(cfg)
	if !cfg.TraceSpans {
		t.Error("TraceSpans should be true")
	}
}

func TestLoadEnv_RequireNative(t *testing.T) {
	t.Setenv("ENGINE_REQUIRE_NATIVE", "1")
	cfg := defaults()
	loadEnv(cfg)
	if !cfg.RequireNative {
		t.Error("RequireNative should be true")
	}
}

func TestLoadEnv_MLDevice(t *testing.T) {
	t.Setenv("ENGINE_ML_DEVICE", "cuda")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.MLDevice != "cuda" {
		t.Errorf("MLDevice: got %s, want cuda", cfg.MLDevice)
	}
}

func TestLoadEnv_InvalidCapacity_Ignored(t *testing.T) {
	t.Setenv("ENGINE_SCAN_CACHE_CAPACITY", "not-a-number")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.ScanCacheCapacity != 10000 {
		t.Errorf("ScanCacheCapacity: got %d, want 10000 (invalid env should be ignored)", cfg.ScanCacheCapacity)
	}
}

func TestLoadFile_ValidJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatal(err)
	}

	data, marshalErr := json.Marshal(map[string]any{
		"scanCacheFile":     "custom.db",
		"scanCacheCapacity": 42,
		"logPhiText":        true,
	})
	if marshalErr != nil {
		t.Fatal(marshalErr)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	loadFile(cfg, f.Name())

	if cfg.ScanCacheFile != "custom.db" {
		t.Errorf("ScanCacheFile: got %s, want custom.db", cfg.ScanCacheFile)
	}
	if cfg.ScanCacheCapacity != 42 {
		t.Errorf("ScanCacheCapacity: got %d, want 42", cfg.ScanCacheCapacity)
	}
	if !cfg.LogPHIText {
		t.Error("LogPHIText should be true after file load")
	}
}

func TestLoadFile_Missing_IsNoOp(t *testing.T) {
	cfg := defaults()
	loadFile(cfg, "/nonexistent/path/config.json")
	if cfg.ScanCacheFile != "scan-cache.db" {
		t.Errorf("ScanCacheFile changed unexpectedly: %s", cfg.ScanCacheFile)
	}
}

func TestLoadFile_InvalidJSON_PreservesDefaults(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-bad-*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{this is not json}"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	loadFile(cfg, f.Name())
	if cfg.ScanCacheFile != "scan-cache.db" {
		t.Errorf("ScanCacheFile changed on bad JSON: %s", cfg.ScanCacheFile)
	}
}

func TestLoad_ReturnsNonNil(t *testing.T) {
	cfg := Load()
	if cfg == nil {
		t.Fatal("Load() returned nil")
	}
	if cfg.ScanCacheCapacity < 0 {
		t.Errorf("ScanCacheCapacity should be non-negative, got %d", cfg.ScanCacheCapacity)
	}
}
