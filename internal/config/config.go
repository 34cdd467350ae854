// Package config loads and holds process-level engine configuration:
// everything that is the same for every document the engine processes in
// one run (cache paths, parallelism, timeouts, env toggles). The per-run
// redaction policy (which categories to redact, at what threshold) lives in
// internal/policy instead, since it has its own DSL and error taxonomy.
// Settings are layered: defaults -> engine-config.json -> environment
// variables (env vars win), the same layering the teacher used for its
// proxy-config.json.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds process-level engine configuration.
type Config struct {
	// ScanCacheFile is the bbolt path for the durable cross-document scan
	// cache (internal/scancache). Empty means in-memory only.
	ScanCacheFile string `json:"scanCacheFile"`
	// ScanCacheCapacity bounds the S3-FIFO in-memory layer in front of
	// ScanCacheFile. Zero disables the eviction layer (unbounded backing
	// store only).
	ScanCacheCapacity int `json:"scanCacheCapacity"`

	// DictionaryOverridePath is an optional on-disk bbolt override layered
	// on top of the embedded default term sets (internal/dictionary).
	DictionaryOverridePath string `json:"dictionaryOverridePath"`

	// PostFilterTermsDir names a directory of post-filter vocabulary JSON
	// files (the term files of stages 1 and 3-6). It is loaded from file
	// and env, but engine.New does not read it: the engine always uses the
	// embedded term files.
	PostFilterTermsDir string `json:"postFilterTermsDir"`

	// MaxWorkers bounds how many detectors run concurrently. Zero means
	// runtime.NumCPU() (internal/parallel's own default).
	MaxWorkers int `json:"maxWorkers"`
	// DetectorBudgetMS is the per-detector wall-clock budget in
	// milliseconds. Zero means internal/parallel.DefaultDetectorBudget.
	DetectorBudgetMS int `json:"detectorBudgetMs"`

	// StreamWindow is the default streaming overlap window, in code
	// points, used by engine.NewStream when it is given no window. Zero
	// means internal/stream.DefaultOverlapWindow.
	StreamWindow int `json:"streamWindow"`

	LogLevel string `json:"logLevel"`

	// LogPHIText mirrors ENGINE_LOG_PHI_TEXT (§7): whether a log line may
	// include literal span text rather than just type and length.
	LogPHIText bool `json:"logPhiText"`
	// TraceSpans mirrors ENGINE_TRACE_SPANS: include the full span journey
	// in the execution report.
	TraceSpans bool `json:"traceSpans"`
	// RequireNative mirrors ENGINE_REQUIRE_NATIVE: fail construction rather
	// than silently falling back to a portable implementation when an
	// accelerated path (e.g. a native fuzzy-matching backend) is missing.
	// This build has no accelerated path, so engine.New always returns a
	// ConfigError when it is set.
	RequireNative bool `json:"requireNative"`
	// MLDevice mirrors ENGINE_ML_DEVICE, consulted only by optional ML
	// post-filter stages; this repo's built-in stages are pure Go and
	// ignore it.
	MLDevice string `json:"mlDevice"`
}

// Load returns config with defaults overridden by engine-config.json and
// env vars.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "engine-config.json")
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		ScanCacheFile:     "scan-cache.db",
		ScanCacheCapacity: 10000,
		LogLevel:          "info",
		LogPHIText:        false,
		TraceSpans:        false,
		RequireNative:     false,
		MLDevice:          "cpu",
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G703: path is a controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("ENGINE_SCAN_CACHE_FILE"); v != "" {
		cfg.ScanCacheFile = v
	}
	if v := os.Getenv("ENGINE_SCAN_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ScanCacheCapacity = n
		}
	}
	if v := os.Getenv("ENGINE_DICTIONARY_OVERRIDE"); v != "" {
		cfg.DictionaryOverridePath = v
	}
	if v := os.Getenv("ENGINE_POSTFILTER_TERMS_DIR"); v != "" {
		cfg.PostFilterTermsDir = v
	}
	if v := os.Getenv("ENGINE_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxWorkers = n
		}
	}
	if v := os.Getenv("ENGINE_DETECTOR_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DetectorBudgetMS = n
		}
	}
	if v := os.Getenv("ENGINE_STREAM_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StreamWindow = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENGINE_LOG_PHI_TEXT"); v != "" {
		cfg.LogPHIText = v == "1"
	}
	if v := os.Getenv("ENGINE_TRACE_SPANS"); v != "" {
		cfg.TraceSpans = v == "1"
	}
	if v := os.Getenv("ENGINE_REQUIRE_NATIVE"); v != "" {
		cfg.RequireNative = v == "1"
	}
	if v := os.Getenv("ENGINE_ML_DEVICE"); v != "" {
		cfg.MLDevice = v
	}
}
