// Command redact is a minimal batch entry point for the de-identification
// engine: it reads a document (a file argument, or stdin), runs it through
// the engine, and writes the redacted text to stdout plus a JSON execution
// report to stderr.
//
// This is NOT the interactive chat/MCP front end that the engine's
// specification excludes from scope; it exists only to give the library an
// executable entry point, the way the teacher repo's cmd/proxy gave the
// anonymizing proxy one.
//
// Usage:
//
//	./redact document.txt
//	cat document.txt | ./redact
//
// Environment variables (see internal/config and §6 of the spec):
//
//	ENGINE_SCAN_CACHE_FILE, ENGINE_SCAN_CACHE_CAPACITY
//	ENGINE_DICTIONARY_OVERRIDE, ENGINE_POSTFILTER_TERMS_DIR
//	ENGINE_MAX_WORKERS, ENGINE_DETECTOR_BUDGET_MS, ENGINE_STREAM_WINDOW
//	ENGINE_LOG_PHI_TEXT, ENGINE_TRACE_SPANS, ENGINE_REQUIRE_NATIVE, ENGINE_ML_DEVICE
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude-health/deident-engine/internal/config"
	"github.com/claude-health/deident-engine/internal/engine"
	"github.com/claude-health/deident-engine/internal/engineerr"
	"github.com/claude-health/deident-engine/internal/policy"
)

const (
	exitOK           = 0
	exitInputFormat  = 65
	exitInputMissing = 66
	exitInternal     = 70
)

func main() {
	os.Exit(run())
}

func run() int {
	text, err := readInput()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "redact: input not found: %v\n", err)
			return exitInputMissing
		}
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		return exitInputFormat
	}

	cfg := config.Load()

	eng, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redact: construct engine: %v\n", err)
		return exitInternal
	}
	defer eng.Close() //nolint:errcheck // best-effort close on shutdown

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pol := policy.Default()
	result, err := eng.RedactWithDetails(ctx, text, pol)
	if err != nil {
		var ee *engineerr.Error
		if errors.As(err, &ee) {
			switch ee.Kind {
			case engineerr.KindInput:
				fmt.Fprintf(os.Stderr, "redact: %v\n", err)
				return exitInputFormat
			case engineerr.KindCancellation:
				fmt.Fprintf(os.Stderr, "redact: cancelled: %v\n", err)
				return exitInternal
			}
		}
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		return exitInternal
	}

	fmt.Fprintln(os.Stdout, result.RedactedText)

	report, err := json.MarshalIndent(reportView{
		Spans:    result.Spans,
		Mappings: result.Mappings,
		Degraded: result.Report.Degraded,
		Detector: result.Report.DetectorTimings,
		Errors:   result.Report.DetectorErrors,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "redact: marshal report: %v\n", err)
		return exitInternal
	}
	fmt.Fprintln(os.Stderr, string(report))

	return exitOK
}

// reportView is the JSON shape written to stderr: a stable, documented
// subset of the internal dctx.Report plus the spans and replacement
// mapping, matching §6's "spans is an ordered list of {...}. report is a
// structured record..." contract.
type reportView struct {
	Spans    any `json:"spans"`
	Mappings any `json:"mappings"`
	Degraded bool `json:"degraded"`
	Detector any `json:"detectorTimings"`
	Errors   any `json:"detectorErrors"`
}

func readInput() (string, error) {
	args := os.Args[1:]
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0]) //nolint:gosec // G304: path is an explicit CLI argument, not attacker-controlled input
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
