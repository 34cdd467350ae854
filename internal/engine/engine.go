// Package engine wires the full pipeline from §2's system overview into
// the three calls §6 exposes (redact, redact_with_details, analyze):
// detector fan-out (internal/parallel) -> overlap resolution
// (internal/resolve) -> post-filtering (internal/postfilter) -> replacement
// apply (internal/replace). Engine is a constructed instance, matching the
// teacher's `New(...) *Anonymizer` pattern — there is no package-level
// singleton anywhere in this repo (§9's global-state design note).
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude-health/deident-engine/internal/config"
	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/detect"
	"github.com/claude-health/deident-engine/internal/dictionary"
	"github.com/claude-health/deident-engine/internal/engineerr"
	"github.com/claude-health/deident-engine/internal/logger"
	"github.com/claude-health/deident-engine/internal/metrics"
	"github.com/claude-health/deident-engine/internal/normalize"
	"github.com/claude-health/deident-engine/internal/parallel"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/postfilter"
	"github.com/claude-health/deident-engine/internal/replace"
	"github.com/claude-health/deident-engine/internal/resolve"
	"github.com/claude-health/deident-engine/internal/scancache"
	"github.com/claude-health/deident-engine/internal/span"
)

// Engine is a constructed, reusable instance of the de-identification
// pipeline: one Engine owns its dictionaries, vocabularies, detector
// registry, and scan cache, and can safely serve concurrent Redact/Analyze
// calls for many documents (§5: "detectors... safe for concurrent use
// across documents").
type Engine struct {
	cfg       *config.Config
	dict      *dictionary.Snapshot
	vocab     *postfilter.Vocabularies
	registry  *detect.Registry
	scanCache scancache.Cache
	log       *logger.Logger
	metrics   *metrics.Metrics

	parallelOpts parallel.Options
}

// New constructs an Engine from cfg: loads the dictionary snapshot
// (embedded defaults plus any on-disk override), loads post-filter
// vocabularies from the embedded term files (cfg.PostFilterTermsDir is not
// read), opens the durable scan cache, and builds the detector registry.
// Returns a ConfigError (§7) if any of the above fails, or if
// cfg.RequireNative is set, since this build has only portable
// implementations — construction is fail-fast, not fail-open, matching
// §7's "ConfigError... the engine refuses to start".
func New(cfg *config.Config) (*Engine, error) {
	if cfg.RequireNative {
		return nil, engineerr.New(engineerr.KindConfig, "ENGINE_REQUIRE_NATIVE is set but this build has no accelerated implementation", nil)
	}

	dict, err := dictionary.Load(cfg.DictionaryOverridePath)
	if err != nil {
		return nil, engineerr.New(engineerr.KindConfig, "load dictionary snapshot", err)
	}

	vocab, err := postfilter.DefaultVocabularies()
	if err != nil {
		return nil, engineerr.New(engineerr.KindConfig, "load post-filter vocabularies", err)
	}

	cache := scancache.Open(cfg.ScanCacheFile, cfg.ScanCacheCapacity)

	budget := parallel.DefaultDetectorBudget
	if cfg.DetectorBudgetMS > 0 {
		budget = time.Duration(cfg.DetectorBudgetMS) * time.Millisecond
	}

	return &Engine{
		cfg:       cfg,
		dict:      dict,
		vocab:     vocab,
		registry:  detect.NewRegistry(),
		scanCache: cache,
		log:       logger.New("ENGINE", cfg.LogLevel),
		metrics:   metrics.New(),
		parallelOpts: parallel.Options{
			MaxWorkers:     cfg.MaxWorkers,
			DetectorBudget: budget,
		},
	}, nil
}

// Close releases the Engine's durable resources (the scan cache's bbolt
// handle, if any).
func (e *Engine) Close() error {
	return e.scanCache.Close()
}

// Metrics returns the Engine's runtime counters, for a caller that wants to
// expose them (e.g. cmd/redact's report output).
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// Result is the outcome of Redact/RedactWithDetails: the redacted text,
// the finalized spans, the token-to-original mapping, and the execution
// report (§6).
type Result struct {
	RedactedText string
	Spans        []span.Span
	Mappings     []replace.Mapping
	Report       *dctx.Report
}

// AnalyzeResult is the outcome of Analyze: spans plus report, no
// replacement (§6: "analyze(text, policy) -> { spans, report } # no
// replacement").
type AnalyzeResult struct {
	Spans  []span.Span
	Report *dctx.Report
}

// Redact runs the full pipeline and returns the redacted text, finalized
// spans, and an execution report (§6's plain redact call). The report
// carries the full per-stage span journey only when cfg.TraceSpans is set.
func (e *Engine) Redact(ctx context.Context, text string, pol *policy.Policy) (Result, error) {
	return e.redact(ctx, text, pol, false)
}

// RedactWithDetails is Redact, but with ENGINE_TRACE_SPANS-style tracing
// forced on regardless of cfg.TraceSpans, so the returned report includes
// every span's full stage-by-stage journey (§6: "as above, with full span
// journey trace").
func (e *Engine) RedactWithDetails(ctx context.Context, text string, pol *policy.Policy) (Result, error) {
	return e.redact(ctx, text, pol, true)
}

func (e *Engine) redact(ctx context.Context, text string, pol *policy.Policy, forceTrace bool) (Result, error) {
	start := time.Now()
	res, err := e.analyze(ctx, text, pol, forceTrace)
	if err != nil {
		return Result{}, err
	}

	applied := replace.Apply(res.Spans, text, pol, ShiftDate)
	e.metrics.RecordRedactLatency(time.Since(start))
	e.recordDocument(res.Spans, res.Report)

	return Result{
		RedactedText: applied.RedactedText,
		Spans:        res.Spans,
		Mappings:     applied.Mappings,
		Report:       res.Report,
	}, nil
}

// Analyze runs detection, resolution, and post-filtering but performs no
// replacement (§6).
func (e *Engine) Analyze(ctx context.Context, text string, pol *policy.Policy) (AnalyzeResult, error) {
	res, err := e.analyze(ctx, text, pol, false)
	if err != nil {
		return AnalyzeResult{}, err
	}
	e.recordDocument(res.Spans, res.Report)
	return AnalyzeResult{Spans: res.Spans, Report: res.Report}, nil
}

// analyze is the shared core of Redact/Analyze: validate the policy,
// build a DocumentContext, fan out over the active detectors, resolve
// overlaps, and run the post-filter pipeline. ctx is threaded into the
// detector fan-out itself, so a caller's cancellation interrupts in-flight
// detectors rather than only being noticed once the whole pass has already
// run to completion (§7's CancellationError).
func (e *Engine) analyze(ctx context.Context, text string, pol *policy.Policy, forceTrace bool) (AnalyzeResult, error) {
	if err := pol.Validate(); err != nil {
		return AnalyzeResult{}, err
	}
	if err := validateInput(text); err != nil {
		return AnalyzeResult{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	traceEnabled := forceTrace || e.cfg.TraceSpans
	dc := dctx.New(text, normalize.NFCFold(text), e.dict, traceEnabled, e.cfg.LogPHIText)
	dc.Report.TraceID = uuid.NewString()

	active := e.registry.Active(pol)
	candidates, err := parallel.Run(ctx, text, active, pol, dc, e.parallelOpts)
	if err != nil {
		if ctx.Err() != nil {
			return AnalyzeResult{}, engineerr.New(engineerr.KindCancellation, "analyze cancelled", ctx.Err())
		}
		return AnalyzeResult{}, err
	}

	runes := []rune(text)
	resolved := resolve.Resolve(candidates, runes, pol, dc)

	pipeline := postfilter.NewPipeline(e.vocab, pol)
	final := pipeline.Run(resolved, text, dc)

	e.log.Debugf("analyze", "detectors=%d candidates=%d final=%d degraded=%v",
		len(active), len(candidates), len(final), dc.Report.Degraded)

	return AnalyzeResult{Spans: final, Report: dc.Report}, nil
}

func (e *Engine) recordDocument(spans []span.Span, report *dctx.Report) {
	byType := make(map[span.FilterType]int, len(spans))
	for _, s := range spans {
		byType[s.FilterType.Base()]++
	}
	degraded := report != nil && report.Degraded
	e.metrics.RecordDocument(byType, degraded)
	if report == nil {
		return
	}
	for _, d := range report.DetectorTimings {
		e.metrics.RecordDetectorLatency(d)
	}
}

// validateInput enforces §7's InputError case: malformed input such as
// embedded NUL bytes, which would silently corrupt offset-based span
// reporting in some consumers.
func validateInput(text string) error {
	for _, r := range text {
		if r == 0 {
			return engineerr.New(engineerr.KindInput, "input contains a NUL byte", nil)
		}
	}
	return nil
}
