// Package parallel implements the fan-out engine from §4.6: every enabled
// detector runs concurrently over the same text, with per-detector
// wall-clock budgets, panic recovery, and malformed-span rejection, so one
// misbehaving detector never aborts the document. Built on
// golang.org/x/sync/errgroup (pulled into the pack by vippsas-sqlcode and
// leanlp-BTC-coinjoin), generalizing the teacher's ollamaSem
// worker-count-channel pattern into a channel semaphore (sized to
// runtime.NumCPU() by default) in front of an errgroup.Group.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/detect"
	"github.com/claude-health/deident-engine/internal/engineerr"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// DefaultDetectorBudget is the per-detector wall-clock budget (§5:
// "per-detector timeouts as a wall-clock budget") applied when the caller
// doesn't override it.
const DefaultDetectorBudget = 2 * time.Second

// Options tunes the fan-out engine's concurrency and per-detector budget.
type Options struct {
	// MaxWorkers bounds how many detectors run at once. Zero means
	// runtime.NumCPU(), mirroring the teacher's CPU-sized semaphore.
	MaxWorkers int
	// DetectorBudget is the per-detector wall-clock limit. Zero means
	// DefaultDetectorBudget.
	DetectorBudget time.Duration
}

func (o Options) workers() int {
	if o.MaxWorkers > 0 {
		return o.MaxWorkers
	}
	return runtime.NumCPU()
}

func (o Options) budget() time.Duration {
	if o.DetectorBudget > 0 {
		return o.DetectorBudget
	}
	return DefaultDetectorBudget
}

// Run fans out over every detector in detectors concurrently, bounded by
// opts.workers(), and returns the union of their candidate spans. A
// detector that panics, times out, or returns a span violating §3's offset
// invariants is skipped; its failure is recorded in ctx.Report and the rest
// of the detectors still run (§4.6's failure isolation). The returned error
// is non-nil only for a caller-supplied context cancellation (§7
// CancellationError) — detector failures never propagate.
func Run(pctx context.Context, text string, detectors []detect.Detector, pol *policy.Policy, ctx *dctx.DocumentContext, opts Options) ([]span.Span, error) {
	runes := []rune(text)
	sem := make(chan struct{}, opts.workers())
	g, gctx := errgroup.WithContext(pctx)

	var mu sync.Mutex
	var all []span.Span

	for _, d := range detectors {
		d := d
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			spans, err, took := runOne(gctx, text, runes, d, pol, ctx, opts.budget())
			ctx.Report.RecordTiming(d.Name(), took)
			if err != nil {
				if err == context.Canceled || err == context.DeadlineExceeded {
					if gctx.Err() != nil {
						return gctx.Err() // whole run is cancelling; don't mask with a detector error
					}
				}
				ctx.Report.RecordError(d.Name(), err)
				return nil
			}

			mu.Lock()
			all = append(all, spans...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, engineerr.New(engineerr.KindCancellation, "detector fan-out cancelled", err)
	}
	return all, nil
}

// runOne invokes a single detector with a recover guard and a per-detector
// timeout, validating every returned span against §3's invariants before
// it's handed back to the aggregator. It never panics and never blocks past
// budget: Detect runs on its own goroutine so a detector that ignores
// context cancellation (none of ours do, but §4.6 assumes a hostile
// implementation could exist) doesn't hang the whole fan-out — its result is
// simply discarded if it arrives late.
func runOne(gctx context.Context, text string, runes []rune, d detect.Detector, pol *policy.Policy, ctx *dctx.DocumentContext, budget time.Duration) (out []span.Span, err error, took time.Duration) {
	start := time.Now()
	tctx, cancel := context.WithTimeout(gctx, budget)
	defer cancel()

	type result struct {
		spans []span.Span
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("detector %q panicked: %v", d.Name(), r)}
			}
		}()
		spans, derr := d.Detect(text, pol, ctx)
		done <- result{spans: spans, err: derr}
	}()

	select {
	case <-tctx.Done():
		took = time.Since(start)
		if gctx.Err() != nil {
			return nil, gctx.Err(), took
		}
		return nil, fmt.Errorf("detector %q exceeded %s budget", d.Name(), budget), took
	case r := <-done:
		took = time.Since(start)
		if r.err != nil {
			return nil, r.err, took
		}
		valid := make([]span.Span, 0, len(r.spans))
		for _, s := range r.spans {
			if !s.Valid(runes) {
				ctx.Report.RecordError(d.Name(), fmt.Errorf("detector %q produced invalid span %+v", d.Name(), s.Key()))
				continue
			}
			valid = append(valid, s)
		}
		return valid, nil, took
	}
}
