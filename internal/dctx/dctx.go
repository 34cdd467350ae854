// Package dctx holds the per-document mutable state and execution report
// from §3/§5 ("Document context") and §3.12. It is its own package, rather
// than living in internal/engine as SPEC_FULL.md's module layout suggests,
// because internal/detect's Detector interface also needs the type and
// internal/engine depends on internal/detect (via internal/parallel) — a
// direct internal/detect -> internal/engine import would cycle. See
// DESIGN.md for this structural deviation.
package dctx

import (
	"sync"
	"time"

	"github.com/claude-health/deident-engine/internal/dictionary"
	"github.com/claude-health/deident-engine/internal/span"
)

// JourneyEntry records one decision made about a span as it moves through
// the pipeline, for the optional debug trace (ENGINE_TRACE_SPANS).
type JourneyEntry struct {
	Stage   string
	Span    span.Span
	Kept    bool
	Reason  string
}

// Report is the structured execution record returned alongside every
// redact/analyze call: detector timings, detector failures, and
// stage-by-stage span counts (§6). Its record methods are called
// concurrently from internal/parallel's per-detector goroutines, so mu
// guards every field below — the same "synchronized interface" requirement
// §5 places on scanCache, here extended to the report.
type Report struct {
	TraceID         string
	DetectorTimings map[string]time.Duration
	DetectorErrors  map[string]string
	StageSpanCounts map[string]int
	Degraded        bool
	Journey         []JourneyEntry

	mu sync.Mutex
}

// NewReport returns an empty Report with initialized maps.
func NewReport(traceID string) *Report {
	return &Report{
		TraceID:         traceID,
		DetectorTimings: make(map[string]time.Duration),
		DetectorErrors:  make(map[string]string),
		StageSpanCounts: make(map[string]int),
	}
}

// RecordTiming stores a detector's wall-clock duration.
func (r *Report) RecordTiming(detector string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DetectorTimings[detector] = d
}

// RecordError stores a detector failure and marks the report degraded,
// per §7's rule that a single detector failing does not abort the run.
func (r *Report) RecordError(detector string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DetectorErrors[detector] = err.Error()
	r.Degraded = true
}

// RecordStage stores how many spans survived a pipeline stage.
func (r *Report) RecordStage(stage string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StageSpanCounts[stage] = count
}

// Trace appends a journey entry if the caller has enabled tracing;
// call sites check TraceEnabled themselves to avoid the Clone cost when
// tracing is off.
func (r *Report) Trace(stage string, s span.Span, kept bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Journey = append(r.Journey, JourneyEntry{Stage: stage, Span: s.Clone(), Kept: kept, Reason: reason})
}

// scanCacheCap bounds the per-document dictionary-scan cache (§3: "bounded
// LRU, keyed by the normalized text").
const scanCacheCap = 4096

// scanCacheEntry is one LRU node.
type scanCacheEntry struct {
	key   string
	value any
	prev  *scanCacheEntry
	next  *scanCacheEntry
}

// scanCache is a small bounded LRU, synchronized because detectors run
// concurrently and share one DocumentContext for reads, with writes
// serialized through this type (§5: "accessed through a synchronized
// interface with a bounded LRU").
type scanCache struct {
	mu       sync.Mutex
	cap      int
	entries  map[string]*scanCacheEntry
	head     *scanCacheEntry // most recently used
	tail     *scanCacheEntry // least recently used
}

func newScanCache(capacity int) *scanCache {
	return &scanCache{cap: capacity, entries: make(map[string]*scanCacheEntry, capacity)}
}

func (c *scanCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *scanCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}
	e := &scanCacheEntry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)
	if len(c.entries) > c.cap {
		c.evictTail()
	}
}

func (c *scanCache) pushFront(e *scanCacheEntry) {
	e.prev, e.next = nil, c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *scanCache) moveToFront(e *scanCacheEntry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *scanCache) unlink(e *scanCacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *scanCache) evictTail() {
	if c.tail == nil {
		return
	}
	victim := c.tail
	c.unlink(victim)
	delete(c.entries, victim.key)
}

// DocumentContext is the read-only-to-detectors, per-document state
// created before the parallel fan-out and destroyed once the pipeline
// returns (§3: "Document context"). Detectors must not retain references
// to it after Detect returns (§5).
type DocumentContext struct {
	Input          string
	Normalized     string
	Dictionaries   *dictionary.Snapshot
	Report         *Report
	TraceEnabled   bool
	LogPHIText     bool

	scanCache *scanCache
}

// New constructs a DocumentContext for one input document.
func New(input, normalized string, dict *dictionary.Snapshot, traceEnabled, logPHIText bool) *DocumentContext {
	return &DocumentContext{
		Input:        input,
		Normalized:   normalized,
		Dictionaries: dict,
		Report:       NewReport(""),
		TraceEnabled: traceEnabled,
		LogPHIText:   logPHIText,
		scanCache:    newScanCache(scanCacheCap),
	}
}

// CachedScan returns a previously computed scan result for key, or runs
// compute and caches the result. Used by detectors whose dictionary scans
// are expensive enough to amortize across multiple callers within one
// document (e.g. the NAME coordinator's cross-reference pass).
func (d *DocumentContext) CachedScan(key string, compute func() any) any {
	if v, ok := d.scanCache.Get(key); ok {
		return v
	}
	v := compute()
	d.scanCache.Set(key, v)
	return v
}
