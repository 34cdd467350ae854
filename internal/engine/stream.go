package engine

import (
	"context"

	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/replace"
	"github.com/claude-health/deident-engine/internal/span"
	"github.com/claude-health/deident-engine/internal/stream"
)

// windowPipeline adapts Engine.analyze into the internal/stream.Pipeline
// interface: run detection, resolution, and post-filtering over one
// re-detection window and return the finalized spans. It deliberately does
// not apply replacements itself — NewStream's Applier callback owns that so
// document-wide replacement counters stay consistent across every segment
// of one stream (internal/stream's own doc comment explains why the
// package itself can't own this state).
type windowPipeline struct {
	e *Engine
}

func (p windowPipeline) Analyze(text string, pol *policy.Policy) ([]span.Span, error) {
	res, err := p.e.analyze(context.Background(), text, pol, false)
	if err != nil {
		return nil, err
	}
	return res.Spans, nil
}

// NewStream constructs a streaming Engine (§4.10) bound to this Engine's
// detector suite and dictionaries, applying replacements with a
// document-wide set of sequential replacement counters so a value seen in
// segment 3 reuses the same placeholder index it would have gotten in a
// single non-streaming pass over the whole document. A window <= 0 uses
// cfg.StreamWindow, and internal/stream's default when that is zero too.
func (e *Engine) NewStream(pol *policy.Policy, mode stream.Mode, window int) *stream.Engine {
	if window <= 0 {
		window = e.cfg.StreamWindow
	}
	replacer := replace.NewReplacer()
	apply := func(segmentText string, spans []span.Span) string {
		return replacer.Apply(spans, segmentText, pol, ShiftDate).RedactedText
	}
	return stream.New(pol, mode, window, windowPipeline{e: e}, apply)
}
