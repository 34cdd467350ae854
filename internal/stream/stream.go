// Package stream implements the streaming wrapper from §4.10: a chunked
// ingest front end that preserves the non-streaming engine's semantics
// across segment boundaries via an overlap window re-fed to the pipeline.
// Grounded on the teacher's StreamingDeanonymize line-buffering and
// token-boundary-preserving accumulator (internal/anonymizer.go) — here,
// SSE event boundaries become sentence/newline segment boundaries, and
// token-split reassembly becomes the overlap-window re-detection described
// in §4.10, implemented as the explicit state machine §9 calls for instead
// of the teacher's scattered textAccum/lineBuf fields.
package stream

import (
	"strings"

	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// Mode selects the segment-boundary rule (§4.10).
type Mode string

const (
	// ModeImmediate ends a segment at a newline or sentence terminator,
	// whichever comes first: lower latency.
	ModeImmediate Mode = "immediate"
	// ModeSentence ends a segment only at a terminated sentence with at
	// least one trailing character: higher accuracy.
	ModeSentence Mode = "sentence"
)

// DefaultOverlapWindow is the default overlap window W from §4.10.
const DefaultOverlapWindow = 200

// state is the explicit state machine from §9's design note.
type state int

const (
	stateBuffering state = iota
	stateReady
	stateFlushing
	stateDone
)

// Pipeline is the subset of the non-streaming pipeline the streaming
// wrapper needs: run detection+resolution+post-filter over one window of
// text and return the resulting finalized spans (code-point offsets into
// the window, not the whole document). internal/engine's Engine satisfies
// this via a small adapter (see internal/engine/stream.go).
type Pipeline interface {
	Analyze(text string, pol *policy.Policy) ([]span.Span, error)
}

// Applier renders the committed spans of one segment into replacement
// text. It is supplied by the caller (internal/engine) rather than fixed
// here, because it owns document-wide replacement state (e.g. the
// bracketed_sequential per-type counters from §4.9, which must stay
// consistent across every segment of one stream, not just one window) that
// this package deliberately has no dependency on.
type Applier func(segmentText string, spans []span.Span) string

// segmentResult is one committed output segment plus the spans that were
// emitted with it (CharacterStart within the committed segment only, per
// §4.10: "only spans whose character_start falls within the committed
// segment are emitted").
type segmentResult struct {
	text  string
	spans []span.Span
}

// Engine is the streaming driver from §4.10's "StreamingEngine(policy,
// mode)". It is not safe for concurrent Push/PopSegment calls from
// multiple goroutines; one Engine serves one logical stream.
type Engine struct {
	pol    *policy.Policy
	mode   Mode
	window int
	pl     Pipeline
	apply  Applier

	st          state
	buf         strings.Builder
	committed   int // code points already emitted to the caller, source offset
	pendingText []rune
	widened     bool // true once the window has been dynamically doubled (§9 open question 3)
}

// New constructs a streaming Engine. window <= 0 uses DefaultOverlapWindow.
func New(pol *policy.Policy, mode Mode, window int, pl Pipeline, apply Applier) *Engine {
	if window <= 0 {
		window = DefaultOverlapWindow
	}
	return &Engine{pol: pol, mode: mode, window: window, pl: pl, apply: apply, st: stateBuffering}
}

// Push appends a chunk of input to the stream's buffer. It performs no
// detection work itself (§4.10's state machine only yields detection work
// at PopSegment, matching §5: "yield points are only at push and
// pop_segment").
func (e *Engine) Push(chunk string) {
	if e.st == stateDone {
		return
	}
	e.buf.WriteString(chunk)
	e.pendingText = []rune(e.buf.String())
	if e.boundaryIndex() >= 0 {
		e.st = stateReady
	}
}

// PopSegment returns the next committed output segment, or (\"\", false) if
// no segment boundary is available yet and force is false. When force is
// true (typically at EOF), the entire remaining buffer is flushed as a
// final non-streaming pass (§4.10's cancellation contract).
func (e *Engine) PopSegment(force bool) (string, bool) {
	if e.st == stateDone {
		return "", false
	}

	idx := e.boundaryIndex()
	if idx < 0 {
		if !force {
			return "", false
		}
		idx = len(e.pendingText)
		e.st = stateFlushing
	}
	if idx == 0 && len(e.pendingText) == 0 {
		e.st = stateDone
		return "", false
	}

	result := e.processUpTo(idx, force)
	if e.st == stateFlushing {
		e.st = stateDone
	} else {
		e.st = stateBuffering
	}
	return result.text, true
}

// processUpTo runs the non-streaming pipeline over [segmentStart,
// idx+window) — the segment plus the overlap window after its boundary;
// text committed by earlier segments is not re-fed — then commits only the
// spans whose start falls within [segmentStart, idx). A span that starts
// before idx but runs past it is never cut in two: the segment is
// shortened to end where that span starts, so the later segment emits it
// whole (§4.10: "resolved by the later segment, never emitted twice"). If
// that span starts at the very beginning of the segment, the segment is
// extended to the span's end instead.
func (e *Engine) processUpTo(idx int, final bool) segmentResult {
	hi := idx + e.window
	if hi > len(e.pendingText) {
		hi = len(e.pendingText)
	}

	windowText := string(e.pendingText[:hi])
	spans, err := e.pl.Analyze(windowText, e.pol)
	if err != nil {
		spans = nil
	}

	if e.exceedsWindow(spans) && !e.widened {
		e.widened = true
		e.window *= 2
	}

	for _, s := range spans {
		if s.CharacterStart < idx && s.CharacterEnd > idx {
			if s.CharacterStart > 0 {
				idx = s.CharacterStart
			} else {
				idx = s.CharacterEnd
			}
		}
	}

	committedSpans := make([]span.Span, 0, len(spans))
	for _, s := range spans {
		if s.CharacterStart < idx {
			committedSpans = append(committedSpans, s)
		}
	}

	emittedText := e.apply(string(e.pendingText[:idx]), committedSpans)
	e.committed += idx
	remainder := append([]rune(nil), e.pendingText[idx:]...)
	e.buf.Reset()
	e.buf.WriteString(string(remainder))
	e.pendingText = remainder

	return segmentResult{text: emittedText, spans: committedSpans}
}

// exceedsWindow reports whether any span is at least as long as the
// current overlap window, a sign the true match may be longer than the
// window captured (§9 open question 3: dynamic widening rather than silent
// truncation). processUpTo then doubles the window, at most once per
// stream; the segment already analyzed is not re-run.
func (e *Engine) exceedsWindow(spans []span.Span) bool {
	for _, s := range spans {
		if s.Len() >= e.window {
			return true
		}
	}
	return false
}

// boundaryIndex returns the code-point offset of the nearest (earliest)
// available segment boundary in pendingText, or -1 if none yet. Earliest,
// not latest, so ModeImmediate actually delivers the low latency its name
// promises rather than batching the whole buffer into one segment.
func (e *Engine) boundaryIndex() int {
	text := e.pendingText
	for i, r := range text {
		if r != '\n' && !isSentenceTerminator(r) {
			continue
		}
		if e.mode == ModeImmediate {
			return i + 1
		}
		// ModeSentence requires at least one trailing character after the
		// terminator (§4.10: "a terminated sentence with at least one
		// trailing character"), so a lone "." at end-of-buffer isn't a
		// boundary yet — more of the sentence could still be on the way.
		if i+1 < len(text) {
			return i + 1
		}
	}
	return -1
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
