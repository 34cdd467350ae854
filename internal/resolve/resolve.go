// Package resolve implements the overlap resolver (§4.7): threshold
// filtering, interval-tree-backed overlap elimination via internal/span,
// and boundary snapping for detectors that requested it.
package resolve

import (
	"sort"
	"unicode"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// Resolve takes the union of candidate spans from every detector and
// produces the non-overlapping, policy-thresholded, boundary-snapped set
// required by §4.7. input is the original document text (code points),
// needed for boundary snapping.
func Resolve(candidates []span.Span, input []rune, pol *policy.Policy, ctx *dctx.DocumentContext) []span.Span {
	survivors := make([]span.Span, 0, len(candidates))
	for _, c := range candidates {
		fp := pol.FilterFor(c.FilterType)
		if !fp.Enabled {
			trace(ctx, "threshold", c, false, "filter disabled")
			continue
		}
		floor := pol.GlobalThreshold
		if fp.Threshold > floor {
			floor = fp.Threshold
		}
		if c.Confidence < floor {
			trace(ctx, "threshold", c, false, "below threshold")
			continue
		}
		survivors = append(survivors, c)
	}

	kept := span.DropOverlappingSpans(survivors)
	keptSet := make(map[int]bool, len(kept))
	for _, i := range kept {
		keptSet[i] = true
	}
	for i, c := range survivors {
		if keptSet[i] {
			trace(ctx, "overlap_resolver", c, true, "")
		} else {
			trace(ctx, "overlap_resolver", c, false, "lost overlap tie-break")
		}
	}

	out := make([]span.Span, 0, len(kept))
	for _, i := range kept {
		s := survivors[i]
		if s.SnapToBoundary {
			s = snapToBoundary(s, input)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CharacterStart < out[j].CharacterStart })

	if ctx != nil {
		ctx.Report.RecordStage("overlap_resolver", len(out))
	}
	return out
}

// snapToBoundary expands s outward to the nearest whitespace/punctuation
// boundary on either side, per §4.7 point 4. It never shrinks the span and
// never crosses another token's interior.
func snapToBoundary(s span.Span, input []rune) span.Span {
	start, end := s.CharacterStart, s.CharacterEnd
	for start > 0 && !isBoundary(input[start-1]) {
		start--
	}
	for end < len(input) && !isBoundary(input[end]) {
		end++
	}
	if start == s.CharacterStart && end == s.CharacterEnd {
		return s
	}
	s.CharacterStart = start
	s.CharacterEnd = end
	s.Text = string(input[start:end])
	return s
}

func isBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

func trace(ctx *dctx.DocumentContext, stage string, s span.Span, kept bool, reason string) {
	if ctx != nil && ctx.TraceEnabled {
		ctx.Report.Trace(stage, s, kept, reason)
	}
}
