package detect

import (
	"strings"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// denylistDetector scans the raw text for literal occurrences of every
// string in policy.Denylist and emits a FilterOther candidate for each,
// independent of whether any other detector's pattern happens to match the
// same text. Without this, §3's "denylist: set of literal strings always
// to redact" only held for entries that coincidentally matched some other
// detector's regex (e.g. an uppercase identifier); a lowercase or
// single-word denylist entry with no detector of its own would never
// produce a candidate span at all, and confidenceModifierStage's denylist
// check would have nothing to act on.
type denylistDetector struct{}

func newDenylistDetector() *denylistDetector { return &denylistDetector{} }

func (d *denylistDetector) Name() string { return "denylist" }
func (d *denylistDetector) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterOther}
}

func (d *denylistDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	if len(pol.Denylist) == 0 {
		return nil, nil
	}
	runes := []rune(text)
	var out []span.Span
	for term := range pol.Denylist {
		if term == "" {
			continue
		}
		for _, byteStart := range allIndexes(text, term) {
			byteEnd := byteStart + len(term)
			start, end := byteToRuneOffsets(text, byteStart, byteEnd)
			out = append(out, newSpan(runes, text[byteStart:byteEnd], start, end, span.FilterOther, confVeryHigh, d.Name(), "denylist"))
		}
	}
	return out, nil
}

// allIndexes returns the byte offsets of every non-overlapping literal
// occurrence of sub in s, in ascending order.
func allIndexes(s, sub string) []int {
	var out []int
	offset := 0
	for {
		i := strings.Index(s[offset:], sub)
		if i < 0 {
			return out
		}
		out = append(out, offset+i)
		offset += i + len(sub)
	}
}
