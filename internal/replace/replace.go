// Package replace implements the replacement-apply stage (§4.9): consuming
// the final, non-overlapping span set and the input text to produce the
// redacted output plus a lossless token-to-original mapping. Placeholder
// shape follows policy.ReplacementStyle; the concrete default token layout
// (bracketed, typed, per-document counters) generalizes the teacher's fixed
// "[PII_TYPE_XXXXXXXX]" token (internal/anonymizer.replacement) into the
// spec's four configurable styles.
package replace

import (
	"fmt"
	"strings"

	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// Mapping is one entry in the token-to-original record returned alongside
// the redacted text (§4.9's "(redacted_text, [(token, original_value,
// filter_type)])").
type Mapping struct {
	Token      string
	Original   string
	FilterType span.FilterType
}

// Result is the output of Apply.
type Result struct {
	RedactedText string
	Mappings     []Mapping
}

// counterKey groups a per-type, per-original-value counter so identical
// original values within one document share the same sequential index
// (§4.9: "identical original values within a document share the same N").
type counterKey struct {
	ft    span.FilterType
	value string
}

// Apply consumes spans (already finalized: non-overlapping, sorted by
// CharacterStart per §3's invariant) and the original input, producing the
// redacted text and mapping. dateShiftFn, if non-nil, is consulted for DATE
// spans when pol.DateShift.Enabled; it returns the shifted display string
// and true if the span's text could be parsed as a date, or false to fall
// through to the ordinary placeholder. Apply starts a fresh set of
// bracketed_sequential counters each call; a caller that needs counters to
// stay consistent across multiple calls (internal/stream's segment-by-
// segment output) should use a Replacer instead.
func Apply(spans []span.Span, input string, pol *policy.Policy, dateShiftFn func(original string, shift policy.DateShift) (string, bool)) Result {
	r := NewReplacer()
	return r.Apply(spans, input, pol, dateShiftFn)
}

// Replacer carries the bracketed_sequential per-type, per-value counters
// across multiple Apply calls, so a document processed in segments (§4.10's
// streaming wrapper) assigns the same placeholder index to a recurring
// value in segment 3 that a single non-streaming pass would have.
type Replacer struct {
	sequential  map[counterKey]int
	nextCounter map[span.FilterType]int
}

// NewReplacer returns a Replacer with empty counters.
func NewReplacer() *Replacer {
	return &Replacer{
		sequential:  make(map[counterKey]int),
		nextCounter: make(map[span.FilterType]int),
	}
}

// Apply renders spans against input, sharing counter state with every
// other call made through the same Replacer.
func (r *Replacer) Apply(spans []span.Span, input string, pol *policy.Policy, dateShiftFn func(original string, shift policy.DateShift) (string, bool)) Result {
	runes := []rune(input)
	var out strings.Builder
	mappings := make([]Mapping, 0, len(spans))

	cursor := 0
	for _, s := range spans {
		if s.CharacterStart > cursor {
			out.WriteString(string(runes[cursor:s.CharacterStart]))
		}

		token := placeholderFor(s, pol, r.sequential, r.nextCounter, dateShiftFn)
		out.WriteString(token)
		mappings = append(mappings, Mapping{Token: token, Original: s.Text, FilterType: s.FilterType})

		if s.CharacterEnd > cursor {
			cursor = s.CharacterEnd
		}
	}
	if cursor < len(runes) {
		out.WriteString(string(runes[cursor:]))
	}

	return Result{RedactedText: out.String(), Mappings: mappings}
}

func placeholderFor(s span.Span, pol *policy.Policy, sequential map[counterKey]int, nextCounter map[span.FilterType]int, dateShiftFn func(string, policy.DateShift) (string, bool)) string {
	base := s.FilterType.Base()

	if pol.DateShift.Enabled && base == span.FilterDate && dateShiftFn != nil {
		if shifted, ok := dateShiftFn(s.Text, pol.DateShift); ok {
			return shifted
		}
	}

	switch pol.ReplacementStyle {
	case policy.StyleFixedToken:
		return pol.FixedToken
	case policy.StyleTypedToken:
		return fmt.Sprintf("[%s]", base)
	case policy.StyleCustom:
		if s.Replacement != "" {
			return s.Replacement
		}
		if tok, ok := pol.CustomTokens[s.FilterType]; ok {
			return tok
		}
		if tok, ok := pol.CustomTokens[base]; ok {
			return tok
		}
		return fmt.Sprintf("[%s]", base)
	case policy.StyleBracketedSequential:
		fallthrough
	default:
		key := counterKey{ft: base, value: s.Text}
		n, seen := sequential[key]
		if !seen {
			nextCounter[base]++
			n = nextCounter[base]
			sequential[key] = n
		}
		return fmt.Sprintf("[%s-%d]", base, n)
	}
}
