package detect

import (
	"regexp"
	"strings"

	"github.com/claude-health/deident-engine/internal/span"
)

// contextWindow is the half-width, in code points, used to build a span's
// Context field (§3: "a bounded window, e.g., ±50 chars").
const contextWindow = 50

// byteToRuneOffsets converts a regexp byte-offset match location into
// code-point offsets, since Go's regexp package reports byte indices but
// the engine's canonical offsets are code points (§3).
func byteToRuneOffsets(text string, byteStart, byteEnd int) (runeStart, runeEnd int) {
	runeStart = len([]rune(text[:byteStart]))
	runeEnd = runeStart + len([]rune(text[byteStart:byteEnd]))
	return
}

// extractContext returns the ±contextWindow code-point slice around
// [start,end) in the rune slice runes, clamped to bounds.
func extractContext(runes []rune, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}

// newSpan builds a Span from a regex submatch, filling in the common
// bookkeeping fields (Context, Priority, MatchSource) so each detector only
// needs to supply the identifying bits.
func newSpan(runes []rune, text string, start, end int, ft span.FilterType, confidence float64, source, pattern string) span.Span {
	return span.Span{
		Text:           text,
		CharacterStart: start,
		CharacterEnd:   end,
		FilterType:     ft,
		Confidence:     confidence,
		Priority:       priorityOf(ft),
		Context:        extractContext(runes, start, end),
		Pattern:        pattern,
		MatchSource:    source,
	}
}

// findAllSpans runs re against text and yields one Span per match using
// build, the common shape shared by most regex-backed detectors.
func findAllSpans(re *regexp.Regexp, text string, build func(runes []rune, m []int) (span.Span, bool)) []span.Span {
	runes := []rune(text)
	var out []span.Span
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		s, ok := build(runes, m)
		if ok {
			out = append(out, s)
		}
	}
	return out
}

// wordBefore returns the lowercased word immediately preceding offset
// (code-point index) in runes, used by detectors that gate on a keyword
// prefix (e.g. "MRN:", "DEA#").
func wordBefore(runes []rune, offset int) string {
	i := offset
	for i > 0 && (runes[i-1] == ' ' || runes[i-1] == '\t' || runes[i-1] == ':' || runes[i-1] == '#') {
		i--
	}
	j := i
	for j > 0 && isWordRune(runes[j-1]) {
		j--
	}
	return strings.ToLower(string(runes[j:i]))
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
