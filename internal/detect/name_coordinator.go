package detect

import (
	"regexp"
	"strings"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// familyRelationRe gates the fourth NAME surface form: a capitalized name
// immediately following a family-relation keyword ("her son John Doe",
// "patient's father Robert Jones"). Lowest priority of the four subtypes
// (SPEC_FULL.md §5) since the keyword is a weaker signal than an honorific
// or dictionary hit alone.
var familyRelationRe = regexp.MustCompile(`\b(?i:mother|father|son|daughter|wife|husband|sister|brother|spouse|parent|guardian)(?:'s)?\s+([A-Z][a-zA-Z'\-]+(?:\s[A-Z][a-zA-Z'\-]+){0,2})`)

// nameCoordinator implements the family-relation NAME subtype plus a
// cross-reference pass: once a dictionary-backed multi-word name is seen
// anywhere in the document, every other literal occurrence of that exact
// string is also surfaced at the same confidence, even where it appears
// later without an honorific or relation cue (e.g. a bare repeat of a
// patient's full name on a second line). The seed set is memoized on the
// DocumentContext via CachedScan, so a repeated Detect call against the
// same DocumentContext does not redo the seed scan; the relation scan runs
// on every call.
type nameCoordinator struct{}

func newNameCoordinator() *nameCoordinator { return &nameCoordinator{} }

func (d *nameCoordinator) Name() string { return "name_coordinator" }
func (d *nameCoordinator) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterNameFamily, span.FilterName}
}

func (d *nameCoordinator) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	runes := []rune(text)
	var out []span.Span

	seeds := d.seedNames(text, ctx)
	for _, m := range familyRelationRe.FindAllStringSubmatchIndex(text, -1) {
		candidate := text[m[2]:m[3]]
		start, end := byteToRuneOffsets(text, m[2], m[3])
		conf := confMedium
		if nameDictBoost(candidate, ctx) {
			conf = confHigh
		}
		out = append(out, newSpan(runes, candidate, start, end, span.FilterNameFamily, conf, d.Name(), familyRelationRe.String()))
	}

	for _, seed := range seeds {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(seed) + `\b`)
		for _, m := range re.FindAllStringIndex(text, -1) {
			start, end := byteToRuneOffsets(text, m[0], m[1])
			out = append(out, newSpan(runes, text[m[0]:m[1]], start, end, span.FilterName, confHigh, d.Name(), "cross_reference"))
		}
	}
	return out, nil
}

// seedNames finds dictionary-backed multi-word capitalized phrases anywhere
// in the document, used as the cross-reference anchor set. It is
// intentionally conservative: both words must independently match the
// name dictionary (exactly or phonetically), so it cannot manufacture a
// name out of two arbitrary capitalized words.
func (d *nameCoordinator) seedNames(text string, ctx *dctx.DocumentContext) []string {
	if ctx == nil {
		return nil
	}
	cached := ctx.CachedScan("name_coordinator:seeds", func() any {
		seeds := make(map[string]bool)
		for _, m := range twoWordCapitalizedRe.FindAllStringSubmatchIndex(text, -1) {
			first := text[m[2]:m[3]]
			last := text[m[4]:m[5]]
			if nameDictBoost(first, ctx) && nameDictBoost(last, ctx) {
				seeds[strings.TrimSpace(text[m[0]:m[1]])] = true
			}
		}
		out := make([]string, 0, len(seeds))
		for s := range seeds {
			out = append(out, s)
		}
		return out
	})
	seeds, _ := cached.([]string)
	return seeds
}

var twoWordCapitalizedRe = regexp.MustCompile(`\b([A-Z][a-zA-Z'\-]+)\s([A-Z][a-zA-Z'\-]+)\b`)
