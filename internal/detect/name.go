package detect

import (
	"regexp"
	"strings"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// nameDetector covers three of the four NAME surface forms named in
// SPEC_FULL.md §3.5 (titled, comma-ordered, plain first-last); the fourth
// (family-relation-gated) lives in name_coordinator.go alongside the
// cross-reference cache, since both need the same per-document scan.
// Candidate confidence is boosted when a token matches the dictionary's
// first/last name sets (internal/dictionary). Titled candidates are kept
// with or without a dictionary hit; comma-ordered and plain first-last
// candidates are dropped here unless at least one of their two words
// matches. Any further false-positive suppression for non-name capitalized
// phrases is a post-filter concern per §4.5's locality rule.
type nameDetector struct {
	titledRe *regexp.Regexp
	commaRe  *regexp.Regexp
	plainRe  *regexp.Regexp
}

func newNameDetector() *nameDetector {
	return &nameDetector{
		titledRe: regexp.MustCompile(`\b(?:Dr|Mr|Mrs|Ms|Prof|Rev)\.\s+([A-Z][a-zA-Z'\-]+(?:\s[A-Z][a-zA-Z'\-]+){0,2})`),
		commaRe:  regexp.MustCompile(`\b([A-Z][a-zA-Z'\-]+),\s([A-Z][a-zA-Z'\-]+)\b`),
		plainRe:  regexp.MustCompile(`\b([A-Z][a-zA-Z'\-]+)\s([A-Z][a-zA-Z'\-]+)\b`),
	}
}

func (d *nameDetector) Name() string { return "name" }
func (d *nameDetector) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterNameTitled, span.FilterNameComma, span.FilterName}
}

func (d *nameDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	var out []span.Span
	out = append(out, d.detectTitled(text, ctx)...)
	out = append(out, d.detectComma(text, ctx)...)
	out = append(out, d.detectPlain(text, ctx)...)
	return out, nil
}

func (d *nameDetector) detectTitled(text string, ctx *dctx.DocumentContext) []span.Span {
	runes := []rune(text)
	var out []span.Span
	for _, m := range d.titledRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		full := text[m[0]:m[1]]
		name := text[m[2]:m[3]]
		conf := confHigh
		if nameDictBoost(name, ctx) {
			conf = confVeryHigh
		}
		out = append(out, newSpan(runes, full, start, end, span.FilterNameTitled, conf, d.Name(), d.titledRe.String()))
	}
	return out
}

func (d *nameDetector) detectComma(text string, ctx *dctx.DocumentContext) []span.Span {
	runes := []rune(text)
	var out []span.Span
	for _, m := range d.commaRe.FindAllStringSubmatchIndex(text, -1) {
		last := text[m[2]:m[3]]
		first := text[m[4]:m[5]]
		if !nameDictBoost(last, ctx) && !nameDictBoost(first, ctx) {
			continue
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		out = append(out, newSpan(runes, text[m[0]:m[1]], start, end, span.FilterNameComma, confMedium, d.Name(), d.commaRe.String()))
	}
	return out
}

func (d *nameDetector) detectPlain(text string, ctx *dctx.DocumentContext) []span.Span {
	runes := []rune(text)
	var out []span.Span
	for _, m := range d.plainRe.FindAllStringSubmatchIndex(text, -1) {
		first := text[m[2]:m[3]]
		last := text[m[4]:m[5]]
		firstHit := nameDictBoost(first, ctx)
		lastHit := nameDictBoost(last, ctx)
		if !firstHit && !lastHit {
			continue
		}
		conf := confMedium
		if firstHit && lastHit {
			conf = confHigh
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		out = append(out, newSpan(runes, text[m[0]:m[1]], start, end, span.FilterName, conf, d.Name(), d.plainRe.String()))
	}
	return out
}

// nameDictBoost reports whether token matches the first- or last-name
// dictionary exactly or phonetically.
func nameDictBoost(token string, ctx *dctx.DocumentContext) bool {
	if ctx == nil || ctx.Dictionaries == nil {
		return false
	}
	token = strings.TrimSpace(token)
	if ctx.Dictionaries.FirstNames.ContainsExact(token) || ctx.Dictionaries.LastNames.ContainsExact(token) {
		return true
	}
	if _, ok := ctx.Dictionaries.FirstNames.ContainsPhonetic(token); ok {
		return true
	}
	if _, ok := ctx.Dictionaries.LastNames.ContainsPhonetic(token); ok {
		return true
	}
	return false
}
