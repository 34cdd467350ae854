package detect

import (
	"regexp"
	"strconv"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/normalize"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// ageOver90Threshold is HIPAA Safe Harbor's age-aggregation boundary: ages
// over 89 are PHI and must be replaced with a "90+" style placeholder
// rather than the literal age, per original_source's healthsync engine
// (`age > threshold` triggers aggregation) generalized from its
// birth-date-rewrite form to a span-level AGE/AGE_90 distinction.
const ageOver90Threshold = 89

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{4}-\d{2}-\d{2})\b`)
	verbalDateRe  = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`)
	ageRe         = regexp.MustCompile(`(?i)\bage(?:d)?[\s:]*(\d{1,3})\b|\b(\d{1,3})[\s\-]year(?:s)?[\s\-]old\b`)
)

// dateDetector covers every DATE/AGE surface form named in SPEC_FULL.md
// §3.5: numeric, verbal, age, and the HIPAA age-90 aggregation case. It
// matches the original text only and does not consult the OCR-tolerant
// digit surface from internal/normalize, so OCR-garbled dates such as
// "o1/15/2o24" are not detected.
type dateDetector struct{}

func newDateDetector() *dateDetector { return &dateDetector{} }

func (d *dateDetector) Name() string { return "date" }
func (d *dateDetector) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterDate, span.FilterAge}
}

func (d *dateDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	var out []span.Span
	out = append(out, d.detectNumeric(text)...)
	out = append(out, d.detectVerbal(text)...)
	out = append(out, d.detectAge(text)...)
	return out, nil
}

func (d *dateDetector) detectNumeric(text string) []span.Span {
	return findAllSpans(numericDateRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterDate, confHigh, d.Name(), numericDateRe.String()), true
	})
}

func (d *dateDetector) detectVerbal(text string) []span.Span {
	return findAllSpans(verbalDateRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterDate, confVeryHigh, d.Name(), verbalDateRe.String()), true
	})
}

func (d *dateDetector) detectAge(text string) []span.Span {
	runes := []rune(text)
	var out []span.Span
	for _, m := range ageRe.FindAllStringSubmatchIndex(text, -1) {
		var numStart, numEnd int
		if m[2] >= 0 {
			numStart, numEnd = m[2], m[3]
		} else {
			numStart, numEnd = m[4], m[5]
		}
		value, err := strconv.Atoi(text[numStart:numEnd])
		if err != nil || value > 130 {
			continue
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		ft := span.FilterAge
		conf := confHigh
		matched := text[m[0]:m[1]]
		s := newSpan(runes, matched, start, end, ft, conf, d.Name(), ageRe.String())
		if value > ageOver90Threshold {
			// Over the Safe Harbor cap: tag the span as age_90_aggregate.
			// internal/replace does not read this tag and renders the span
			// like any other AGE span; no "90+" text is produced (§policy
			// DateShift does not apply to ages).
			s.Pattern = "age_90_aggregate"
		}
		out = append(out, s)
	}
	return out
}

// extractOCRTolerantDigits wraps normalize.ExtractDigitsWithOCR. No
// detector and no test calls it.
func extractOCRTolerantDigits(text string) []normalize.Token {
	return normalize.ExtractDigitsWithOCR(text)
}
