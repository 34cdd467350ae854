package detect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/normalize"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// ssnDetector recognizes Social Security Numbers using the structural rule
// from §4.3 (XXX-XX-XXXX or bare 9 digits; area not all zeros, not 666, not
// in the 900-999 range; group and serial not all zeros), rather than the
// teacher's looser `\d{3}-?\d{2}-?\d{4}|\d{9}` pattern — SSA has never
// issued a number violating this rule, so it is a cheap, precise filter.
type ssnDetector struct{ re *regexp.Regexp }

func newSSNDetector() *ssnDetector {
	return &ssnDetector{re: regexp.MustCompile(`\b(\d{3}-\d{2}-\d{4}|\d{9})\b`)}
}

func (d *ssnDetector) Name() string                      { return "ssn" }
func (d *ssnDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterSSN} }

func (d *ssnDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(d.re, text, func(runes []rune, m []int) (span.Span, bool) {
		matched := text[m[0]:m[1]]
		conf := confHigh
		if !strings.Contains(matched, "-") {
			conf = confMedium
		}
		digits := strings.ReplaceAll(matched, "-", "")
		if !isValidSSNStructure(digits) {
			return span.Span{}, false
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, matched, start, end, span.FilterSSN, conf, d.Name(), d.re.String()), true
	}), nil
}

// isValidSSNStructure applies the area/group/serial rule: area not 000,
// not 666, not 900-999; group not 00; serial not 0000.
func isValidSSNStructure(digits string) bool {
	if len(digits) != 9 {
		return false
	}
	area := digits[0:3]
	group := digits[3:5]
	serial := digits[5:9]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" {
		return false
	}
	if serial == "0000" {
		return false
	}
	return true
}

// mrnDetector recognizes Medical Record Numbers, which have no universal
// structural format, so detection is keyword-gated (a preceding "mrn" or
// "medical record" label) rather than pattern-only.
type mrnDetector struct{ re *regexp.Regexp }

func newMRNDetector() *mrnDetector {
	return &mrnDetector{re: regexp.MustCompile(`(?i)\b(?:mrn|medical record(?: number)?)[\s:#]*([A-Z0-9]{5,12})\b`)}
}

func (d *mrnDetector) Name() string                      { return "mrn" }
func (d *mrnDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterMRN} }

func (d *mrnDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(d.re, text, func(runes []rune, m []int) (span.Span, bool) {
		// m[2:4] is the captured identifier, not the whole keyword+id match.
		start, end := byteToRuneOffsets(text, m[2], m[3])
		matched := text[m[2]:m[3]]
		return newSpan(runes, matched, start, end, span.FilterMRN, confHigh, d.Name(), d.re.String()), true
	}), nil
}

// npiDetector recognizes National Provider Identifiers: 10-digit numbers
// validated with the NPI check-digit algorithm (prefix "80840" then Luhn).
type npiDetector struct{ re *regexp.Regexp }

func newNPIDetector() *npiDetector {
	return &npiDetector{re: regexp.MustCompile(`\b(\d{10})\b`)}
}

func (d *npiDetector) Name() string                      { return "npi" }
func (d *npiDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterNPI} }

func (d *npiDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(d.re, text, func(runes []rune, m []int) (span.Span, bool) {
		matched := text[m[0]:m[1]]
		if !normalize.PassesLuhn("80840" + matched) {
			return span.Span{}, false
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, matched, start, end, span.FilterNPI, confVeryHigh, d.Name(), d.re.String()), true
	}), nil
}

// deaDetector recognizes DEA registration numbers: two letters followed by
// seven digits, validated with the DEA check-digit algorithm.
type deaDetector struct{ re *regexp.Regexp }

func newDEADetector() *deaDetector {
	return &deaDetector{re: regexp.MustCompile(`\b([A-Z]{2}\d{7})\b`)}
}

func (d *deaDetector) Name() string                      { return "dea" }
func (d *deaDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterDEA} }

func (d *deaDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(d.re, text, func(runes []rune, m []int) (span.Span, bool) {
		matched := text[m[0]:m[1]]
		if !validDEACheckDigit(matched) {
			return span.Span{}, false
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, matched, start, end, span.FilterDEA, confVeryHigh, d.Name(), d.re.String()), true
	}), nil
}

func validDEACheckDigit(code string) bool {
	if len(code) != 9 {
		return false
	}
	digits := code[2:]
	sumOdd := 0
	sumEven := 0
	for i, c := range digits[:6] {
		n, err := strconv.Atoi(string(c))
		if err != nil {
			return false
		}
		if i%2 == 0 {
			sumOdd += n
		} else {
			sumEven += n
		}
	}
	check := (sumOdd + 2*sumEven) % 10
	want, err := strconv.Atoi(string(digits[6]))
	if err != nil {
		return false
	}
	return check == want
}

// creditCardDetector recognizes payment card numbers: a 13-19 digit block
// (grouped by spaces/hyphens in 4s, or bare) gated by the Luhn checksum.
// Grounded on the teacher's credit-card pattern, with the Luhn validator
// from internal/normalize added to cut the false-positive rate the
// teacher's comment calls out ("16-digit block pattern").
type creditCardDetector struct{ re *regexp.Regexp }

func newCreditCardDetector() *creditCardDetector {
	return &creditCardDetector{re: regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)}
}

func (d *creditCardDetector) Name() string { return "credit_card" }
func (d *creditCardDetector) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterCreditCard}
}

func (d *creditCardDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(d.re, text, func(runes []rune, m []int) (span.Span, bool) {
		matched := text[m[0]:m[1]]
		digits := stripSeparators(matched)
		if len(digits) < 13 || len(digits) > 19 || !normalize.PassesLuhn(digits) {
			return span.Span{}, false
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, matched, start, end, span.FilterCreditCard, confVeryHigh, d.Name(), d.re.String()), true
	}), nil
}

func stripSeparators(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
