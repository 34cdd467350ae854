package detect

import (
	"regexp"
	"strings"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// addressRe is the teacher's street-address pattern verbatim: a leading
// number plus a recognized street-type suffix keyword.
var addressRe = regexp.MustCompile(`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct)\b`)

type addressDetector struct{}

func newAddressDetector() *addressDetector { return &addressDetector{} }

func (d *addressDetector) Name() string { return "address" }
func (d *addressDetector) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterAddress}
}

func (d *addressDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(addressRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterAddress, confHigh, d.Name(), addressRe.String()), true
	}), nil
}

// zipRe is the teacher's ZIP pattern verbatim, carrying its original low
// confidence ("5 digits match countless non-PII numbers" per the teacher's
// comment); the post-filter pipeline's numeric-context stage does the
// heavy lifting here, not the regex.
var zipRe = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

type zipcodeDetector struct{}

func newZipcodeDetector() *zipcodeDetector { return &zipcodeDetector{} }

func (d *zipcodeDetector) Name() string { return "zipcode" }
func (d *zipcodeDetector) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterZipcode}
}

func (d *zipcodeDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(zipRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		conf := confVeryLow
		if strings.Contains(text[m[0]:m[1]], "-") {
			conf = confMedium
		}
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterZipcode, conf, d.Name(), zipRe.String()), true
	}), nil
}

// usStates lists two-letter postal abbreviations used to gate CITY, STATE
// matches by a trailing ", XX" pattern, since bare city names have no
// structural marker of their own.
var usStates = map[string]bool{}

func init() {
	for _, s := range strings.Fields(`AL AK AZ AR CA CO CT DE FL GA HI ID IL IN IA KS KY LA ME MD MA MI MN MS MO MT NE NV NH NJ NM NY NC ND OH OK OR PA RI SC SD TN TX UT VT VA WA WV WI WY DC`) {
		usStates[s] = true
	}
}

var cityStateRe = regexp.MustCompile(`\b([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)?),\s([A-Z]{2})\b`)

type geoDetector struct{}

func newGeoDetector() *geoDetector { return &geoDetector{} }

func (d *geoDetector) Name() string { return "geo" }
func (d *geoDetector) SupportedTypes() []span.FilterType {
	return []span.FilterType{span.FilterCity, span.FilterState}
}

func (d *geoDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	var out []span.Span
	for _, m := range cityStateRe.FindAllStringSubmatchIndex(text, -1) {
		state := text[m[4]:m[5]]
		if !usStates[state] {
			continue
		}
		runes := []rune(text)
		cityStart, cityEnd := byteToRuneOffsets(text, m[2], m[3])
		out = append(out, newSpan(runes, text[m[2]:m[3]], cityStart, cityEnd, span.FilterCity, confMedium, d.Name(), cityStateRe.String()))
		stStart, stEnd := byteToRuneOffsets(text, m[4], m[5])
		out = append(out, newSpan(runes, state, stStart, stEnd, span.FilterState, confHigh, d.Name(), cityStateRe.String()))
	}
	return out, nil
}
