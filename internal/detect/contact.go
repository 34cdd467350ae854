package detect

import (
	"regexp"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// emailRe is the teacher's email pattern verbatim: unambiguous structural
// markers (@, domain, TLD) give it a high base confidence.
var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

type emailDetector struct{}

func newEmailDetector() *emailDetector { return &emailDetector{} }

func (d *emailDetector) Name() string                      { return "email" }
func (d *emailDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterEmail} }

func (d *emailDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(emailRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterEmail, confVeryHigh, d.Name(), emailRe.String()), true
	}), nil
}

// phoneFaxRe is the teacher's broad phone pattern. It is intentionally
// permissive (the teacher's comment: "matches many numeric sequences that
// are not phones"), so both the phone and fax detectors rely on the
// post-filter pipeline, not the regex, to cut false positives; a preceding
// "fax" label reclassifies a match from PHONE to FAX.
var phoneFaxRe = regexp.MustCompile(`(\+?1?[\-.\s]?)?\(?([0-9]{3})\)?[\-.\s]?([0-9]{3})[\-.\s]?([0-9]{4})`)

type phoneDetector struct{}

func newPhoneDetector() *phoneDetector { return &phoneDetector{} }

func (d *phoneDetector) Name() string                      { return "phone" }
func (d *phoneDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterPhone} }

func (d *phoneDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(phoneFaxRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		if wordBefore(runes, start) == "fax" {
			return span.Span{}, false
		}
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterPhone, confLow, d.Name(), phoneFaxRe.String()), true
	}), nil
}

type faxDetector struct{}

func newFaxDetector() *faxDetector { return &faxDetector{} }

func (d *faxDetector) Name() string                      { return "fax" }
func (d *faxDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterFax} }

func (d *faxDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(phoneFaxRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		if wordBefore(runes, start) != "fax" {
			return span.Span{}, false
		}
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterFax, confHigh, d.Name(), phoneFaxRe.String()), true
	}), nil
}

// urlRe recognizes http(s) URLs, a structural marker the post-filter
// pipeline does not need to second-guess.
var urlRe = regexp.MustCompile(`\bhttps?://[^\s<>\]\)]+`)

type urlDetector struct{}

func newURLDetector() *urlDetector { return &urlDetector{} }

func (d *urlDetector) Name() string                      { return "url" }
func (d *urlDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterURL} }

func (d *urlDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(urlRe, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterURL, confVeryHigh, d.Name(), urlRe.String()), true
	}), nil
}

// ipv4Re and ipv6Re are the teacher's patterns verbatim. ipv6Re is switched
// to leftmost-longest matching in init below, so the most complete address
// wins (e.g. all of "2001:db8::1", not just "2001:db8::").
var (
	ipv4Re = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)
	ipv6Re = regexp.MustCompile(`(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}` +
		`|(?:[0-9a-fA-F]{1,4}:){1,7}:` +
		`|(?:[0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}` +
		`|(?:[0-9a-fA-F]{1,4}:){1,5}(?::[0-9a-fA-F]{1,4}){1,2}` +
		`|(?:[0-9a-fA-F]{1,4}:){1,4}(?::[0-9a-fA-F]{1,4}){1,3}` +
		`|(?:[0-9a-fA-F]{1,4}:){1,3}(?::[0-9a-fA-F]{1,4}){1,4}` +
		`|(?:[0-9a-fA-F]{1,4}:){1,2}(?::[0-9a-fA-F]{1,4}){1,5}` +
		`|[0-9a-fA-F]{1,4}:(?::[0-9a-fA-F]{1,4}){1,6}` +
		`|:(?::[0-9a-fA-F]{1,4}){1,7}` +
		`|::`)
)

func init() {
	ipv6Re.Longest()
}

type ipDetector struct{}

func newIPDetector() *ipDetector { return &ipDetector{} }

func (d *ipDetector) Name() string                      { return "ip" }
func (d *ipDetector) SupportedTypes() []span.FilterType { return []span.FilterType{span.FilterIP} }

func (d *ipDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	out := findAllSpans(ipv6Re, text, func(runes []rune, m []int) (span.Span, bool) {
		if m[1]-m[0] < 3 { // reject the bare "::" degenerate match on its own
			return span.Span{}, false
		}
		start, end := byteToRuneOffsets(text, m[0], m[1])
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterIP, confHigh, d.Name(), ipv6Re.String()), true
	})
	out = append(out, findAllSpans(ipv4Re, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[0], m[1])
		if !looksLikeIPv4(text[m[0]:m[1]]) {
			return span.Span{}, false
		}
		return newSpan(runes, text[m[0]:m[1]], start, end, span.FilterIP, confMedium, d.Name(), ipv4Re.String()), true
	})...)
	return out, nil
}

// looksLikeIPv4 rejects quads with an octet over 255 (version strings like
// "10.20.300.4" match the regex but are not valid addresses).
func looksLikeIPv4(s string) bool {
	octet := 0
	digits := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			if digits == 0 || octet > 255 {
				return false
			}
			octet, digits = 0, 0
			continue
		}
		octet = octet*10 + int(s[i]-'0')
		digits++
		if digits > 3 {
			return false
		}
	}
	return true
}
