package detect

import (
	"regexp"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// labeledIDDetector is a small generic detector for Safe Harbor categories
// that have no universal structural format and so are only reliably found
// keyword-gated, the same shape as mrnDetector: "<label>[:#]? <token>".
// Each of the remaining categories below is one instance of this with its
// own label pattern and filter type, instead of near-identical structs.
type labeledIDDetector struct {
	name string
	ft   span.FilterType
	re   *regexp.Regexp
	conf float64
}

func newLabeledIDDetector(name string, ft span.FilterType, labelAlternation string, conf float64) *labeledIDDetector {
	re := regexp.MustCompile(`(?i)\b(?:` + labelAlternation + `)[\s:#]*([A-Za-z0-9\-]{3,20})\b`)
	return &labeledIDDetector{name: name, ft: ft, re: re, conf: conf}
}

func (d *labeledIDDetector) Name() string                      { return d.name }
func (d *labeledIDDetector) SupportedTypes() []span.FilterType { return []span.FilterType{d.ft} }

func (d *labeledIDDetector) Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error) {
	return findAllSpans(d.re, text, func(runes []rune, m []int) (span.Span, bool) {
		start, end := byteToRuneOffsets(text, m[2], m[3])
		matched := text[m[2]:m[3]]
		return newSpan(runes, matched, start, end, d.ft, d.conf, d.name, d.re.String()), true
	}), nil
}

func newAccountDetector() *labeledIDDetector {
	return newLabeledIDDetector("account", span.FilterAccount, `account(?: number| no\.?| #)?|acct(?: no\.?| #)?`, confHigh)
}

func newLicenseDetector() *labeledIDDetector {
	return newLabeledIDDetector("license", span.FilterLicense, `license(?: number| no\.?)?|driver'?s? license|dl#?`, confHigh)
}

func newVehicleDetector() *labeledIDDetector {
	return newLabeledIDDetector("vehicle", span.FilterVehicle, `vin|license plate|plate #?`, confHigh)
}

func newDeviceDetector() *labeledIDDetector {
	return newLabeledIDDetector("device", span.FilterDevice, `device(?: id| serial)?|serial(?: number| no\.?)?`, confHigh)
}

func newHealthPlanDetector() *labeledIDDetector {
	return newLabeledIDDetector("health_plan", span.FilterHealthPlan, `health plan(?: id| number)?|member id|policy(?: number| no\.?)?|group #?`, confHigh)
}

func newBiometricDetector() *labeledIDDetector {
	return newLabeledIDDetector("biometric", span.FilterBiometric, `fingerprint id|retina scan id|voiceprint id|biometric id`, confHigh)
}

func newPassportDetector() *labeledIDDetector {
	return newLabeledIDDetector("passport", span.FilterPassport, `passport(?: number| no\.?)?`, confHigh)
}
