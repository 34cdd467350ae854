// Package policy defines the engine's per-run configuration surface (§3):
// per-category enable/threshold overrides, the global confidence floor,
// replacement style, date-shift, and allow/deny lists. It is loaded and
// validated independently of internal/config, which covers process-level
// settings, because it carries its own DSL and error taxonomy (§7
// PolicyError).
package policy

import (
	"fmt"

	"github.com/claude-health/deident-engine/internal/engineerr"
	"github.com/claude-health/deident-engine/internal/span"
)

// ReplacementStyle selects how a redacted span is rendered in output.
type ReplacementStyle string

const (
	StyleBracketedSequential ReplacementStyle = "bracketed_sequential"
	StyleFixedToken          ReplacementStyle = "fixed_token"
	StyleTypedToken          ReplacementStyle = "typed_token"
	StyleCustom              ReplacementStyle = "custom"
)

// FilterPolicy is the per-category override: whether the category
// participates at all, and the confidence floor below which its spans are
// dropped before the global threshold is even consulted.
type FilterPolicy struct {
	Enabled   bool
	Threshold float64
}

// DateShift is a deterministic per-patient offset applied to recognized
// dates. Seed is caller-supplied (e.g. a patient identifier hash) so the
// same patient always shifts by the same amount within one Policy.
type DateShift struct {
	Enabled    bool
	Seed       string
	MaxDaysAbs int
}

// Policy is the complete, immutable-once-built configuration object
// consulted by every stage of one engine run. Callers build it with
// Default() or Parse() and must not mutate it after passing it to the
// engine (§5: "Policy: immutable per document").
type Policy struct {
	Filters          map[span.FilterType]FilterPolicy
	GlobalThreshold  float64
	ReplacementStyle ReplacementStyle
	FixedToken       string
	CustomTokens     map[span.FilterType]string
	DateShift        DateShift
	Allowlist        map[string]bool
	Denylist         map[string]bool
}

// defaultThresholds mirror spec §3's filter priority ordering in spirit: all
// categories start enabled at a moderate bar, tightened per-category by
// detector authors who know their own false-positive rates.
var defaultThresholds = map[span.FilterType]float64{
	span.FilterSSN:        0.6,
	span.FilterName:       0.5,
	span.FilterDate:       0.5,
	span.FilterPhone:      0.6,
	span.FilterEmail:      0.7,
	span.FilterAddress:    0.5,
	span.FilterZipcode:    0.6,
	span.FilterAge:        0.6,
	span.FilterIP:         0.7,
	span.FilterURL:        0.7,
	span.FilterFax:        0.6,
	span.FilterMRN:        0.6,
	span.FilterAccount:    0.5,
	span.FilterLicense:    0.5,
	span.FilterVehicle:    0.5,
	span.FilterDevice:     0.5,
	span.FilterHealthPlan: 0.5,
	span.FilterBiometric:  0.5,
	span.FilterCreditCard: 0.6,
	span.FilterPassport:   0.6,
	span.FilterOther:      0.5,
}

// Default returns the engine's baseline policy: every Safe Harbor category
// enabled at its default threshold, bracketed-sequential replacement, no
// date shift, empty allow/deny lists.
func Default() *Policy {
	filters := make(map[span.FilterType]FilterPolicy, len(defaultThresholds))
	for ft, th := range defaultThresholds {
		filters[ft] = FilterPolicy{Enabled: true, Threshold: th}
	}
	return &Policy{
		Filters:          filters,
		GlobalThreshold:  0.5,
		ReplacementStyle: StyleBracketedSequential,
		FixedToken:       "***",
		CustomTokens:     map[span.FilterType]string{},
		Allowlist:        map[string]bool{},
		Denylist:         map[string]bool{},
	}
}

// Clone returns a deep copy so callers can derive a variant policy (e.g.
// the DSL's extends) without mutating a shared base.
func (p *Policy) Clone() *Policy {
	clone := *p
	clone.Filters = make(map[span.FilterType]FilterPolicy, len(p.Filters))
	for k, v := range p.Filters {
		clone.Filters[k] = v
	}
	clone.CustomTokens = make(map[span.FilterType]string, len(p.CustomTokens))
	for k, v := range p.CustomTokens {
		clone.CustomTokens[k] = v
	}
	clone.Allowlist = make(map[string]bool, len(p.Allowlist))
	for k := range p.Allowlist {
		clone.Allowlist[k] = true
	}
	clone.Denylist = make(map[string]bool, len(p.Denylist))
	for k := range p.Denylist {
		clone.Denylist[k] = true
	}
	return &clone
}

// FilterFor returns the effective FilterPolicy for ft, collapsing vendor
// subtypes to their public base category and falling back to enabled/
// global-threshold if the category has no explicit entry.
func (p *Policy) FilterFor(ft span.FilterType) FilterPolicy {
	if fp, ok := p.Filters[ft]; ok {
		return fp
	}
	if fp, ok := p.Filters[ft.Base()]; ok {
		return fp
	}
	return FilterPolicy{Enabled: true, Threshold: p.GlobalThreshold}
}

// Validate checks the policy for internally inconsistent configuration,
// returning an *engineerr.Error with KindPolicy on failure (§7).
func (p *Policy) Validate() error {
	if p.GlobalThreshold < 0 || p.GlobalThreshold > 1 {
		return engineerr.New(engineerr.KindPolicy, fmt.Sprintf("global_threshold %v out of [0,1]", p.GlobalThreshold), nil)
	}
	for ft, fp := range p.Filters {
		if fp.Threshold < 0 || fp.Threshold > 1 {
			return engineerr.New(engineerr.KindPolicy, fmt.Sprintf("filter %s threshold %v out of [0,1]", ft, fp.Threshold), nil)
		}
	}
	switch p.ReplacementStyle {
	case StyleBracketedSequential, StyleFixedToken, StyleTypedToken, StyleCustom:
	default:
		return engineerr.New(engineerr.KindPolicy, fmt.Sprintf("unknown replacement_style %q", p.ReplacementStyle), nil)
	}
	if p.ReplacementStyle == StyleCustom {
		for ft := range p.Filters {
			if p.Filters[ft].Enabled {
				if _, ok := p.CustomTokens[ft]; !ok {
					return engineerr.New(engineerr.KindPolicy, fmt.Sprintf("custom replacement_style missing token for enabled filter %s", ft), nil)
				}
			}
		}
	}
	if p.DateShift.Enabled && p.DateShift.MaxDaysAbs <= 0 {
		return engineerr.New(engineerr.KindPolicy, "date_shift enabled with non-positive max_days_abs", nil)
	}
	return nil
}
