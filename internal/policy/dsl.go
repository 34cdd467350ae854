package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/claude-health/deident-engine/internal/engineerr"
	"github.com/claude-health/deident-engine/internal/span"
)

// Registry resolves a named base policy for the DSL's `extends` clause.
// The engine registers its built-in policies (at minimum "default") here
// before parsing any DSL text that references them.
type Registry struct {
	named map[string]*Policy
}

// NewRegistry returns a Registry seeded with the built-in "default" policy.
func NewRegistry() *Registry {
	return &Registry{named: map[string]*Policy{"default": Default()}}
}

// Register adds or replaces a named policy, so a later DSL document can
// `extends` it.
func (r *Registry) Register(name string, p *Policy) {
	r.named[name] = p
}

var displayNames = map[string]span.FilterType{
	"names":        span.FilterName,
	"name":         span.FilterName,
	"dates":        span.FilterDate,
	"date":         span.FilterDate,
	"ages":         span.FilterAge,
	"age":          span.FilterAge,
	"phones":       span.FilterPhone,
	"phone":        span.FilterPhone,
	"faxes":        span.FilterFax,
	"fax":          span.FilterFax,
	"emails":       span.FilterEmail,
	"email":        span.FilterEmail,
	"ssns":         span.FilterSSN,
	"ssn":          span.FilterSSN,
	"mrns":         span.FilterMRN,
	"mrn":          span.FilterMRN,
	"addresses":    span.FilterAddress,
	"address":      span.FilterAddress,
	"zipcodes":     span.FilterZipcode,
	"zipcode":      span.FilterZipcode,
	"ips":          span.FilterIP,
	"ip":           span.FilterIP,
	"urls":         span.FilterURL,
	"url":          span.FilterURL,
	"accounts":     span.FilterAccount,
	"account":      span.FilterAccount,
	"licenses":     span.FilterLicense,
	"license":      span.FilterLicense,
	"vehicles":     span.FilterVehicle,
	"vehicle":      span.FilterVehicle,
	"devices":      span.FilterDevice,
	"device":       span.FilterDevice,
	"healthplans":  span.FilterHealthPlan,
	"biometrics":   span.FilterBiometric,
	"biometric":    span.FilterBiometric,
	"creditcards":  span.FilterCreditCard,
	"passports":    span.FilterPassport,
	"passport":     span.FilterPassport,
}

// Parse compiles a textual policy DSL document into a Policy, resolving
// `extends` against reg. Grammar (one directive per line, blank lines and
// `#` comments ignored):
//
//	extends <name>
//	redact <category>
//	keep <category>
//	threshold <category> <0..1>
//	threshold <0..1>
//	replacement_style <style>
//	date_shift <seed> <max_days_abs>
//	allow "<literal>"
//	deny "<literal>"
//
// Grounded on the teacher's internal/config layering (defaults -> file ->
// env, later directives win) generalized to inheritance plus text directives
// instead of process-env keys.
func Parse(reg *Registry, doc string) (*Policy, error) {
	var p *Policy
	lines := strings.Split(doc, "\n")

	extendsSeen := false
	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		directive := strings.ToLower(fields[0])

		if directive == "extends" {
			if extendsSeen {
				return nil, dslErr(lineNo, "duplicate 'extends' directive")
			}
			if p != nil {
				return nil, dslErr(lineNo, "'extends' must be the first directive")
			}
			if len(fields) != 2 {
				return nil, dslErr(lineNo, "'extends' requires exactly one name")
			}
			base, ok := reg.named[fields[1]]
			if !ok {
				return nil, dslErr(lineNo, fmt.Sprintf("unknown base policy %q", fields[1]))
			}
			p = base.Clone()
			extendsSeen = true
			continue
		}
		if p == nil {
			p = Default()
		}

		switch directive {
		case "redact", "keep":
			if len(fields) != 2 {
				return nil, dslErr(lineNo, directive+" requires exactly one category")
			}
			ft, ok := displayNames[strings.ToLower(fields[1])]
			if !ok {
				return nil, dslErr(lineNo, fmt.Sprintf("unknown category %q", fields[1]))
			}
			fp := p.Filters[ft]
			fp.Enabled = directive == "redact"
			if fp.Threshold == 0 {
				fp.Threshold = p.GlobalThreshold
			}
			p.Filters[ft] = fp
		case "threshold":
			switch len(fields) {
			case 2:
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, dslErr(lineNo, "threshold value must be a number")
				}
				p.GlobalThreshold = v
			case 3:
				ft, ok := displayNames[strings.ToLower(fields[1])]
				if !ok {
					return nil, dslErr(lineNo, fmt.Sprintf("unknown category %q", fields[1]))
				}
				v, err := strconv.ParseFloat(fields[2], 64)
				if err != nil {
					return nil, dslErr(lineNo, "threshold value must be a number")
				}
				fp := p.Filters[ft]
				fp.Threshold = v
				p.Filters[ft] = fp
			default:
				return nil, dslErr(lineNo, "threshold requires '<value>' or '<category> <value>'")
			}
		case "replacement_style":
			if len(fields) != 2 {
				return nil, dslErr(lineNo, "replacement_style requires exactly one value")
			}
			p.ReplacementStyle = ReplacementStyle(fields[1])
		case "date_shift":
			if len(fields) != 3 {
				return nil, dslErr(lineNo, "date_shift requires '<seed> <max_days_abs>'")
			}
			maxDays, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, dslErr(lineNo, "date_shift max_days_abs must be an integer")
			}
			p.DateShift = DateShift{Enabled: true, Seed: fields[1], MaxDaysAbs: maxDays}
		case "allow", "deny":
			literal, ok := quotedArg(line)
			if !ok {
				return nil, dslErr(lineNo, directive+` requires a quoted literal, e.g. `+directive+` "Jane Doe"`)
			}
			if directive == "allow" {
				p.Allowlist[literal] = true
			} else {
				p.Denylist[literal] = true
			}
		default:
			return nil, dslErr(lineNo, fmt.Sprintf("unknown directive %q", fields[0]))
		}
	}

	if p == nil {
		p = Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func quotedArg(line string) (string, bool) {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return line[start+1 : start+1+end], true
}

func dslErr(lineNo int, msg string) error {
	return engineerr.New(engineerr.KindPolicy, fmt.Sprintf("policy DSL line %d: %s", lineNo+1, msg), nil)
}
