package detect

import "github.com/claude-health/deident-engine/internal/span"

// priority mirrors §3's worked example (SSN=200, NAME=180, PHONE=150) and
// extends it to every category on the same scale: higher means "prefer
// this span when spans overlap" (consumed by span.DropOverlappingSpans).
// NAME subtypes use the values fixed in SPEC_FULL.md §5 (an explicit open
// question the spec left for the implementation to decide).
var priority = map[span.FilterType]int{
	span.FilterSSN:        200,
	span.FilterCreditCard: 195,
	span.FilterNameTitled: 190,
	span.FilterName:       180,
	span.FilterNameFamily: 160,
	span.FilterNameComma:  175,
	span.FilterMRN:        175,
	span.FilterNPI:        170,
	span.FilterDEA:        170,
	span.FilterPassport:   170,
	span.FilterDate:       165,
	span.FilterHealthPlan: 160,
	span.FilterAccount:    158,
	span.FilterLicense:    155,
	span.FilterVehicle:    155,
	span.FilterDevice:     152,
	span.FilterPhone:      150,
	span.FilterFax:        148,
	span.FilterBiometric:  145,
	span.FilterEmail:      140,
	span.FilterAddress:    130,
	span.FilterZipcode:    120,
	span.FilterCity:       110,
	span.FilterState:      105,
	span.FilterAge:        100,
	span.FilterIP:         95,
	span.FilterURL:        90,
	span.FilterOther:      50,
}

// confidence are base scores assigned per Presidio/CHPDA-style convention
// (teacher's compilePatterns comment): 0.90+ highly specific structural
// markers, 0.70-0.89 moderately specific, below 0.70 broad with real
// false-positive risk. Per-detector files may compute a finer score from
// this baseline (e.g. a checksum pass raising it, or missing context
// lowering it).
const (
	confVeryHigh = 0.95
	confHigh     = 0.85
	confMedium   = 0.70
	confLow      = 0.55
	confVeryLow  = 0.40
)

func priorityOf(ft span.FilterType) int {
	if p, ok := priority[ft]; ok {
		return p
	}
	return 50
}
