// Date-shift support for the replacement-apply stage (§4.9 point "if
// policy.date_shift is set and the span is a DATE that can be parsed, the
// placeholder is the shifted date"). The shift itself is one deterministic
// per-seed offset (spec.md §3: "deterministic per-patient offset"), not a
// per-value hash, so every date in a document shifts by the same number of
// days and date arithmetic between two dates in the same note is preserved.
package engine

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/claude-health/deident-engine/internal/policy"
)

// dateLayouts are the formats the DATE detector recognizes (internal/detect's
// numericDateRe and verbalDateRe), tried in order until one parses.
var dateLayouts = []string{
	"01/02/2006",
	"01-02-2006",
	"01.02.2006",
	"1/2/2006",
	"1-2-2006",
	"01/02/06",
	"1/2/06",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
}

// shiftDays computes the deterministic per-seed offset in
// [-shift.MaxDaysAbs, shift.MaxDaysAbs], stable for the lifetime of one
// seed so every date in a document (and across a resumed stream) shifts
// identically.
func shiftDays(shift policy.DateShift) int {
	if shift.MaxDaysAbs <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(shift.Seed))
	span := 2*shift.MaxDaysAbs + 1
	return int(h.Sum32()%uint32(span)) - shift.MaxDaysAbs
}

// ShiftDate parses original against the DATE detector's known layouts and,
// if successful, returns it re-rendered in the same layout after applying
// the seed's deterministic day offset. ok is false if original could not be
// parsed as a date, in which case the caller falls through to the ordinary
// placeholder (§4.9: "that can be parsed").
func ShiftDate(original string, shift policy.DateShift) (string, bool) {
	cleaned := strings.TrimRight(original, ".,;:")
	days := shiftDays(shift)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		shifted := t.AddDate(0, 0, days)
		return shifted.Format(layout), true
	}
	return "", false
}
