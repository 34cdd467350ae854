// Package span defines the canonical PHI match record and the operations
// used to reconcile overlapping candidates into a single coherent set.
package span

// FilterType classifies the kind of PHI a Span represents.
type FilterType string

// Recognized PHI categories. Subtypes carry a vendor-private suffix
// (e.g. NAME_TITLED) used internally for disambiguation during overlap
// resolution; callers outside this module should treat any NAME_* value
// as NAME, DATE_* as DATE, and so on — see Base().
const (
	FilterNone       FilterType = ""
	FilterName       FilterType = "NAME"
	FilterNameTitled FilterType = "NAME_TITLED"
	FilterNameFamily FilterType = "NAME_FAMILY"
	FilterNameComma  FilterType = "NAME_COMMA"
	FilterDate       FilterType = "DATE"
	FilterAge        FilterType = "AGE"
	FilterPhone      FilterType = "PHONE"
	FilterFax        FilterType = "FAX"
	FilterEmail      FilterType = "EMAIL"
	FilterSSN        FilterType = "SSN"
	FilterMRN        FilterType = "MRN"
	FilterNPI        FilterType = "NPI"
	FilterDEA        FilterType = "DEA"
	FilterAddress    FilterType = "ADDRESS"
	FilterZipcode    FilterType = "ZIPCODE"
	FilterCity       FilterType = "CITY"
	FilterState      FilterType = "STATE"
	FilterIP         FilterType = "IP"
	FilterURL        FilterType = "URL"
	FilterAccount    FilterType = "ACCOUNT"
	FilterLicense    FilterType = "LICENSE"
	FilterVehicle    FilterType = "VEHICLE"
	FilterDevice     FilterType = "DEVICE"
	FilterHealthPlan FilterType = "HEALTH_PLAN"
	FilterBiometric  FilterType = "BIOMETRIC"
	FilterCreditCard FilterType = "CREDIT_CARD"
	FilterPassport   FilterType = "PASSPORT"
	FilterOther      FilterType = "OTHER"
)

// subtypeBase maps vendor-private disambiguation subtypes back to the
// public category a consumer of the engine API should see.
var subtypeBase = map[FilterType]FilterType{
	FilterNameTitled: FilterName,
	FilterNameFamily: FilterName,
	FilterNameComma:  FilterName,
}

// Base returns the public-facing category for a FilterType, collapsing
// vendor-private subtypes (used only for priority arbitration) into their
// parent category.
func (t FilterType) Base() FilterType {
	if base, ok := subtypeBase[t]; ok {
		return base
	}
	return t
}

// Token is the window of text surrounding a match, used by post-filter
// stages that need local lexical context.
type Token struct {
	Text  string
	Start int // code-point offset into the input
	End   int
}

// Span is the canonical PHI match record. Offsets are half-open code-point
// indices into the original input text. Spans are treated as immutable
// except for the fields explicitly documented as mutable (Confidence,
// Replacement) which the post-filter and apply stages may update in place.
type Span struct {
	Text           string
	CharacterStart int
	CharacterEnd   int
	FilterType     FilterType
	Confidence     float64
	Priority       int
	Context        string
	Window         []Token
	Replacement    string
	Pattern        string
	MatchSource    string

	// SnapToBoundary requests that the overlap resolver expand this span to
	// the nearest whitespace/punctuation boundary before it is finalized.
	SnapToBoundary bool
}

// Len returns the span's length in code points.
func (s Span) Len() int { return s.CharacterEnd - s.CharacterStart }

// Overlaps reports whether two half-open intervals intersect.
// Adjacent spans (a.End == b.Start) do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.CharacterEnd > o.CharacterStart && o.CharacterEnd > s.CharacterStart
}

// Contains reports whether s fully contains o (s is the larger interval).
func (s Span) Contains(o Span) bool {
	return s.CharacterStart <= o.CharacterStart && o.CharacterEnd <= s.CharacterEnd
}

// Valid reports whether the span satisfies the basic offset invariants
// from §3: 0 <= start < end <= limit, and text matches the slice.
func (s Span) Valid(input []rune) bool {
	if s.CharacterStart < 0 || s.CharacterStart >= s.CharacterEnd || s.CharacterEnd > len(input) {
		return false
	}
	return string(input[s.CharacterStart:s.CharacterEnd]) == s.Text
}

// Clone returns a deep copy of s, safe to mutate without aliasing the
// original's Window slice. Used by the debug trace so journey entries
// don't share backing arrays with live spans.
func (s Span) Clone() Span {
	c := s
	if s.Window != nil {
		c.Window = make([]Token, len(s.Window))
		copy(c.Window, s.Window)
	}
	return c
}

// Key is a stable sort/comparison key for deterministic serialization.
type Key struct {
	Start       int
	End         int
	FilterType  FilterType
	MatchSource string
}

// Key returns the span's stable sort key.
func (s Span) Key() Key {
	return Key{Start: s.CharacterStart, End: s.CharacterEnd, FilterType: s.FilterType, MatchSource: s.MatchSource}
}
