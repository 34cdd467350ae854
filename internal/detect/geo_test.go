package detect

import (
	"testing"

	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

func TestAddressDetector(t *testing.T) {
	text := "Patient resides at 742 Evergreen Terrace Boulevard."
	d := newAddressDetector()
	spans, _ := d.Detect(text, policy.Default(), nil)
	if len(spans) != 1 {
		t.Fatalf("expected one address match, got %+v", spans)
	}
}

func TestZipcodeDetectorConfidenceByForm(t *testing.T) {
	d := newZipcodeDetector()
	plain, _ := d.Detect("Mail to 90210 please.", policy.Default(), nil)
	if len(plain) != 1 || plain[0].Confidence != confVeryLow {
		t.Fatalf("expected bare 5-digit zip at very-low confidence, got %+v", plain)
	}
	plus4, _ := d.Detect("Mail to 90210-1234 please.", policy.Default(), nil)
	if len(plus4) != 1 || plus4[0].Confidence != confMedium {
		t.Fatalf("expected ZIP+4 at medium confidence, got %+v", plus4)
	}
}

func TestGeoDetectorCityState(t *testing.T) {
	text := "Referred to a specialist in Springfield, IL for follow-up."
	d := newGeoDetector()
	spans, _ := d.Detect(text, policy.Default(), nil)
	var sawCity, sawState bool
	for _, s := range spans {
		if s.FilterType == span.FilterCity && s.Text == "Springfield" {
			sawCity = true
		}
		if s.FilterType == span.FilterState && s.Text == "IL" {
			sawState = true
		}
	}
	if !sawCity || !sawState {
		t.Fatalf("expected both CITY and STATE spans, got %+v", spans)
	}
}

func TestGeoDetectorRejectsNonStateAbbreviation(t *testing.T) {
	text := "Acronym XY, ZZ does not name a real place."
	d := newGeoDetector()
	spans, _ := d.Detect(text, policy.Default(), nil)
	if len(spans) != 0 {
		t.Fatalf("expected no match for a non-postal abbreviation, got %+v", spans)
	}
}
