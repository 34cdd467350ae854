package detect

import (
	"testing"

	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

func TestDenylistDetectorMatchesLiteralOccurrences(t *testing.T) {
	text := "The clinic nickname Sparrow appeared twice: Sparrow and Sparrow."
	pol := policy.Default()
	pol.Denylist["Sparrow"] = true
	d := newDenylistDetector()
	spans, err := d.Detect(text, pol, nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(spans) != 3 {
		t.Fatalf("expected 3 denylist matches, got %d: %+v", len(spans), spans)
	}
	for _, s := range spans {
		if s.Text != "Sparrow" || s.FilterType != span.FilterOther {
			t.Fatalf("unexpected span %+v", s)
		}
	}
}

func TestDenylistDetectorEmptyDenylistYieldsNoSpans(t *testing.T) {
	text := "Nothing here should match anything."
	d := newDenylistDetector()
	spans, err := d.Detect(text, policy.Default(), nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(spans) != 0 {
		t.Fatalf("expected no spans with an empty denylist, got %+v", spans)
	}
}
