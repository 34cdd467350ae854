package detect

import (
	"testing"

	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

func TestDateDetectorNumeric(t *testing.T) {
	text := "DOB: 01/15/1970, admitted 2024-03-02."
	d := newDateDetector()
	spans, err := d.Detect(text, policy.Default(), nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	count := 0
	for _, s := range spans {
		if s.FilterType == span.FilterDate {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 numeric dates, got %d: %+v", count, spans)
	}
}

func TestDateDetectorVerbal(t *testing.T) {
	text := "Seen on January 15, 2024 for follow-up."
	d := newDateDetector()
	spans, _ := d.Detect(text, policy.Default(), nil)
	found := false
	for _, s := range spans {
		if s.Text == "January 15, 2024" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a verbal date match, got %+v", spans)
	}
}

func TestDateDetectorAgeUnder90(t *testing.T) {
	text := "Patient is age 45 and otherwise healthy."
	d := newDateDetector()
	spans, _ := d.Detect(text, policy.Default(), nil)
	for _, s := range spans {
		if s.FilterType == span.FilterAge && s.Pattern == "age_90_aggregate" {
			t.Fatalf("did not expect age 45 to be flagged for 90+ aggregation: %+v", s)
		}
	}
}

func TestDateDetectorAgeOver90Aggregates(t *testing.T) {
	text := "The patient, aged 94, was admitted for observation."
	d := newDateDetector()
	spans, _ := d.Detect(text, policy.Default(), nil)
	found := false
	for _, s := range spans {
		if s.FilterType == span.FilterAge && s.Pattern == "age_90_aggregate" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected age 94 to be flagged for 90+ aggregation, got %+v", spans)
	}
}

func TestDateDetectorYearsOldForm(t *testing.T) {
	text := "A 62-year-old male presented with fatigue."
	d := newDateDetector()
	spans, _ := d.Detect(text, policy.Default(), nil)
	found := false
	for _, s := range spans {
		if s.FilterType == span.FilterAge {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected '62-year-old' to be recognized as AGE, got %+v", spans)
	}
}
