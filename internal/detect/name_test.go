package detect

import (
	"testing"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/dictionary"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

func testContext(t *testing.T, input string) *dctx.DocumentContext {
	t.Helper()
	snap, err := dictionary.Load("")
	if err != nil {
		t.Fatalf("dictionary.Load: %v", err)
	}
	return dctx.New(input, input, snap, false, false)
}

func TestNameDetectorTitled(t *testing.T) {
	text := "Patient was seen by Dr. Sarah Johnson yesterday."
	d := newNameDetector()
	ctx := testContext(t, text)
	spans, err := d.Detect(text, policy.Default(), ctx)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	found := false
	for _, s := range spans {
		if s.FilterType == span.FilterNameTitled && s.Text == "Dr. Sarah Johnson" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NAME_TITLED span for 'Dr. Sarah Johnson', got %+v", spans)
	}
}

func TestNameDetectorPlainRequiresDictionaryHit(t *testing.T) {
	text := "Routine Followup Visit scheduled for next week."
	d := newNameDetector()
	ctx := testContext(t, text)
	spans, _ := d.Detect(text, policy.Default(), ctx)
	for _, s := range spans {
		if s.Text == "Routine Followup" || s.Text == "Followup Visit" {
			t.Fatalf("expected non-name capitalized phrase to be rejected, got %+v", s)
		}
	}
}

func TestNameDetectorCommaOrdered(t *testing.T) {
	text := "Patient: Smith, John presented with chest pain."
	d := newNameDetector()
	ctx := testContext(t, text)
	spans, _ := d.Detect(text, policy.Default(), ctx)
	found := false
	for _, s := range spans {
		if s.FilterType == span.FilterNameComma {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NAME_COMMA span, got %+v", spans)
	}
}

func TestNameCoordinatorFamilyRelation(t *testing.T) {
	text := "The patient's mother Maria Garcia reports no allergies."
	d := newNameCoordinator()
	ctx := testContext(t, text)
	spans, _ := d.Detect(text, policy.Default(), ctx)
	found := false
	for _, s := range spans {
		if s.FilterType == span.FilterNameFamily && s.Text == "Maria Garcia" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NAME_FAMILY span for 'Maria Garcia', got %+v", spans)
	}
}

func TestNameCoordinatorCrossReference(t *testing.T) {
	text := "The patient's mother Maria Garcia reports no allergies. Maria Garcia will follow up in a week."
	d := newNameCoordinator()
	ctx := testContext(t, text)
	spans, _ := d.Detect(text, policy.Default(), ctx)
	count := 0
	for _, s := range spans {
		if s.Text == "Maria Garcia" {
			count++
		}
	}
	if count < 2 {
		t.Fatalf("expected the coordinator to surface both occurrences of 'Maria Garcia', got %d", count)
	}
}
