package policy

import (
	"testing"

	"github.com/claude-health/deident-engine/internal/span"
)

func TestParseExtendsDefault(t *testing.T) {
	reg := NewRegistry()
	p, err := Parse(reg, "extends default\nkeep dates\nthreshold 0.7\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.GlobalThreshold != 0.7 {
		t.Fatalf("expected global threshold 0.7, got %v", p.GlobalThreshold)
	}
	if p.Filters[span.FilterDate].Enabled {
		t.Fatal("expected 'keep dates' to disable the DATE filter")
	}
}

func TestParsePerCategoryThreshold(t *testing.T) {
	reg := NewRegistry()
	p, err := Parse(reg, "threshold ssn 0.9\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Filters[span.FilterSSN].Threshold != 0.9 {
		t.Fatalf("expected ssn threshold 0.9, got %v", p.Filters[span.FilterSSN].Threshold)
	}
}

func TestParseAllowDenyLiterals(t *testing.T) {
	reg := NewRegistry()
	p, err := Parse(reg, `allow "Dr. House"` + "\n" + `deny "Acme Corp"` + "\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Allowlist["Dr. House"] {
		t.Fatal("expected allowlist to contain the quoted literal")
	}
	if !p.Denylist["Acme Corp"] {
		t.Fatal("expected denylist to contain the quoted literal")
	}
}

func TestParseRejectsUnknownDirective(t *testing.T) {
	reg := NewRegistry()
	if _, err := Parse(reg, "bogus directive\n"); err == nil {
		t.Fatal("expected error for unknown directive")
	}
}

func TestParseRejectsUnknownExtends(t *testing.T) {
	reg := NewRegistry()
	if _, err := Parse(reg, "extends nonexistent\n"); err == nil {
		t.Fatal("expected error for unknown base policy")
	}
}

func TestParseExtendsMustBeFirst(t *testing.T) {
	reg := NewRegistry()
	if _, err := Parse(reg, "keep dates\nextends default\n"); err == nil {
		t.Fatal("expected error when extends is not the first directive")
	}
}
