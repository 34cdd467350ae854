package detect

import (
	"testing"

	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

func TestRegistryActiveRespectsPolicy(t *testing.T) {
	reg := NewRegistry()
	pol := policy.Default()

	all := reg.Active(pol)
	if len(all) == 0 {
		t.Fatal("expected at least one active detector under the default policy")
	}

	fp := pol.Filters[span.FilterSSN]
	fp.Enabled = false
	pol.Filters[span.FilterSSN] = fp

	stillActive := reg.Active(pol)
	for _, d := range stillActive {
		for _, ft := range d.SupportedTypes() {
			if ft == span.FilterSSN {
				t.Fatalf("expected %q to be dropped once SSN is disabled and it supports no other enabled type", d.Name())
			}
		}
	}
}

func TestRegistryAllReturnsEveryDetector(t *testing.T) {
	reg := NewRegistry()
	if len(reg.All()) < 15 {
		t.Fatalf("expected the full detector suite, got %d", len(reg.All()))
	}
}
