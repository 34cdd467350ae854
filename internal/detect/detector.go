// Package detect implements the parallel detector suite (§4.3/§4.5): one
// Detector per PHI surface form, registered in a Registry that the parallel
// fan-out engine (internal/parallel) iterates over. Grounded on the
// teacher's single compilePatterns table that every pattern reads its
// confidence from, generalized into one struct-backed Detector per file.
package detect

import (
	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// Detector recognizes one or more PHI surface forms in text. Implementations
// must be stateless and safe for concurrent use across documents; any
// per-document memoization goes through ctx.CachedScan, never a field on
// the Detector itself (§5: detectors "must not retain references to the
// context after Detect returns").
type Detector interface {
	Name() string
	SupportedTypes() []span.FilterType
	Detect(text string, pol *policy.Policy, ctx *dctx.DocumentContext) ([]span.Span, error)
}

// Registry holds the full detector suite and returns policy-filtered
// snapshots, in registration order, to the parallel engine, mirroring the
// teacher's single pattern table every detector used to read from.
type Registry struct {
	detectors []Detector
}

// NewRegistry returns a Registry with every built-in detector registered.
func NewRegistry() *Registry {
	r := &Registry{}
	r.register(
		newNameDetector(),
		newNameCoordinator(),
		newDateDetector(),
		newSSNDetector(),
		newMRNDetector(),
		newNPIDetector(),
		newDEADetector(),
		newCreditCardDetector(),
		newPhoneDetector(),
		newFaxDetector(),
		newEmailDetector(),
		newURLDetector(),
		newIPDetector(),
		newAddressDetector(),
		newZipcodeDetector(),
		newGeoDetector(),
		newAccountDetector(),
		newLicenseDetector(),
		newVehicleDetector(),
		newDeviceDetector(),
		newHealthPlanDetector(),
		newBiometricDetector(),
		newPassportDetector(),
		newDenylistDetector(),
	)
	return r
}

func (r *Registry) register(ds ...Detector) {
	r.detectors = append(r.detectors, ds...)
}

// Active returns the detectors that have at least one enabled, non-filtered
// supported type under pol. The parallel engine fans out over exactly this
// slice, so a fully-disabled detector never runs.
func (r *Registry) Active(pol *policy.Policy) []Detector {
	out := make([]Detector, 0, len(r.detectors))
	for _, d := range r.detectors {
		for _, ft := range d.SupportedTypes() {
			if pol.FilterFor(ft).Enabled {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// All returns every registered detector regardless of policy, used by
// Analyze-style callers that want the full candidate set before filtering.
func (r *Registry) All() []Detector {
	return append([]Detector(nil), r.detectors...)
}
