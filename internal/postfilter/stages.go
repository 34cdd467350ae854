package postfilter

import (
	"strings"
	"unicode"

	"github.com/claude-health/deident-engine/internal/dctx"
	"github.com/claude-health/deident-engine/internal/policy"
	"github.com/claude-health/deident-engine/internal/span"
)

// Stage is one strategy in the ordered post-filter pipeline (§4.8). Stages
// only remove or down-weight spans; they never introduce new candidates.
// ShouldKeep receives a pointer so stage 7 can mutate Confidence in place,
// matching §3's "confidence: ... may be mutated by the confidence
// pipeline" and §4.8 stage 7's "raises or lowers confidence".
type Stage interface {
	Name() string
	ShouldKeep(s *span.Span, text string) bool
}

// Pipeline runs the fixed 8-stage sequence from §4.8 in order, recording
// each span's journey in the document's Report when tracing is enabled.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds the standard 8-stage pipeline against vocab and pol.
func NewPipeline(vocab *Vocabularies, pol *policy.Policy) *Pipeline {
	return &Pipeline{stages: []Stage{
		&fieldLabelStage{vocab: vocab},
		&documentVocabularyStage{},
		&allCapsStructureStage{vocab: vocab},
		&sectionHeadingStage{vocab: vocab},
		&medicalPhraseStage{vocab: vocab},
		&geographicNoiseStage{vocab: vocab},
		&confidenceModifierStage{pol: pol},
	}}
}

// Run applies every stage to every span in order, then re-checks overlap
// (stage 8) across the survivors, since confidence modifiers in stage 7
// can in principle change which span would have won an overlap decided
// back in §4.7 (a rare case the spec calls out as a guard, not the common
// path).
func (p *Pipeline) Run(spans []span.Span, text string, ctx *dctx.DocumentContext) []span.Span {
	survivors := make([]span.Span, 0, len(spans))
	for _, s := range spans {
		cur := s
		kept := true
		for _, stage := range p.stages {
			if !stage.ShouldKeep(&cur, text) {
				trace(ctx, stage.Name(), cur, false, "")
				kept = false
				break
			}
		}
		if kept {
			trace(ctx, "postfilter", cur, true, "")
			survivors = append(survivors, cur)
		}
	}

	idx := span.DropOverlappingSpans(survivors)
	out := make([]span.Span, 0, len(idx))
	for _, i := range idx {
		out = append(out, survivors[i])
	}
	if ctx != nil {
		ctx.Report.RecordStage("postfilter", len(out))
	}
	return out
}

func trace(ctx *dctx.DocumentContext, stage string, s span.Span, kept bool, reason string) {
	if ctx != nil && ctx.TraceEnabled {
		ctx.Report.Trace(stage, s, kept, reason)
	}
}

// --- Stage 1: field-label whitelist ---------------------------------------

type fieldLabelStage struct{ vocab *Vocabularies }

func (s *fieldLabelStage) Name() string { return "field_label_whitelist" }

func (s *fieldLabelStage) ShouldKeep(sp *span.Span, text string) bool {
	return !s.vocab.FieldLabels.Contains(sp.Text)
}

// --- Stage 2: document vocabulary -----------------------------------------

type documentVocabularyStage struct{}

func (s *documentVocabularyStage) Name() string { return "document_vocabulary" }

// ShouldKeep drops a span whose text matches an ALL-CAPS section heading
// that the document itself uses (e.g. a line that is just "IMPRESSION:"),
// so that heading is never misdetected as a name elsewhere in the same
// document (§4.8 point 2's worked example).
func (s *documentVocabularyStage) ShouldKeep(sp *span.Span, text string) bool {
	headings := documentHeadings(text)
	return !headings[strings.ToUpper(strings.TrimSpace(sp.Text))]
}

// documentHeadings scans text for lines that are (after trimming a
// trailing colon) entirely upper-case, treating them as this document's
// own heading vocabulary. Cheap enough to recompute per span at
// clinical-note scale.
func documentHeadings(text string) map[string]bool {
	headings := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":"))
		if trimmed == "" || !isAllCapsWord(trimmed) {
			continue
		}
		headings[trimmed] = true
	}
	return headings
}

func isAllCapsWord(s string) bool {
	sawLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			sawLetter = true
		}
	}
	return sawLetter
}

// --- Stage 3: all-caps structure -------------------------------------------

type allCapsStructureStage struct{ vocab *Vocabularies }

func (s *allCapsStructureStage) Name() string { return "all_caps_structure" }

func (s *allCapsStructureStage) ShouldKeep(sp *span.Span, text string) bool {
	if !strings.Contains(sp.Text, " ") || !isAllCapsWord(sp.Text) {
		return true
	}
	return !s.vocab.SectionHeadings.Contains(sp.Text)
}

// --- Stage 4: section headings & structure words ---------------------------

type sectionHeadingStage struct{ vocab *Vocabularies }

func (s *sectionHeadingStage) Name() string { return "section_headings" }

func (s *sectionHeadingStage) ShouldKeep(sp *span.Span, text string) bool {
	if s.vocab.SectionHeadings.Contains(sp.Text) || s.vocab.SingleWordHeadings.Contains(sp.Text) {
		return false
	}
	return !s.vocab.StructureWords.Contains(sp.Text)
}

// --- Stage 5: medical phrase vocabulary -------------------------------------

type medicalPhraseStage struct{ vocab *Vocabularies }

func (s *medicalPhraseStage) Name() string { return "medical_phrase_vocabulary" }

func (s *medicalPhraseStage) ShouldKeep(sp *span.Span, text string) bool {
	return !s.vocab.MedicalPhrases.Contains(sp.Text)
}

// --- Stage 6: geographic noise ----------------------------------------------

type geographicNoiseStage struct{ vocab *Vocabularies }

func (s *geographicNoiseStage) Name() string { return "geographic_noise" }

// ShouldKeep drops bare compass/region words (e.g. "North", "East") unless
// the span's surrounding context contains a street-number or address cue,
// per §4.8 point 6's worked example.
func (s *geographicNoiseStage) ShouldKeep(sp *span.Span, text string) bool {
	switch sp.FilterType.Base() {
	case span.FilterCity, span.FilterAddress:
	default:
		return true
	}
	if !s.vocab.GeoTerms.Contains(sp.Text) {
		return true
	}
	return hasAddressCue(sp.Context)
}

func hasAddressCue(context string) bool {
	for _, r := range context {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// --- Stage 7: confidence modifiers -------------------------------------------

type confidenceModifierStage struct{ pol *policy.Policy }

func (s *confidenceModifierStage) Name() string { return "confidence_modifiers" }

// ShouldKeep applies contextual confidence adjustments (§4.8 point 7):
// explicit denylist membership forces a keep at full confidence; explicit
// allowlist membership forces a drop; a nearby role word (the preceding
// field-label token) raises confidence. The span is then re-checked
// against its policy threshold.
func (s *confidenceModifierStage) ShouldKeep(sp *span.Span, text string) bool {
	if s.pol.Denylist[sp.Text] {
		sp.Confidence = 1.0
		sp.FilterType = span.FilterOther
		return true
	}
	if s.pol.Allowlist[sp.Text] {
		return false
	}
	if hasLeadingFieldLabel(sp.Context, sp.Text) {
		sp.Confidence = min1(sp.Confidence+0.1, 1.0)
	}
	fp := s.pol.FilterFor(sp.FilterType)
	floor := s.pol.GlobalThreshold
	if fp.Threshold > floor {
		floor = fp.Threshold
	}
	return sp.Confidence >= floor
}

func hasLeadingFieldLabel(context, matched string) bool {
	idx := strings.Index(context, matched)
	if idx <= 0 {
		return false
	}
	before := strings.TrimSpace(context[:idx])
	return strings.HasSuffix(strings.ToLower(before), ":") || strings.HasSuffix(before, ":")
}

func min1(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
