// Package postfilter implements the 8 ordered post-filter stages from
// §4.8. Stages only remove or down-weight spans; they never introduce new
// candidates. Vocabularies for stages 1 and 3-6 load from externalized JSON
// term files (§6's schema), adapted from the teacher's bbolt-backed
// persistent cache idea applied to parsed term sets instead of cached PII
// values — parsing happens once per LoadVocabularies/DefaultVocabularies
// call (engine.New makes one per Engine), not per document; parsed results
// are not cached across calls.
package postfilter

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/claude-health/deident-engine/internal/engineerr"
)

// Category enumerates the fixed, closed set of term-file categories from
// §6. Unknown categories are rejected at load time.
type Category string

const (
	CategorySectionHeadings     Category = "section_headings"
	CategorySingleWordHeadings  Category = "single_word_headings"
	CategoryStructureWords      Category = "structure_words"
	CategoryMedicalPhrases      Category = "medical_phrases"
	CategoryGeoTerms            Category = "geo_terms"
	CategoryFieldLabels         Category = "field_labels"
	CategoryInvalidEndings      Category = "invalid_endings"
)

var validCategories = map[Category]bool{
	CategorySectionHeadings:    true,
	CategorySingleWordHeadings: true,
	CategoryStructureWords:     true,
	CategoryMedicalPhrases:     true,
	CategoryGeoTerms:           true,
	CategoryFieldLabels:        true,
	CategoryInvalidEndings:     true,
}

// TermFileMetadata is the optional provenance block in a term file.
type TermFileMetadata struct {
	LastUpdated string `json:"last_updated,omitempty"`
	Source      string `json:"source,omitempty"`
	Maintainer  string `json:"maintainer,omitempty"`
}

// TermFile is the §6 JSON schema for one externalized vocabulary file.
type TermFile struct {
	Version  string            `json:"version"`
	Category Category          `json:"category"`
	Terms    []string          `json:"terms"`
	Metadata *TermFileMetadata `json:"metadata,omitempty"`
}

// ParseTermFile decodes and validates raw JSON against the §6 schema:
// category must be one of the fixed set, and terms must be non-empty.
func ParseTermFile(raw []byte) (*TermFile, error) {
	var tf TermFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return nil, engineerr.New(engineerr.KindConfig, "malformed term file JSON", err)
	}
	if !validCategories[tf.Category] {
		return nil, engineerr.New(engineerr.KindConfig, fmt.Sprintf("unknown term file category %q", tf.Category), nil)
	}
	if len(tf.Terms) == 0 {
		return nil, engineerr.New(engineerr.KindConfig, fmt.Sprintf("term file category %q has an empty terms array", tf.Category), nil)
	}
	return &tf, nil
}

// TermSet is a case-insensitive lookup set built from one or more term
// files of the same category.
type TermSet struct {
	mu      sync.RWMutex
	terms   map[string]bool
	phrases [][]string // multi-word terms, pre-split, for substring-style matching
}

func newTermSetFromFiles(files ...*TermFile) *TermSet {
	ts := &TermSet{terms: make(map[string]bool)}
	for _, f := range files {
		for _, term := range f.Terms {
			norm := strings.ToLower(strings.TrimSpace(term))
			if norm == "" {
				continue
			}
			ts.terms[norm] = true
			if strings.Contains(norm, " ") {
				ts.phrases = append(ts.phrases, strings.Fields(norm))
			}
		}
	}
	return ts
}

// Contains reports case-insensitive exact membership.
func (ts *TermSet) Contains(term string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.terms[strings.ToLower(strings.TrimSpace(term))]
}

// ContainsAnyWord reports whether any single word of text is a member,
// used by stages that check a span's tokenized text against a vocabulary.
func (ts *TermSet) ContainsAnyWord(text string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if ts.terms[strings.Trim(w, ".,;:!?")] {
			return true
		}
	}
	return false
}

// Vocabularies bundles every category's compiled TermSet, built once per
// Engine and shared read-only across all of its documents.
type Vocabularies struct {
	SectionHeadings    *TermSet
	SingleWordHeadings *TermSet
	StructureWords     *TermSet
	MedicalPhrases     *TermSet
	GeoTerms           *TermSet
	FieldLabels        *TermSet
	InvalidEndings     *TermSet
}

// LoadVocabularies parses every term file in raws (already-read file
// contents) and groups them by category. A category with no file gets an
// empty (always-false) TermSet rather than erroring, since deployments may
// only want to externalize a subset.
func LoadVocabularies(raws [][]byte) (*Vocabularies, error) {
	byCategory := make(map[Category][]*TermFile)
	for _, raw := range raws {
		tf, err := ParseTermFile(raw)
		if err != nil {
			return nil, err
		}
		byCategory[tf.Category] = append(byCategory[tf.Category], tf)
	}
	get := func(c Category) *TermSet {
		return newTermSetFromFiles(byCategory[c]...)
	}
	return &Vocabularies{
		SectionHeadings:    get(CategorySectionHeadings),
		SingleWordHeadings: get(CategorySingleWordHeadings),
		StructureWords:     get(CategoryStructureWords),
		MedicalPhrases:     get(CategoryMedicalPhrases),
		GeoTerms:           get(CategoryGeoTerms),
		FieldLabels:        get(CategoryFieldLabels),
		InvalidEndings:     get(CategoryInvalidEndings),
	}, nil
}

// DefaultVocabularies returns the embedded baseline term files, used when
// no on-disk override directory is configured.
func DefaultVocabularies() (*Vocabularies, error) {
	return LoadVocabularies([][]byte{
		defaultFieldLabels,
		defaultSectionHeadings,
		defaultSingleWordHeadings,
		defaultStructureWords,
		defaultMedicalPhrases,
		defaultGeoTerms,
		defaultInvalidEndings,
	})
}
