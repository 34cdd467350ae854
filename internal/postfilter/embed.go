package postfilter

import _ "embed"

//go:embed data/field_labels.json
var defaultFieldLabels []byte

//go:embed data/section_headings.json
var defaultSectionHeadings []byte

//go:embed data/single_word_headings.json
var defaultSingleWordHeadings []byte

//go:embed data/structure_words.json
var defaultStructureWords []byte

//go:embed data/medical_phrases.json
var defaultMedicalPhrases []byte

//go:embed data/geo_terms.json
var defaultGeoTerms []byte

//go:embed data/invalid_endings.json
var defaultInvalidEndings []byte
