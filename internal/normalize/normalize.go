// Package normalize provides pure text-normalization functions used by
// detectors: an OCR-tolerant auxiliary matching surface, digit/alphanumeric
// extraction, Luhn validation, and the authoritative tokenizer. None of
// these functions replace the input text seen by the rest of the pipeline —
// detectors report offsets into the original input only (§4.3).
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// OffsetMapping records that the code point at Output in a normalized
// string originated from the code point at Input in the source text.
type OffsetMapping struct {
	Output int
	Input  int
}

// ocrSubstitutions collapses common OCR character-class confusions onto a
// canonical form, purely for auxiliary comparison. The main pipeline never
// substitutes these into the text consumers see.
var ocrSubstitutions = map[rune]rune{
	'O': '0', 'o': '0',
	'I': '1', 'l': '1', '|': '1',
	'S': '5', 's': '5',
	'Z': '2', 'z': '2',
	'B': '8',
}

// ocrDigraphs collapses common multi-rune OCR confusions, checked before
// the single-rune table.
var ocrDigraphs = []struct {
	from, to string
}{
	{"rn", "m"},
	{"cl", "d"},
	{"vv", "w"},
}

// NormalizeOCR returns an OCR-tolerant auxiliary surface for text, along
// with a mapping from each output code point back to its input code point.
// It is never substituted into engine output; detectors that consult it
// still report offsets into the original input.
func NormalizeOCR(text string) (string, []OffsetMapping) {
	runes := []rune(text)
	var out strings.Builder
	mapping := make([]OffsetMapping, 0, len(runes))

	i := 0
	for i < len(runes) {
		matched := false
		for _, dg := range ocrDigraphs {
			dgRunes := []rune(dg.from)
			if i+len(dgRunes) <= len(runes) && string(runes[i:i+len(dgRunes)]) == dg.from {
				for _, r := range dg.to {
					mapping = append(mapping, OffsetMapping{Output: out.Len(), Input: i})
					out.WriteRune(r)
				}
				i += len(dgRunes)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		r := runes[i]
		if sub, ok := ocrSubstitutions[r]; ok {
			r = sub
		}
		mapping = append(mapping, OffsetMapping{Output: out.Len(), Input: i})
		out.WriteRune(r)
		i++
	}
	return out.String(), mapping
}

// ExtractDigits returns every run of ASCII digits in text along with the
// code-point offset each run starts at.
func ExtractDigits(text string) []Token {
	return extractRuns(text, unicode.IsDigit)
}

// ExtractDigitsWithOCR is like ExtractDigits but first passes text through
// NormalizeOCR, so digit-like letters (O, I, l, S) are treated as digits.
// Offsets returned are into the ORIGINAL text.
func ExtractDigitsWithOCR(text string) []Token {
	normalized, mapping := NormalizeOCR(text)
	runs := extractRuns(normalized, unicode.IsDigit)
	for i := range runs {
		runs[i].Start = mapOffset(mapping, runs[i].Start)
		runs[i].End = mapOffset(mapping, runs[i].End)
	}
	return runs
}

// ExtractAlphanumeric returns every run of letters/digits in text. If
// preserveCase is false, letters are folded to lower case in the returned
// token text (offsets are unaffected).
func ExtractAlphanumeric(text string, preserveCase bool) []Token {
	runs := extractRuns(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	if !preserveCase {
		for i := range runs {
			runs[i].Text = strings.ToLower(runs[i].Text)
		}
	}
	return runs
}

// Token is a contiguous run of matching code points with its offsets.
type Token struct {
	Text  string
	Start int
	End   int
}

func extractRuns(text string, keep func(rune) bool) []Token {
	runes := []rune(text)
	var out []Token
	i := 0
	for i < len(runes) {
		if !keep(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && keep(runes[i]) {
			i++
		}
		out = append(out, Token{Text: string(runes[start:i]), Start: start, End: i})
	}
	return out
}

func mapOffset(mapping []OffsetMapping, outputOffset int) int {
	// mapping is sorted by Output ascending; find the mapping entry at or
	// immediately before outputOffset and translate.
	if len(mapping) == 0 {
		return outputOffset
	}
	lo, hi := 0, len(mapping)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if mapping[mid].Output <= outputOffset {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	delta := outputOffset - mapping[best].Output
	return mapping[best].Input + delta
}

// PassesLuhn reports whether the given run of ASCII digits satisfies the
// Luhn checksum, used to gate credit-card candidates.
func PassesLuhn(digits string) bool {
	sum := 0
	alt := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return len(digits) > 0 && sum%10 == 0
}

// NFCFold applies Unicode NFC normalization and case-folds text, the
// canonical form dictionary lookups compare against.
func NFCFold(text string) string {
	return strings.ToLower(norm.NFC.String(text))
}

// isWordRune reports whether r participates in a word token: letters,
// digits, and the internal punctuation (apostrophe, hyphen) that appears
// mid-name ("O'Brien", "Smith-Jones") without splitting the token.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-'
}

// TokenizeWithPositions is the authoritative tokenizer used by every
// detector that needs word boundaries (§4.3): it splits text on
// whitespace and punctuation other than the internal apostrophe/hyphen,
// trims any leading or trailing run of those internal punctuation marks
// off each token (so a token never starts or ends mid-punctuation, e.g.
// the comma in "Smith, John" never attaches to "Smith"), and returns each
// surviving token with its code-point offsets into text. If
// includePunctuation is true, standalone punctuation runs are also
// returned as their own tokens instead of being discarded; detectors that
// only care about words (names, dictionary lookups) pass false.
func TokenizeWithPositions(text string, includePunctuation bool) []Token {
	runes := []rune(text)
	var out []Token
	i := 0
	for i < len(runes) {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		start := i
		if isWordRune(runes[i]) {
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			end := i
			// Trim internal-punctuation runs from the edges: "O'Brien's," at
			// the end of a sentence keeps "O'Brien's" as the word, losing
			// the trailing apostrophe/hyphen/comma that trails it.
			for start < end && !isAlnum(runes[start]) {
				start++
			}
			for end > start && !isAlnum(runes[end-1]) {
				end--
			}
			if start < end {
				out = append(out, Token{Text: string(runes[start:end]), Start: start, End: end})
			}
			continue
		}
		// Non-space, non-word rune: one run of punctuation/symbols.
		for i < len(runes) && !unicode.IsSpace(runes[i]) && !isWordRune(runes[i]) {
			i++
		}
		if includePunctuation {
			out = append(out, Token{Text: string(runes[start:i]), Start: start, End: i})
		}
	}
	return out
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
