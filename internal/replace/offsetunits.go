// Offset-unit translation for §4.9's "offset-unit safety": the engine's
// canonical span offsets are code points, but some consumers (anything
// JSON/JS-adjacent) index strings in UTF-16 code units. Grounded on the
// teacher's StreamingDeanonymize care around not splitting a multi-byte
// boundary mid-token when rewriting a streamed body.
package replace

import "unicode/utf16"

// CodePointToUTF16 builds a translation table from code-point offset to
// UTF-16 code-unit offset for text, so a Span's CharacterStart/CharacterEnd
// (code points) can be converted to the unit a UTF-16-indexed consumer
// expects. table[i] is the UTF-16 offset of code point i; table has
// len([]rune(text))+1 entries so the end offset of a final span is always
// addressable.
func CodePointToUTF16(text string) []int {
	runes := []rune(text)
	table := make([]int, len(runes)+1)
	unitOffset := 0
	for i, r := range runes {
		table[i] = unitOffset
		if r > 0xFFFF {
			unitOffset += 2 // surrogate pair
		} else {
			unitOffset++
		}
	}
	table[len(runes)] = unitOffset
	return table
}

// TranslateSpan converts a code-point [start,end) pair to UTF-16 code units
// using a table built by CodePointToUTF16.
func TranslateSpan(table []int, start, end int) (utf16Start, utf16End int) {
	return table[start], table[end]
}

// UTF16Len returns the UTF-16 code-unit length of text, for consumers that
// need to validate a translated offset against the string's own length
// without re-decoding it themselves.
func UTF16Len(text string) int {
	return len(utf16.Encode([]rune(text)))
}
