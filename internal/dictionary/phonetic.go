package dictionary

import "strings"

// Soundex computes the classic 4-character Soundex code for a word
// (letters only; case-insensitive). No third-party phonetic-matching
// library appears anywhere in the retrieval pack, so this and Metaphone
// below are implemented from the textbook algorithms — see DESIGN.md.
func Soundex(word string) string {
	letters := normalizeLetters(word)
	if len(letters) == 0 {
		return ""
	}

	code := map[byte]byte{
		'b': '1', 'f': '1', 'p': '1', 'v': '1',
		'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
		'd': '3', 't': '3',
		'l': '4',
		'm': '5', 'n': '5',
		'r': '6',
	}

	var out strings.Builder
	out.WriteByte(upper(letters[0]))
	last := code[letters[0]]

	for i := 1; i < len(letters) && out.Len() < 4; i++ {
		c := letters[i]
		d := code[c]
		if d == 0 {
			if c != 'h' && c != 'w' {
				last = 0
			}
			continue
		}
		if d != last {
			out.WriteByte(d)
		}
		last = d
	}
	for out.Len() < 4 {
		out.WriteByte('0')
	}
	return out.String()
}

// Metaphone computes a simplified Metaphone key: coarser than the full
// Lawrence Philips algorithm, but enough to cluster common clinical-name
// misspellings (silent letters, PH->F, C-soft/hard, double letters).
func Metaphone(word string) string {
	letters := normalizeLetters(word)
	if len(letters) == 0 {
		return ""
	}

	// collapse doubled letters except "cc"
	deduped := letters[:1]
	for i := 1; i < len(letters); i++ {
		if letters[i] == letters[i-1] && letters[i] != 'c' {
			continue
		}
		deduped = append(deduped, letters[i])
	}
	letters = deduped

	var out strings.Builder
	n := len(letters)
	for i := 0; i < n; i++ {
		c := letters[i]
		next := byte(0)
		if i+1 < n {
			next = letters[i+1]
		}
		switch c {
		case 'a', 'e', 'i', 'o', 'u':
			if i == 0 {
				out.WriteByte(c)
			}
		case 'b':
			if !(i == n-1 && i > 0 && letters[i-1] == 'm') {
				out.WriteByte('b')
			}
		case 'c':
			if next == 'h' {
				out.WriteByte('x')
				i++
			} else if next == 'i' || next == 'e' || next == 'y' {
				out.WriteByte('s')
			} else {
				out.WriteByte('k')
			}
		case 'd':
			if next == 'g' && i+2 < n && (letters[i+2] == 'e' || letters[i+2] == 'y' || letters[i+2] == 'i') {
				out.WriteByte('j')
				i += 2
			} else {
				out.WriteByte('t')
			}
		case 'g':
			if next == 'h' {
				i++
			} else if next == 'n' {
				// silent g before n
			} else if next == 'i' || next == 'e' || next == 'y' {
				out.WriteByte('j')
			} else {
				out.WriteByte('k')
			}
		case 'h':
			if i > 0 && isVowel(letters[i-1]) && (next == 0 || !isVowel(next)) {
				// silent h after vowel, before consonant
			} else {
				out.WriteByte('h')
			}
		case 'k':
			if !(i > 0 && letters[i-1] == 'c') {
				out.WriteByte('k')
			}
		case 'p':
			if next == 'h' {
				out.WriteByte('f')
				i++
			} else {
				out.WriteByte('p')
			}
		case 'q':
			out.WriteByte('k')
		case 's':
			if next == 'h' {
				out.WriteByte('x')
				i++
			} else {
				out.WriteByte('s')
			}
		case 't':
			if next == 'h' {
				out.WriteByte('0')
				i++
			} else {
				out.WriteByte('t')
			}
		case 'v':
			out.WriteByte('f')
		case 'w', 'y':
			if next != 0 && isVowel(next) {
				out.WriteByte(c)
			}
		case 'x':
			out.WriteString("ks")
		case 'z':
			out.WriteByte('s')
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

func normalizeLetters(word string) []byte {
	lower := strings.ToLower(word)
	out := make([]byte, 0, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'z' {
			out = append(out, c)
		}
	}
	return out
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
