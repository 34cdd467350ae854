package dictionary

import "testing"

func TestSoundexKnownPairs(t *testing.T) {
	cases := []struct{ a, b string }{
		{"Robert", "Rupert"},
		{"Smith", "Smyth"},
	}
	for _, c := range cases {
		if Soundex(c.a) != Soundex(c.b) {
			t.Errorf("expected Soundex(%q) == Soundex(%q), got %q vs %q", c.a, c.b, Soundex(c.a), Soundex(c.b))
		}
	}
}

func TestSoundexDistinctForUnrelated(t *testing.T) {
	if Soundex("Smith") == Soundex("Johnson") {
		t.Fatal("expected distinct Soundex codes for unrelated names")
	}
}

func TestMetaphonePHMapsToF(t *testing.T) {
	if Metaphone("Phillip") != Metaphone("Filip") {
		t.Fatalf("expected Metaphone(Phillip) == Metaphone(Filip), got %q vs %q", Metaphone("Phillip"), Metaphone("Filip"))
	}
}

func TestDamerauLevenshteinTransposition(t *testing.T) {
	if d := DamerauLevenshtein("smtih", "smith", 2); d != 1 {
		t.Fatalf("expected transposition distance 1, got %d", d)
	}
}

func TestDamerauLevenshteinSubstitution(t *testing.T) {
	if d := DamerauLevenshtein("smith", "smyth", 2); d != 1 {
		t.Fatalf("expected substitution distance 1, got %d", d)
	}
}
