package dictionary

import "testing"

func TestLoadDefaultsContainsKnownNames(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !snap.FirstNames.ContainsExact("John") {
		t.Fatal("expected embedded first-name list to contain John")
	}
	if !snap.LastNames.ContainsExact("smith") {
		t.Fatal("expected embedded last-name list to contain Smith")
	}
	if !snap.AllowTerms.ContainsExact("patient") {
		t.Fatal("expected allow-term list to contain 'patient'")
	}
}

func TestContainsFuzzyFindsTypo(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	match, dist, ok := snap.FirstNames.ContainsFuzzy("jon") // missing h from "john"
	if !ok {
		t.Fatal("expected fuzzy match for 'jon' against 'john'")
	}
	if match != "john" || dist != 1 {
		t.Fatalf("expected match=john dist=1, got match=%q dist=%d", match, dist)
	}
}

func TestContainsFuzzyRejectsFarWord(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, _, ok := snap.FirstNames.ContainsFuzzy("xylophone"); ok {
		t.Fatal("expected no fuzzy match for an unrelated word")
	}
}

func TestBatchClassify(t *testing.T) {
	snap, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	results := snap.LastNames.BatchClassify([]string{"smith", "smyth", "zzzzz"})
	if !results[0].Exact {
		t.Fatalf("expected exact match for 'smith': %+v", results[0])
	}
	if results[1].Exact || results[1].Match == "" {
		t.Fatalf("expected fuzzy (non-exact) match for 'smyth': %+v", results[1])
	}
	if results[2].Match != "" {
		t.Fatalf("expected no match for 'zzzzz': %+v", results[2])
	}
}
