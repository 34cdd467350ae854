package span

import "testing"

func TestOverlapsAdjacentNotOverlapping(t *testing.T) {
	a := Span{CharacterStart: 0, CharacterEnd: 5}
	b := Span{CharacterStart: 5, CharacterEnd: 10}
	if a.Overlaps(b) {
		t.Fatal("adjacent spans should not overlap")
	}
}

func TestOverlapsIntersecting(t *testing.T) {
	a := Span{CharacterStart: 0, CharacterEnd: 5}
	b := Span{CharacterStart: 4, CharacterEnd: 10}
	if !a.Overlaps(b) {
		t.Fatal("intersecting spans should overlap")
	}
}

func TestValid(t *testing.T) {
	input := []rune("Patient John Smith")
	s := Span{CharacterStart: 8, CharacterEnd: 18, Text: "John Smith"}
	if !s.Valid(input) {
		t.Fatal("expected span to be valid")
	}
	bad := Span{CharacterStart: 8, CharacterEnd: 18, Text: "wrong"}
	if bad.Valid(input) {
		t.Fatal("expected span to be invalid")
	}
}

func TestCloneDoesNotAliasWindow(t *testing.T) {
	s := Span{Window: []Token{{Text: "a"}, {Text: "b"}}}
	c := s.Clone()
	c.Window[0].Text = "mutated"
	if s.Window[0].Text == "mutated" {
		t.Fatal("clone aliased the original window slice")
	}
}

func TestBaseCollapsesSubtypes(t *testing.T) {
	if FilterNameTitled.Base() != FilterName {
		t.Fatalf("expected NAME_TITLED to collapse to NAME, got %v", FilterNameTitled.Base())
	}
	if FilterSSN.Base() != FilterSSN {
		t.Fatalf("expected SSN to be its own base")
	}
}
