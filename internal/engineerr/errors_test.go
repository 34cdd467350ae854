package engineerr

import (
	"errors"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(KindPolicy, "bad threshold", nil)
	if !errors.Is(err, Policy) {
		t.Fatal("expected errors.Is to match on Kind")
	}
	if errors.Is(err, Config) {
		t.Fatal("expected errors.Is to not match a different Kind")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(KindConfig, "bad file", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}
