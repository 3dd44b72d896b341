package apierr

import (
	"errors"
	"testing"
)

func TestTagPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Tag("failed creating kong consumer", cause)

	if got := ActionOf(err); got != "failed creating kong consumer" {
		t.Fatalf("expected action tag, got %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive")
	}
}

func TestTagNil(t *testing.T) {
	if err := Tag("failed saving to okta", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestActionOfUntagged(t *testing.T) {
	if got := ActionOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty action, got %q", got)
	}
}
