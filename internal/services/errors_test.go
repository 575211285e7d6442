package services

import (
	"errors"
	"testing"

	"medley/internal/library"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrValidation, "probe", "inspect", "bad container", cause)

	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected marker to survive wrapping")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to survive wrapping")
	}
	want := "validation error: probe: inspect: bad container: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "embed", "request", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected transient marker")
	}
}

func TestReviewClassification(t *testing.T) {
	cases := []struct {
		marker error
		review bool
	}{
		{ErrValidation, true},
		{ErrConfiguration, true},
		{ErrNotFound, true},
		{ErrExternalTool, false},
		{ErrTimeout, false},
		{ErrTransient, false},
	}
	for _, tc := range cases {
		err := Wrap(tc.marker, "stage", "op", "", nil)
		if got := library.NeedsReview(err); got != tc.review {
			t.Fatalf("NeedsReview(%v) = %v, want %v", tc.marker, got, tc.review)
		}
	}
}
