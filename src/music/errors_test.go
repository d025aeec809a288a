package music

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfClassified(t *testing.T) {
	err := Errorf(KindNotFound, "track %s not found", "42")
	if KindOf(err) != KindNotFound {
		t.Errorf("KindOf = %v, want not_found", KindOf(err))
	}
	if !IsKind(err, KindNotFound) {
		t.Error("IsKind should report not_found")
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := Errorf(KindValidation, "bad shape")
	outer := fmt.Errorf("refresh failed: %w", inner)
	if KindOf(outer) != KindValidation {
		t.Errorf("classification lost through wrapping: got %v", KindOf(outer))
	}
}

func TestKindOfUnclassifiedDefaultsToTransient(t *testing.T) {
	if KindOf(errors.New("plain")) != KindTransient {
		t.Error("unclassified errors should default to transient")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(KindTransient, nil) != nil {
		t.Error("wrapping nil should return nil")
	}
}
