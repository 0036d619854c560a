package calibration

import (
	"errors"
	"math"
	"testing"
)

func TestCheckOffset(t *testing.T) {
	b := Bounds{Min: -1, Max: 1}

	if err := CheckOffset(0, b); err != nil {
		t.Errorf("offset 0 should pass: %v", err)
	}
	// A value exactly on the bound passes
	if err := CheckOffset(1, b); err != nil {
		t.Errorf("offset == max should pass: %v", err)
	}
	if err := CheckOffset(-1, b); err != nil {
		t.Errorf("offset == min should pass: %v", err)
	}
	// One ulp above fails
	if err := CheckOffset(math.Nextafter(1, 2), b); err == nil {
		t.Error("offset one ulp above max should fail")
	} else if !Is(err, ErrOutOfBounds) {
		t.Errorf("error code = %v, want ErrOutOfBounds", err)
	}
	if err := CheckOffset(math.Nextafter(-1, -2), b); err == nil {
		t.Error("offset one ulp below min should fail")
	}
}

func TestCheckOffsetReportsBound(t *testing.T) {
	err := CheckOffset(1.5, Bounds{Min: -1, Max: 1})
	var be *BoundsError
	if !errors.As(err, &be) {
		t.Fatalf("error %v should wrap a BoundsError", err)
	}
	if be.Value != 1.5 || be.Limit != 1 || be.Low {
		t.Errorf("BoundsError = %+v, want value 1.5, limit 1, high side", be)
	}
}

func TestCheckEndstop(t *testing.T) {
	// A bound of exactly 0 disables that side of the check
	if err := CheckEndstop(-5, Bounds{Min: 0, Max: 0}); err != nil {
		t.Errorf("disabled bounds should pass any value: %v", err)
	}
	if err := CheckEndstop(-5, Bounds{Min: 0, Max: 2}); err != nil {
		t.Errorf("disabled min should pass negative value: %v", err)
	}
	if err := CheckEndstop(3, Bounds{Min: 0, Max: 2}); err == nil {
		t.Error("enabled max should fail value above it")
	}
	if err := CheckEndstop(0.2, Bounds{Min: 0.5, Max: 0}); err == nil {
		t.Error("enabled min should fail value below it")
	}
	if err := CheckEndstop(1.0, Bounds{Min: 0.5, Max: 2}); err != nil {
		t.Errorf("value inside enabled bounds should pass: %v", err)
	}
}
