package calibration

import (
	"math/rand"
	"testing"
)

func TestRoundTo(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		want     float64
	}{
		{0.1235, 3, 0.124}, // halfway rounds away from zero
		{-0.1235, 3, -0.124},
		{0.1234, 3, 0.123},
		{-0.1234, 3, -0.123},
		{0.0, 3, 0.0},
		{0.5, 0, 1.0},
		{-0.5, 0, -1.0},
		{1.23449, 3, 1.234},
		{-0.5 + 0.5 + 0, 3, 0.0},
	}
	for _, tt := range tests {
		if got := RoundTo(tt.value, tt.decimals); got != tt.want {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.value, tt.decimals, got, tt.want)
		}
	}
}

func TestRoundToIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100000; i++ {
		v := rng.Float64()*4 - 2
		r := RoundTo(v, 3)
		if again := RoundTo(r, 3); again != r {
			t.Fatalf("RoundTo not idempotent: v=%v first=%v second=%v", v, r, again)
		}
	}
}
