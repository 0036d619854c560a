package printer

import (
	"sync"
)

// GCodeOffset tracks the additive Z offset applied to subsequent moves.
// Implements calibration.OffsetSink.
type GCodeOffset struct {
	mu sync.Mutex
	z  float64

	// history records every applied value, newest last.
	history []float64
}

// NewGCodeOffset creates an offset sink with a 0 baseline.
func NewGCodeOffset() *GCodeOffset {
	return &GCodeOffset{}
}

// SetZOffset sets the absolute Z offset.
func (g *GCodeOffset) SetZOffset(value float64) error {
	g.mu.Lock()
	g.z = value
	g.history = append(g.history, value)
	g.mu.Unlock()
	return nil
}

// ZOffset returns the current Z offset.
func (g *GCodeOffset) ZOffset() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.z
}

// History returns every offset value applied so far.
func (g *GCodeOffset) History() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]float64, len(g.history))
	copy(out, g.history)
	return out
}

// GetStatus returns gcode offset status for API queries.
func (g *GCodeOffset) GetStatus() map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return map[string]any{
		"homing_origin": []float64{0, 0, g.z},
	}
}
