package printer

import (
	"sync"

	"auto-offset-z/pkg/calibration"
)

// Leveling simulates a gantry leveling subsystem (quad_gantry_level or
// z_tilt). Running its command marks the pass applied; motors-off resets it.
type Leveling struct {
	name    string
	mu      sync.Mutex
	applied bool
}

// NewLeveling creates a leveling subsystem with the given section name.
func NewLeveling(name string) *Leveling {
	return &Leveling{name: name}
}

// Name returns the config section name ("quad_gantry_level" or "z_tilt").
func (l *Leveling) Name() string {
	return l.name
}

// Status implements calibration.AlignmentStatusProvider.
func (l *Leveling) Status() calibration.AlignmentStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return calibration.AlignmentStatus{Applied: l.applied}
}

// Apply marks the leveling pass as applied.
func (l *Leveling) Apply() {
	l.mu.Lock()
	l.applied = true
	l.mu.Unlock()
}

// Reset clears the applied state.
func (l *Leveling) Reset() {
	l.mu.Lock()
	l.applied = false
	l.mu.Unlock()
}

// GetStatus returns leveling status for API queries.
func (l *Leveling) GetStatus() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]any{"applied": l.applied}
}
