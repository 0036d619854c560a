package printer

import (
	"fmt"
	"strings"
	"sync"
)

// Toolhead tracks commanded position and homing state for the simulated
// machine. It implements the motion contracts consumed by the calibration
// controller.
type Toolhead struct {
	mu    sync.Mutex
	pos   [3]float64
	homed [3]bool
	maxZ  float64
}

// NewToolhead creates a toolhead with the given Z travel ceiling.
func NewToolhead(maxZ float64) *Toolhead {
	return &Toolhead{maxZ: maxZ}
}

// HomedAxes returns the homed axes as a lowercase string ("xyz").
func (th *Toolhead) HomedAxes() string {
	th.mu.Lock()
	defer th.mu.Unlock()
	var sb strings.Builder
	for i, axis := range []string{"x", "y", "z"} {
		if th.homed[i] {
			sb.WriteString(axis)
		}
	}
	return sb.String()
}

// Home marks all axes homed and parks the toolhead at a safe height.
func (th *Toolhead) Home() {
	th.mu.Lock()
	defer th.mu.Unlock()
	th.homed = [3]bool{true, true, true}
	th.pos = [3]float64{0, 0, 10}
}

// Unhome clears the homing state, as a motors-off would.
func (th *Toolhead) Unhome() {
	th.mu.Lock()
	th.homed = [3]bool{}
	th.mu.Unlock()
}

// ManualMove moves the toolhead. A nil component leaves that axis unchanged.
func (th *Toolhead) ManualMove(x, y, z *float64, speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("toolhead: invalid speed %v", speed)
	}
	th.mu.Lock()
	defer th.mu.Unlock()
	if z != nil && *z > th.maxZ {
		return fmt.Errorf("toolhead: move out of range: z=%.3f above position_max %.3f", *z, th.maxZ)
	}
	for i, target := range []*float64{x, y, z} {
		if target == nil {
			continue
		}
		if !th.homed[i] {
			return fmt.Errorf("toolhead: must home axis %c first", 'x'+i)
		}
		th.pos[i] = *target
	}
	return nil
}

// Position returns the commanded position.
func (th *Toolhead) Position() (x, y, z float64) {
	th.mu.Lock()
	defer th.mu.Unlock()
	return th.pos[0], th.pos[1], th.pos[2]
}

// setZ records a Z position reached by a probing move.
func (th *Toolhead) setZ(z float64) {
	th.mu.Lock()
	th.pos[2] = z
	th.mu.Unlock()
}

// GetStatus returns toolhead status for API queries.
func (th *Toolhead) GetStatus() map[string]any {
	th.mu.Lock()
	defer th.mu.Unlock()
	var homed strings.Builder
	for i, axis := range []string{"x", "y", "z"} {
		if th.homed[i] {
			homed.WriteString(axis)
		}
	}
	return map[string]any{
		"position":     []float64{th.pos[0], th.pos[1], th.pos[2]},
		"homed_axes":   homed.String(),
		"axis_maximum": th.maxZ,
	}
}
