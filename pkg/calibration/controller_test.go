package calibration

import (
	"fmt"
	"testing"
)

// rig wires a controller to scripted fakes of every collaborator.
type rig struct {
	homed   string
	applied bool

	probeZs []float64 // trigger heights, consumed per probe
	moves   []string
	offsets []float64
	msgs    []string
}

func (r *rig) HomedAxes() string { return r.homed }

func (r *rig) ManualMove(x, y, z *float64, speed float64) error {
	fv := func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%.3f", *p)
	}
	r.moves = append(r.moves, fmt.Sprintf("%s,%s,%s@%.0f", fv(x), fv(y), fv(z), speed))
	return nil
}

func (r *rig) Status() AlignmentStatus { return AlignmentStatus{Applied: r.applied} }

func (r *rig) StartSession() (ProbeSession, error) { return &rigSession{r: r}, nil }

func (r *rig) SetZOffset(v float64) error {
	r.offsets = append(r.offsets, v)
	return nil
}

func (r *rig) Info(msg string) { r.msgs = append(r.msgs, msg) }

type rigSession struct {
	r       *rig
	results []Measurement
}

func (s *rigSession) RunProbe() error {
	if len(s.r.probeZs) == 0 {
		return fmt.Errorf("no scripted probe result")
	}
	z := s.r.probeZs[0]
	s.r.probeZs = s.r.probeZs[1:]
	s.results = append(s.results, Measurement{Z: z})
	return nil
}

func (s *rigSession) PullResults() []Measurement {
	out := s.results
	s.results = nil
	return out
}

func (s *rigSession) End() error { return nil }

func testConfig() *Config {
	return &Config{
		CenterPos:     XY{125, 125},
		EndstopPos:    XY{1, 21},
		Sensor:        SensorContact,
		SensorOffset:  XY{-44, -7},
		ZHop:          10,
		ZHopSpeed:     15,
		TravelSpeed:   50,
		MaxZ:          250,
		EndstopOffset: 0.5,
		OffsetBounds:  Bounds{Min: -1, Max: 1},
		Alignment:     AlignQuadGantryLevel,
	}
}

func newRig(t *testing.T, cfg *Config, probeZs ...float64) (*Controller, *rig) {
	t.Helper()
	r := &rig{homed: "xyz", applied: true, probeZs: probeZs}
	deps := Deps{
		Kinematics: r, Toolhead: r, Alignment: r,
		Probe: r, Offset: r, Respond: r,
	}
	c, err := NewController(cfg, deps)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c, r
}

func TestRunCalibration(t *testing.T) {
	c, r := newRig(t, testConfig(), 1.0, 0.5)

	out, err := c.RunCalibration(nil)
	if err != nil {
		t.Fatalf("RunCalibration failed: %v", err)
	}
	if out.EndstopZ != 1.0 || out.BedZ != 0.5 {
		t.Errorf("measured = endstop %v / bed %v, want 1.0 / 0.5", out.EndstopZ, out.BedZ)
	}
	if out.Diff != 0.5 {
		t.Errorf("Diff = %v, want 0.5", out.Diff)
	}
	if out.Offset != 0.0 {
		t.Errorf("Offset = %v, want 0.0", out.Offset)
	}

	// Moves: travel to endstop (1-(-44), 21-(-7)), hop, travel to center, hop
	wantMoves := []string{
		"45.000,28.000,-@50",
		"-,-,11.000@15",
		"169.000,132.000,-@50",
		"-,-,10.500@15",
	}
	if len(r.moves) != len(wantMoves) {
		t.Fatalf("moves = %v, want %v", r.moves, wantMoves)
	}
	for i, want := range wantMoves {
		if r.moves[i] != want {
			t.Errorf("move[%d] = %s, want %s", i, r.moves[i], want)
		}
	}

	// Offset sequence: baseline reset, commit reset, commit value
	if len(r.offsets) != 3 || r.offsets[0] != 0 || r.offsets[1] != 0 || r.offsets[2] != out.Offset {
		t.Errorf("offset calls = %v, want [0 0 %v]", r.offsets, out.Offset)
	}

	status := c.GetStatus()
	if status["applied"] != true {
		t.Errorf("status applied = %v, want true", status["applied"])
	}
}

func TestManualAdjustPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		configured float64
		override   *float64
		wantAdjust float64
	}{
		{"no override uses configured", 0.05, nil, 0.05},
		{"zero override uses configured", 0.05, ptr(0.0), 0.05},
		{"nonzero override wins", 0.05, ptr(0.1), 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.ManualAdjust = tt.configured
			c, _ := newRig(t, cfg, 1.0, 0.5)

			out, err := c.RunCalibration(tt.override)
			if err != nil {
				t.Fatalf("RunCalibration failed: %v", err)
			}
			if out.AdjustUsed != tt.wantAdjust {
				t.Errorf("AdjustUsed = %v, want %v", out.AdjustUsed, tt.wantAdjust)
			}
			if want := RoundTo(-0.5+0.5+tt.wantAdjust, 3); out.Offset != want {
				t.Errorf("Offset = %v, want %v", out.Offset, want)
			}
		})
	}
}

func TestNotHomedAbortsBeforeMotion(t *testing.T) {
	for _, homed := range []string{"", "xy", "xz", "yz"} {
		c, r := newRig(t, testConfig(), 1.0, 0.5)
		r.homed = homed
		r.applied = false // must not matter; homing is checked first

		_, err := c.RunCalibration(nil)
		if !Is(err, ErrNotHomed) {
			t.Errorf("homed=%q: error = %v, want ErrNotHomed", homed, err)
		}
		if len(r.moves) != 0 || len(r.offsets) != 0 {
			t.Errorf("homed=%q: moves/offsets issued before homing check: %v %v",
				homed, r.moves, r.offsets)
		}
	}
}

func TestAlignmentNotApplied(t *testing.T) {
	for _, mode := range []AlignmentMode{AlignQuadGantryLevel, AlignZTilt} {
		cfg := testConfig()
		cfg.Alignment = mode
		c, r := newRig(t, cfg, 1.0, 0.5)
		r.applied = false

		_, err := c.RunCalibration(nil)
		if !Is(err, ErrAlignmentNotApplied) {
			t.Errorf("mode=%v: error = %v, want ErrAlignmentNotApplied", mode, err)
		}
		if len(r.moves) != 0 || len(r.offsets) != 0 {
			t.Errorf("mode=%v: motion before alignment check", mode)
		}
	}
}

func TestAlignmentIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.Alignment = AlignIgnore
	r := &rig{homed: "xyz", probeZs: []float64{1.0, 0.5}}
	// No alignment provider needed in ignore mode
	c, err := NewController(cfg, Deps{
		Kinematics: r, Toolhead: r, Probe: r, Offset: r, Respond: r,
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	if _, err := c.RunCalibration(nil); err != nil {
		t.Errorf("RunCalibration with ignored alignment failed: %v", err)
	}
}

func TestFailSafeCommit(t *testing.T) {
	// endstop 3.0, bed 0.5 -> diff 2.5 -> offset -2.0, outside [-1, 1]
	c, r := newRig(t, testConfig(), 3.0, 0.5)

	out, err := c.RunCalibration(nil)
	if !Is(err, ErrOutOfBounds) {
		t.Fatalf("error = %v, want ErrOutOfBounds", err)
	}
	if out == nil || out.Offset != -2.0 {
		t.Errorf("outcome offset = %v, want -2.0", out)
	}
	// Only the baseline reset may have been applied; the bad offset never is.
	if len(r.offsets) != 1 || r.offsets[0] != 0 {
		t.Errorf("offset calls = %v, want only the 0 baseline", r.offsets)
	}
	// Both z hops were still released before the validation failure.
	if len(r.moves) != 4 {
		t.Errorf("moves = %v, want both probes with hops", r.moves)
	}
	if status := c.GetStatus(); status["applied"] != false {
		t.Errorf("status applied = %v, want false", status["applied"])
	}
}

func TestEndstopBoundCheck(t *testing.T) {
	cfg := testConfig()
	cfg.EndstopBounds = Bounds{Min: 0, Max: 1.0}
	// endstop 1.2 -> offset fine (round(-0.2+0.5) = 0.3) but endstop above max
	c, r := newRig(t, cfg, 1.2, 1.0)

	_, err := c.RunCalibration(nil)
	if !Is(err, ErrOutOfBounds) {
		t.Fatalf("error = %v, want ErrOutOfBounds", err)
	}
	if len(r.offsets) != 1 {
		t.Errorf("offset calls = %v, want only baseline", r.offsets)
	}
}

func TestCmdAutoOffsetZ(t *testing.T) {
	cfg := testConfig()
	cfg.ManualAdjust = 0.05
	c, r := newRig(t, cfg, 1.0, 0.5)

	if err := c.cmdAutoOffsetZ(map[string]string{"OFFSETADJUST": "0.1"}); err != nil {
		t.Fatalf("cmdAutoOffsetZ failed: %v", err)
	}
	if last := r.offsets[len(r.offsets)-1]; last != 0.1 {
		t.Errorf("applied offset = %v, want 0.1 from OFFSETADJUST", last)
	}

	if err := c.cmdAutoOffsetZ(map[string]string{"OFFSETADJUST": "junk"}); err == nil {
		t.Error("bad OFFSETADJUST should fail")
	}
}

func ptr(v float64) *float64 { return &v }
