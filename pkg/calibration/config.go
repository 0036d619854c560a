package calibration

import (
	"strings"

	"auto-offset-z/pkg/config"
)

// SensorKind identifies which height sensor section is configured.
type SensorKind int

const (
	// SensorContact is a bltouch-style deployable contact probe.
	SensorContact SensorKind = iota
	// SensorMechanical is a plain inductive/mechanical probe.
	SensorMechanical
)

func (k SensorKind) String() string {
	if k == SensorContact {
		return "bltouch"
	}
	return "probe"
}

// AlignmentMode selects which leveling subsystem must have run before
// calibration.
type AlignmentMode int

const (
	AlignQuadGantryLevel AlignmentMode = iota
	AlignZTilt
	AlignIgnore
)

func (m AlignmentMode) String() string {
	switch m {
	case AlignQuadGantryLevel:
		return "quad_gantry_level"
	case AlignZTilt:
		return "z_tilt"
	default:
		return "ignore"
	}
}

// Config is the validated, immutable calibration configuration. Built once
// at startup; re-read only on full configuration reload.
type Config struct {
	CenterPos  XY
	EndstopPos XY

	Sensor       SensorKind
	SensorOffset XY

	ZHop        float64
	ZHopSpeed   float64
	TravelSpeed float64
	MaxZ        float64

	// EndstopOffset is the known mechanical trigger-to-surface bias of the
	// physical Z endstop.
	EndstopOffset       float64
	IgnoreEndstopOffset bool

	ManualAdjust float64

	OffsetBounds  Bounds
	EndstopBounds Bounds

	Alignment AlignmentMode
}

// LoadConfig builds a Config from the printer configuration, enforcing all
// cross-field invariants: exactly one sensor section, a non-degenerate
// sensor offset, a physical Z endstop, and exactly one alignment source (or
// the ignore flag).
func LoadConfig(f *config.File) (*Config, error) {
	sec, ok := f.Section("auto_offset_z")
	if !ok {
		return nil, newError(ErrConfig, "AutoOffsetZ: missing [auto_offset_z] section")
	}

	center, err := sec.GetFloatList("center_xy_position", 2)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	endstop, err := sec.GetFloatList("endstop_xy_position", 2)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}

	zero := 0.0
	zHop, err := sec.GetFloat("z_hop", 10.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	zHopSpeed, err := sec.GetFloatWithBounds("z_hop_speed", config.FloatBounds{Above: &zero}, 15.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	speed, err := sec.GetFloatWithBounds("speed", config.FloatBounds{Above: &zero}, 50.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}

	endstopOffset, err := sec.GetFloat("endstop_offset", 0.5)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	manualAdjust, err := sec.GetFloat("offsetadjust", 0.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}

	offsetMin, err := sec.GetFloat("offset_min", -1.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	offsetMax, err := sec.GetFloat("offset_max", 1.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	// endstop_min/endstop_max default to 0 which disables that side of the
	// check (see CheckEndstop).
	endstopMin, err := sec.GetFloat("endstop_min", 0.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	endstopMax, err := sec.GetFloat("endstop_max", 0.0)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}

	ignoreAlignment, err := sec.GetBool("ignore_alignment", false)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	ignoreEndstopOffset, err := sec.GetBool("ignore_endstop_offset", false)
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}

	zsec, ok := f.Section("stepper_z")
	if !ok {
		return nil, newError(ErrConfig, "AutoOffsetZ: missing [stepper_z] section")
	}
	maxZ, err := zsec.GetFloat("position_max")
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	endstopPin, err := zsec.Get("endstop_pin")
	if err != nil {
		return nil, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}

	sensor, sensorOffset, err := resolveSensor(f, endstopPin)
	if err != nil {
		return nil, err
	}

	alignment, err := resolveAlignment(f, ignoreAlignment)
	if err != nil {
		return nil, err
	}

	return &Config{
		CenterPos:           XY{center[0], center[1]},
		EndstopPos:          XY{endstop[0], endstop[1]},
		Sensor:              sensor,
		SensorOffset:        sensorOffset,
		ZHop:                zHop,
		ZHopSpeed:           zHopSpeed,
		TravelSpeed:         speed,
		MaxZ:                maxZ,
		EndstopOffset:       endstopOffset,
		IgnoreEndstopOffset: ignoreEndstopOffset,
		ManualAdjust:        manualAdjust,
		OffsetBounds:        Bounds{Min: offsetMin, Max: offsetMax},
		EndstopBounds:       Bounds{Min: endstopMin, Max: endstopMax},
		Alignment:           alignment,
	}, nil
}

// resolveSensor picks the configured height sensor. A [bltouch] section
// wins over [probe]; exactly one must be present.
func resolveSensor(f *config.File, endstopPin string) (SensorKind, XY, error) {
	var kind SensorKind
	var sec *config.Section
	if s, ok := f.Section("bltouch"); ok {
		kind, sec = SensorContact, s
	} else if s, ok := f.Section("probe"); ok {
		kind, sec = SensorMechanical, s
	} else {
		return 0, XY{}, newError(ErrConfig,
			"AutoOffsetZ: no bltouch or probe configured in your system - check your setup")
	}

	xOffset, err := sec.GetFloat("x_offset", 0.0)
	if err != nil {
		return 0, XY{}, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	yOffset, err := sec.GetFloat("y_offset", 0.0)
	if err != nil {
		return 0, XY{}, wrapError(err, ErrConfig, "AutoOffsetZ: %v", err)
	}
	if xOffset == 0 && yOffset == 0 {
		return 0, XY{}, newError(ErrConfig,
			"AutoOffsetZ: check the x and y offset of [%s] - it seems both are zero and the sensor can't be at the same position as the nozzle", kind)
	}
	if strings.Contains(endstopPin, "virtual_endstop") {
		return 0, XY{}, newError(ErrConfig,
			"AutoOffsetZ: %s can't be used as z endstop with this command - use a physical endstop instead", kind)
	}
	return kind, XY{xOffset, yOffset}, nil
}

func resolveAlignment(f *config.File, ignore bool) (AlignmentMode, error) {
	if ignore {
		return AlignIgnore, nil
	}
	if f.HasSection("quad_gantry_level") {
		return AlignQuadGantryLevel, nil
	}
	if f.HasSection("z_tilt") {
		return AlignZTilt, nil
	}
	return 0, newError(ErrConfig,
		"AutoOffsetZ: this can only be used if your config contains a section [quad_gantry_level] or [z_tilt]")
}
