package calibration

// XY is a position in the bed plane.
type XY struct {
	X float64
	Y float64
}

// Measurement is the result of one probing operation. Z is the physically
// measured trigger height.
type Measurement struct {
	X float64
	Y float64
	Z float64
}

// AlignmentStatus is the leveling subsystem's applied state.
type AlignmentStatus struct {
	Applied bool
}

// MotionQuery reports the set of homed axes as a lowercase string ("xyz").
type MotionQuery interface {
	HomedAxes() string
}

// MotionCommand executes manual toolhead moves. A nil axis component leaves
// that axis unchanged.
type MotionCommand interface {
	ManualMove(x, y, z *float64, speed float64) error
}

// AlignmentStatusProvider reports whether a leveling pass has been applied.
// Implemented by the quad_gantry_level and z_tilt subsystems.
type AlignmentStatusProvider interface {
	Status() AlignmentStatus
}

// ProbeSession is one probing session. Results accumulate until pulled.
type ProbeSession interface {
	RunProbe() error
	PullResults() []Measurement
	End() error
}

// Prober starts probe sessions.
type Prober interface {
	StartSession() (ProbeSession, error)
}

// OffsetSink applies the G-code Z offset, the module's sole durable output.
type OffsetSink interface {
	SetZOffset(value float64) error
}

// Responder emits informational messages to the operator. Fire-and-forget.
type Responder interface {
	Info(msg string)
}

// CommandRegistry registers named G-code commands.
type CommandRegistry interface {
	Register(name, help string, handler func(args map[string]string) error) error
}
