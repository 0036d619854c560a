package calibration

// Bounds is a min/max envelope.
type Bounds struct {
	Min float64
	Max float64
}

// CheckOffset validates a computed offset against its envelope.
func CheckOffset(offset float64, b Bounds) error {
	if offset < b.Min {
		return boundsError("offset", offset, b.Min, true)
	}
	if offset > b.Max {
		return boundsError("offset", offset, b.Max, false)
	}
	return nil
}

// CheckEndstop validates a measured endstop height. A bound of exactly 0
// disables that side of the check ("no limit configured"). That conflates a
// genuine zero bound with the sentinel; kept for config compatibility.
func CheckEndstop(measured float64, b Bounds) error {
	if b.Min != 0 && measured < b.Min {
		return boundsError("endstop", measured, b.Min, true)
	}
	if b.Max != 0 && measured > b.Max {
		return boundsError("endstop", measured, b.Max, false)
	}
	return nil
}
