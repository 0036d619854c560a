// Automated Z gcode-offset calibration against a physical Z endstop.
//
// The procedure probes the surface next to the endstop and the bed center
// with the same sensor, then derives the gcode offset that reconciles the
// endstop trigger height with the true bed surface.
package calibration

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const cmdHelp = "Probe endstop and bed surface to calculate the g-code offset for Z"

// Deps holds the external collaborators, resolved once at construction.
type Deps struct {
	Kinematics MotionQuery
	Toolhead   MotionCommand
	Alignment  AlignmentStatusProvider
	Probe      Prober
	Offset     OffsetSink
	Respond    Responder
}

// Outcome is the computed calibration result.
type Outcome struct {
	BedZ       float64
	EndstopZ   float64
	Diff       float64
	AdjustUsed float64
	Offset     float64
}

// Controller orchestrates the calibration procedure. A single run is
// strictly sequential; the host command dispatcher is responsible for
// serializing invocations.
type Controller struct {
	cfg *Config

	kin       MotionQuery
	toolhead  MotionCommand
	alignment AlignmentStatusProvider
	probe     Prober
	offset    OffsetSink
	respond   Responder

	mu      sync.Mutex
	last    *Outcome
	applied bool
}

// NewController validates the dependency set and builds a controller.
func NewController(cfg *Config, deps Deps) (*Controller, error) {
	if cfg == nil {
		return nil, newError(ErrConfig, "AutoOffsetZ: nil config")
	}
	if deps.Kinematics == nil || deps.Toolhead == nil || deps.Probe == nil ||
		deps.Offset == nil || deps.Respond == nil {
		return nil, newError(ErrConfig, "AutoOffsetZ: missing collaborator")
	}
	if cfg.Alignment != AlignIgnore && deps.Alignment == nil {
		return nil, newError(ErrConfig,
			"AutoOffsetZ: alignment mode %s requires a status provider", cfg.Alignment)
	}
	return &Controller{
		cfg:       cfg,
		kin:       deps.Kinematics,
		toolhead:  deps.Toolhead,
		alignment: deps.Alignment,
		probe:     deps.Probe,
		offset:    deps.Offset,
		respond:   deps.Respond,
	}, nil
}

// RegisterCommand registers AUTO_OFFSET_Z with the host command registry.
func (c *Controller) RegisterCommand(reg CommandRegistry) error {
	return reg.Register("AUTO_OFFSET_Z", cmdHelp, c.cmdAutoOffsetZ)
}

// cmdAutoOffsetZ handles the AUTO_OFFSET_Z command.
// AUTO_OFFSET_Z [OFFSETADJUST=<float>]
func (c *Controller) cmdAutoOffsetZ(args map[string]string) error {
	var override *float64
	if raw, ok := args["OFFSETADJUST"]; ok && raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("bad OFFSETADJUST=%q", raw)
		}
		override = &v
	}
	_, err := c.RunCalibration(override)
	return err
}

// RunCalibration executes the full calibration procedure. When
// manualOverride is non-nil and nonzero it replaces the configured
// offsetadjust for this invocation only.
//
// On any failure after the offset reset the gcode offset is left at the 0
// baseline; an invalid computed offset is never applied.
func (c *Controller) RunCalibration(manualOverride *float64) (*Outcome, error) {
	if err := c.checkHomed(); err != nil {
		return nil, err
	}
	if err := c.checkAlignment(); err != nil {
		return nil, err
	}

	// Establish a known baseline; a stale offset would bias the probe
	// trigger heights.
	if err := c.offset.SetZOffset(0); err != nil {
		return nil, wrapError(err, ErrMotion, "AutoOffsetZ: unable to reset gcode offset: %v", err)
	}

	c.respond.Info("AutoOffsetZ: Probing endstop ...")
	endstop, err := c.probeAt(c.cfg.EndstopPos)
	if err != nil {
		return nil, err
	}

	c.respond.Info("AutoOffsetZ: Probing bed ...")
	bed, err := c.probeAt(c.cfg.CenterPos)
	if err != nil {
		return nil, err
	}

	diff := endstop.Z - bed.Z
	endstopOffset := c.cfg.EndstopOffset
	if c.cfg.IgnoreEndstopOffset {
		endstopOffset = 0
	}
	adjust := c.cfg.ManualAdjust
	if manualOverride != nil && *manualOverride != 0 {
		adjust = *manualOverride
	}
	offset := RoundTo(-diff+endstopOffset+adjust, 3)

	outcome := &Outcome{
		BedZ:       bed.Z,
		EndstopZ:   endstop.Z,
		Diff:       diff,
		AdjustUsed: adjust,
		Offset:     offset,
	}
	c.respond.Info(fmt.Sprintf(
		"AutoOffsetZ:\nBed: %.6f\nEndstop: %.6f\nDiff: %.6f\nManual Adjust: %.6f\nTotal Calculated Offset: %.6f",
		outcome.BedZ, outcome.EndstopZ, outcome.Diff, outcome.AdjustUsed, outcome.Offset))

	if err := CheckOffset(offset, c.cfg.OffsetBounds); err != nil {
		c.recordOutcome(outcome, false)
		return outcome, err
	}
	if err := CheckEndstop(endstop.Z, c.cfg.EndstopBounds); err != nil {
		c.recordOutcome(outcome, false)
		return outcome, err
	}

	if err := c.commit(offset); err != nil {
		c.recordOutcome(outcome, false)
		return outcome, err
	}
	c.recordOutcome(outcome, true)
	return outcome, nil
}

// checkHomed fails unless X, Y and Z are all homed. Runs before any motion.
func (c *Controller) checkHomed() error {
	homed := strings.ToLower(c.kin.HomedAxes())
	for _, axis := range []string{"x", "y", "z"} {
		if !strings.Contains(homed, axis) {
			return newError(ErrNotHomed, "AutoOffsetZ: you must home X, Y and Z axes first")
		}
	}
	return nil
}

func (c *Controller) checkAlignment() error {
	switch c.cfg.Alignment {
	case AlignIgnore:
		c.respond.Info("AutoOffsetZ: alignment check disabled by configuration")
		return nil
	case AlignQuadGantryLevel:
		if !c.alignment.Status().Applied {
			return newError(ErrAlignmentNotApplied, "AutoOffsetZ: you have to do a quad gantry level first")
		}
	case AlignZTilt:
		if !c.alignment.Status().Applied {
			return newError(ErrAlignmentNotApplied, "AutoOffsetZ: you have to do a z tilt first")
		}
	}
	return nil
}

// probeAt moves the sensor over the nominal position, takes one probe
// measurement, and releases the z hop before returning.
func (c *Controller) probeAt(nominal XY) (Measurement, error) {
	target := ResolveTarget(nominal, c.cfg.SensorOffset)
	if err := c.toolhead.ManualMove(&target.X, &target.Y, nil, c.cfg.TravelSpeed); err != nil {
		return Measurement{}, wrapError(err, ErrMotion, "AutoOffsetZ: travel move failed: %v", err)
	}

	session, err := c.probe.StartSession()
	if err != nil {
		return Measurement{}, wrapError(err, ErrProbe, "AutoOffsetZ: unable to start probe session: %v", err)
	}
	if err := session.RunProbe(); err != nil {
		session.End()
		return Measurement{}, wrapError(err, ErrProbe, "AutoOffsetZ: probe failed: %v", err)
	}
	results := session.PullResults()
	if err := session.End(); err != nil {
		return Measurement{}, wrapError(err, ErrProbe, "AutoOffsetZ: unable to end probe session: %v", err)
	}
	if len(results) == 0 {
		return Measurement{}, newError(ErrProbe, "AutoOffsetZ: probe returned no result")
	}
	m := results[len(results)-1]

	if c.cfg.ZHop > 0 {
		hopZ := m.Z + c.cfg.ZHop
		if err := c.toolhead.ManualMove(nil, nil, &hopZ, c.cfg.ZHopSpeed); err != nil {
			return Measurement{}, wrapError(err, ErrMotion, "AutoOffsetZ: z hop failed: %v", err)
		}
	}
	return m, nil
}

// commit applies the validated offset. Reset to 0 first so the new value
// never composes with a prior one.
func (c *Controller) commit(offset float64) error {
	if err := c.offset.SetZOffset(0); err != nil {
		return wrapError(err, ErrMotion, "AutoOffsetZ: unable to reset gcode offset: %v", err)
	}
	if err := c.offset.SetZOffset(offset); err != nil {
		return wrapError(err, ErrMotion, "AutoOffsetZ: unable to apply gcode offset: %v", err)
	}
	return nil
}

func (c *Controller) recordOutcome(o *Outcome, applied bool) {
	c.mu.Lock()
	c.last = o
	c.applied = applied
	c.mu.Unlock()
}

// GetStatus returns the last calibration result for status queries.
func (c *Controller) GetStatus() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := map[string]any{
		"applied": c.applied,
	}
	if c.last != nil {
		status["last_bed_z"] = c.last.BedZ
		status["last_endstop_z"] = c.last.EndstopZ
		status["last_offset"] = c.last.Offset
	}
	return status
}
