// Package printer provides a simulated printer runtime wired to the Z
// offset calibration controller, so the full AUTO_OFFSET_Z procedure can be
// exercised without hardware.
package printer

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"auto-offset-z/pkg/calibration"
	"auto-offset-z/pkg/config"
	"auto-offset-z/pkg/gcode"
)

// Options configures the simulated surfaces.
type Options struct {
	// BedSurfaceZ is the trigger height over the bed center.
	BedSurfaceZ float64
	// EndstopSurfaceZ is the trigger height next to the Z endstop.
	EndstopSurfaceZ float64
	// ProbeNoise adds gaussian noise (stddev, mm) to each probe sample.
	ProbeNoise float64
	// Seed seeds the probe noise generator.
	Seed int64
}

// Runtime owns the simulated printer objects and the command dispatcher.
// Command execution is serialized; the calibration procedure is not
// reentrant and concurrent API clients must not interleave moves.
type Runtime struct {
	execMu     sync.Mutex
	calCfg     *calibration.Config
	toolhead   *Toolhead
	probe      *Probe
	offset     *GCodeOffset
	respond    *Responder
	leveling   *Leveling
	controller *calibration.Controller
	dispatcher *gcode.Dispatcher
}

// New builds a runtime from a parsed printer configuration.
func New(f *config.File, opts Options) (*Runtime, error) {
	calCfg, err := calibration.LoadConfig(f)
	if err != nil {
		return nil, err
	}
	probeCfg, err := LoadProbeConfig(f)
	if err != nil {
		return nil, err
	}

	th := NewToolhead(calCfg.MaxZ)
	offset := NewGCodeOffset()
	respond := NewResponder()

	// Trigger heights keyed by which nominal target the sensor sits over.
	surface := func(x, y float64) float64 {
		sx := x + calCfg.SensorOffset.X
		sy := y + calCfg.SensorOffset.Y
		dEndstop := math.Hypot(sx-calCfg.EndstopPos.X, sy-calCfg.EndstopPos.Y)
		dCenter := math.Hypot(sx-calCfg.CenterPos.X, sy-calCfg.CenterPos.Y)
		if dEndstop < dCenter {
			return opts.EndstopSurfaceZ
		}
		return opts.BedSurfaceZ
	}
	probe := NewProbe(th, probeCfg, surface, opts.ProbeNoise, opts.Seed)

	var leveling *Leveling
	switch calCfg.Alignment {
	case calibration.AlignQuadGantryLevel:
		leveling = NewLeveling("quad_gantry_level")
	case calibration.AlignZTilt:
		leveling = NewLeveling("z_tilt")
	default:
		// ignore mode: still surface a leveling object if configured
		if f.HasSection("quad_gantry_level") {
			leveling = NewLeveling("quad_gantry_level")
		} else if f.HasSection("z_tilt") {
			leveling = NewLeveling("z_tilt")
		}
	}

	deps := calibration.Deps{
		Kinematics: th,
		Toolhead:   th,
		Probe:      probe,
		Offset:     offset,
		Respond:    respond,
	}
	if leveling != nil {
		deps.Alignment = leveling
	}
	controller, err := calibration.NewController(calCfg, deps)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		calCfg:     calCfg,
		toolhead:   th,
		probe:      probe,
		offset:     offset,
		respond:    respond,
		leveling:   leveling,
		controller: controller,
		dispatcher: gcode.NewDispatcher(),
	}
	if err := rt.registerCommands(); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) registerCommands() error {
	d := rt.dispatcher
	if err := d.Register("G28", "Home all axes", func(map[string]string) error {
		rt.toolhead.Home()
		rt.respond.Info("Homed axes: xyz")
		return nil
	}); err != nil {
		return err
	}

	if rt.leveling != nil {
		name := strings.ToUpper(rt.leveling.Name())
		if name == "Z_TILT" {
			name = "Z_TILT_ADJUST"
		}
		levelingCmd := name
		if err := d.Register(levelingCmd, "Run the gantry leveling pass", func(map[string]string) error {
			rt.leveling.Apply()
			rt.respond.Info(fmt.Sprintf("%s: adjustments applied", levelingCmd))
			return nil
		}); err != nil {
			return err
		}
	}

	if err := d.Register("SET_GCODE_OFFSET", "Set the gcode Z offset", func(args map[string]string) error {
		z, err := gcode.FloatArg(args, "Z", 0)
		if err != nil {
			return err
		}
		return rt.offset.SetZOffset(z)
	}); err != nil {
		return err
	}

	if err := d.Register("GET_POSITION", "Report the toolhead position", func(map[string]string) error {
		x, y, z := rt.toolhead.Position()
		rt.respond.Info(fmt.Sprintf("toolhead: X:%.6f Y:%.6f Z:%.6f", x, y, z))
		return nil
	}); err != nil {
		return err
	}

	if err := d.Register("M84", "Disable motors", func(map[string]string) error {
		rt.toolhead.Unhome()
		if rt.leveling != nil {
			rt.leveling.Reset()
		}
		return nil
	}); err != nil {
		return err
	}

	return rt.controller.RegisterCommand(d)
}

// Dispatcher returns the command dispatcher.
func (rt *Runtime) Dispatcher() *gcode.Dispatcher {
	return rt.dispatcher
}

// Controller returns the calibration controller.
func (rt *Runtime) Controller() *calibration.Controller {
	return rt.controller
}

// Offset returns the gcode offset sink.
func (rt *Runtime) Offset() *GCodeOffset {
	return rt.offset
}

// Responder returns the operator message responder.
func (rt *Runtime) Responder() *Responder {
	return rt.respond
}

// ExecuteGCode runs a script of newline-separated commands. Scripts run one
// at a time; a second caller blocks until the current script completes.
func (rt *Runtime) ExecuteGCode(script string) error {
	rt.execMu.Lock()
	defer rt.execMu.Unlock()
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := rt.dispatcher.Run(line); err != nil {
			rt.respond.Error(err.Error())
			return err
		}
	}
	return nil
}

// ObjectNames lists the queryable printer objects.
func (rt *Runtime) ObjectNames() []string {
	names := []string{"toolhead", "gcode_move", "auto_offset_z"}
	if rt.leveling != nil {
		names = append(names, rt.leveling.Name())
	}
	return names
}

// ObjectStatus returns the status map of one printer object.
func (rt *Runtime) ObjectStatus(name string) (map[string]any, bool) {
	switch name {
	case "toolhead":
		return rt.toolhead.GetStatus(), true
	case "gcode_move":
		return rt.offset.GetStatus(), true
	case "auto_offset_z":
		return rt.controller.GetStatus(), true
	}
	if rt.leveling != nil && name == rt.leveling.Name() {
		return rt.leveling.GetStatus(), true
	}
	return nil, false
}
