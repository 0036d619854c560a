// Simulated Z probe with multi-sample support.
//
// Sampling semantics follow klippy/extras/probe.py: a session accumulates
// samples, retracts between them, and reduces them to one result by average
// or median, with tolerance retries.
package printer

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"auto-offset-z/pkg/calibration"
	"auto-offset-z/pkg/config"
)

// SurfaceFunc returns the Z trigger height of the surface under the sensor
// at the given sensor XY coordinate.
type SurfaceFunc func(x, y float64) float64

// ProbeConfig holds the probe sampling configuration.
type ProbeConfig struct {
	XOffset               float64
	YOffset               float64
	Samples               int
	SampleRetractDist     float64
	SamplesResult         string // "average" or "median"
	SamplesTolerance      float64
	SamplesToleranceRetry int
}

// Probe simulates the height sensor. The surface function supplies trigger
// heights; optional gaussian noise exercises the sampling logic.
type Probe struct {
	th      *Toolhead
	cfg     ProbeConfig
	surface SurfaceFunc
	noise   float64
	rng     *rand.Rand
}

// LoadProbeConfig reads sampling options from the sensor section
// ([bltouch] or [probe]).
func LoadProbeConfig(f *config.File) (ProbeConfig, error) {
	sec, ok := f.Section("bltouch")
	if !ok {
		sec, ok = f.Section("probe")
		if !ok {
			return ProbeConfig{}, fmt.Errorf("printer: no bltouch or probe section")
		}
	}
	xOffset, err := sec.GetFloat("x_offset", 0.0)
	if err != nil {
		return ProbeConfig{}, err
	}
	yOffset, err := sec.GetFloat("y_offset", 0.0)
	if err != nil {
		return ProbeConfig{}, err
	}
	samples, err := sec.GetInt("samples", 1)
	if err != nil {
		return ProbeConfig{}, err
	}
	retract, err := sec.GetFloat("sample_retract_dist", 2.0)
	if err != nil {
		return ProbeConfig{}, err
	}
	result, err := sec.GetChoice("samples_result", []string{"average", "median"}, "average")
	if err != nil {
		return ProbeConfig{}, err
	}
	tolerance, err := sec.GetFloat("samples_tolerance", 0.1)
	if err != nil {
		return ProbeConfig{}, err
	}
	retries, err := sec.GetInt("samples_tolerance_retries", 0)
	if err != nil {
		return ProbeConfig{}, err
	}
	return ProbeConfig{
		XOffset:               xOffset,
		YOffset:               yOffset,
		Samples:               samples,
		SampleRetractDist:     retract,
		SamplesResult:         result,
		SamplesTolerance:      tolerance,
		SamplesToleranceRetry: retries,
	}, nil
}

// NewProbe creates a simulated probe over the given surface.
func NewProbe(th *Toolhead, cfg ProbeConfig, surface SurfaceFunc, noise float64, seed int64) *Probe {
	if cfg.Samples < 1 {
		cfg.Samples = 1
	}
	return &Probe{
		th:      th,
		cfg:     cfg,
		surface: surface,
		noise:   noise,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// StartSession begins a probing session.
func (p *Probe) StartSession() (calibration.ProbeSession, error) {
	return &probeSession{probe: p}, nil
}

type probeSession struct {
	probe   *Probe
	results []calibration.Measurement
	ended   bool
}

// RunProbe takes the configured number of samples at the current XY
// position and records the reduced result.
func (s *probeSession) RunProbe() error {
	if s.ended {
		return fmt.Errorf("printer: probe session already ended")
	}
	p := s.probe

	retries := 0
	for {
		zs, err := p.sample()
		if err != nil {
			return err
		}
		zRange := zs[len(zs)-1] - zs[0]
		if zRange <= p.cfg.SamplesTolerance {
			x, y, _ := p.th.Position()
			z := reduceSamples(zs, p.cfg.SamplesResult)
			logrus.WithFields(logrus.Fields{
				"x": x, "y": y, "z": z,
				"samples": len(zs), "stddev": stat.StdDev(zs, nil),
			}).Debug("probe sample set accepted")
			p.th.setZ(z)
			s.results = append(s.results, calibration.Measurement{X: x, Y: y, Z: z})
			return nil
		}
		retries++
		if retries > p.cfg.SamplesToleranceRetry {
			return fmt.Errorf("printer: probe samples exceed tolerance (range=%.6f, tolerance=%.6f)",
				zRange, p.cfg.SamplesTolerance)
		}
		logrus.WithField("range", zRange).Debug("probe tolerance exceeded, retrying")
	}
}

// sample collects the configured number of trigger heights, retracting
// between samples, and returns them sorted ascending.
func (p *Probe) sample() ([]float64, error) {
	zs := make([]float64, 0, p.cfg.Samples)
	for i := 0; i < p.cfg.Samples; i++ {
		x, y, _ := p.th.Position()
		z := p.surface(x, y)
		if p.noise > 0 {
			z += p.rng.NormFloat64() * p.noise
		}
		p.th.setZ(z)
		zs = append(zs, z)
		if i < p.cfg.Samples-1 {
			p.th.setZ(z + p.cfg.SampleRetractDist)
		}
	}
	sort.Float64s(zs)
	return zs, nil
}

func (s *probeSession) PullResults() []calibration.Measurement {
	out := s.results
	s.results = nil
	return out
}

func (s *probeSession) End() error {
	if s.ended {
		return fmt.Errorf("printer: probe session already ended")
	}
	s.ended = true
	return nil
}

// reduceSamples reduces sorted trigger heights to one value.
func reduceSamples(sorted []float64, method string) float64 {
	if method == "median" {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return stat.Mean(sorted, nil)
}
