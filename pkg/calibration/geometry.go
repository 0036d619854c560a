package calibration

// ResolveTarget translates a nominal XY target into the position to command
// the toolhead to, so that a sensor mounted at sensorOffset from the nozzle
// lands over the nominal coordinate.
func ResolveTarget(nominal, sensorOffset XY) XY {
	return XY{
		X: nominal.X - sensorOffset.X,
		Y: nominal.Y - sensorOffset.Y,
	}
}
