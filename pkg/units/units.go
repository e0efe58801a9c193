// Package units wraps the calibrated fixed-point sample values that flow
// out of acquisition, mirroring how the teacher's pkg/types wraps a raw
// uint64 byte count so the two domains (a size, a calibrated voltage) are
// never confused with their plain numeric counterparts.
package units

// MilliVolts is a calibrated voltage sample, signed millivolts.
type MilliVolts int16

// Volts returns the value in volts.
func (v MilliVolts) Volts() float64 { return float64(v) / 1000 }

// MilliAmps is a calibrated current sample, signed milliamps.
type MilliAmps int16

// Amps returns the value in amps.
func (a MilliAmps) Amps() float64 { return float64(a) / 1000 }

// KWh is an accumulated energy quantity in kilowatt-hours.
type KWh float64

// Joules returns the equivalent value in joules.
func (e KWh) Joules() float64 { return float64(e) * 3.6e6 }
