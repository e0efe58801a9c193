// Package measurement turns synchronized (voltage, current) sample pairs
// into RMS, power and energy results, windowed the same way the teacher's
// pkg/consumption.Accumulator windows process samples into a Result: an
// Apply-style update per pair, with a full reduction available once the
// window closes.
package measurement

// Calibration constants, carried over from the original firmware's
// measure.h / system_config.h so the numeric behavior of the acquisition
// front end stays reproducible.
const (
	// ACS712Sensitivity is the current sensor's nominal gain, V/A.
	ACS712Sensitivity = 0.185
	// ACS712GroundNoise is the current channel's noise floor, compared
	// against the computed Irms in amps.
	ACS712GroundNoise = 0.15
	// ACS712Offset is subtracted from the computed Irms before reporting.
	ACS712Offset = 0.05

	// VoltDriverGain is the voltage divider's calibrated gain, V/V. The
	// sign reflects the phase inversion of the differential driver.
	VoltDriverGain = -4.05e-3
	// VoltDriverGroundNoise is the voltage channel's noise floor, carried
	// unchanged from the original firmware. It is compared against the
	// computed Vrms in volts, so any window at or below 114 V reads as 0.
	VoltDriverGroundNoise = 114

	// SampleFreqHz is the ADC sampling rate for each channel.
	SampleFreqHz = 20000
	// FundamentalHz is the mains frequency the window is sized against.
	FundamentalHz = 50
	// PairsPerCycle is SampleFreqHz/FundamentalHz: samples per mains cycle.
	PairsPerCycle = SampleFreqHz / FundamentalHz
	// CyclesAccum is how many mains cycles make up one measurement window.
	CyclesAccum = 10
	// WindowSize is the total (V,I) pairs accumulated per window: 4000.
	WindowSize = PairsPerCycle * CyclesAccum

	// WindowSeconds is the wall-clock duration of one window.
	WindowSeconds = float64(WindowSize) / SampleFreqHz
	// WindowHours is WindowSeconds expressed in hours, used to turn a
	// window's average power into an incremental energy contribution.
	WindowHours = WindowSeconds / 3600.0
)
