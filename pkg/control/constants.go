// Package control implements the two cooperating FSMs that gate the
// relay outputs: a global overcurrent FSM and one per-load
// undervoltage/overvoltage FSM, plus the supervisor that ticks them both
// and drives the GPIO loads in priority order. Grounded on the original
// firmware's control.c state machines, expressed here as small structs
// with an explicit Step method rather than FreeRTOS tasks.
package control

// Timing and hysteresis constants, carried over from control.h /
// system_config.h.
const (
	// DefaultIMax is the factory overcurrent ceiling, amps RMS.
	DefaultIMax = 5.0

	// IMaxHystPrc is the overcurrent hysteresis band, percent of IMax.
	IMaxHystPrc = 10.0
	// VRangeHystPrc is the voltage-range hysteresis band, percent of the
	// configured bound.
	VRangeHystPrc = 5.0

	// MaxFailI is how many overcurrent faults within TRepeatMS trigger
	// the non-recoverable manual-reset lockout.
	MaxFailI = 2

	// TRecIMS is the recovery wait after an overcurrent fault clears.
	TRecIMS = 5000
	// TRecVMS is the recovery wait after a voltage fault clears, before a
	// load with auto-recovery reconnects.
	TRecVMS = 3000
	// TRepeatMS is the window within which repeated overcurrent faults
	// count toward MaxFailI.
	TRepeatMS = 10000
)
