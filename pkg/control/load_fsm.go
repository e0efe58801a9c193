package control

import (
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/timer"
)

// LoadState is one state of a per-load voltage-range protection FSM.
type LoadState int

const (
	// LoadOff is first so the zero value of LoadFSM starts disconnected,
	// matching a load that powers up with its relay de-energized.
	LoadOff LoadState = iota
	LoadOn
	LoadFailV
)

func (s LoadState) String() string {
	switch s {
	case LoadOn:
		return "ON"
	case LoadFailV:
		return "FAIL_V"
	case LoadOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// LoadFSM is one load's undervoltage/overvoltage protection state
// machine. The zero value starts in LoadOff, matching a load that powers
// up disconnected.
type LoadFSM struct {
	state    LoadState
	vFail    bool
	timerRec timer.Timer
}

// InitFromOutput seeds the FSM to match an externally known output
// state, the way the original firmware resyncs control_indiv_fsm_init
// from the last relay command after a mode switch.
func (f *LoadFSM) InitFromOutput(on bool) {
	*f = LoadFSM{}
	if on {
		f.state = LoadOn
	} else {
		f.state = LoadOff
	}
}

// State reports the current FSM state.
func (f *LoadFSM) State() LoadState {
	return f.state
}

// Failed reports whether the load is currently out of its configured
// voltage range.
func (f *LoadFSM) Failed() bool {
	return f.vFail
}

// Step runs one control-loop iteration for this load against the
// measured RMS voltage and its configured range, returning whether the
// load is allowed to be energized this tick (subject to the global FSM's
// own verdict, ANDed in by the supervisor).
func (f *LoadFSM) Step(nowMS uint32, vrms int16, cfg model.LoadCfg) bool {
	vmin, vmax := cfg.VMin, cfg.VMax

	vminHyst := int16(-1)
	if vmin >= 0 {
		vminHyst = int16(float64(vmin) * (1.0 - VRangeHystPrc/100.0))
	}
	vmaxHyst := int16(-1)
	if vmax >= 0 {
		vmaxHyst = int16(float64(vmax) * (1.0 + VRangeHystPrc/100.0))
	}

	var outOfRange bool
	if f.vFail {
		outOfRange = (vmin >= 0 && vrms < vminHyst) || (vmax >= 0 && vrms > vmaxHyst)
	} else {
		outOfRange = (vmin >= 0 && vrms < vmin) || (vmax >= 0 && vrms > vmax)
	}

	var allowed bool
	switch f.state {
	case LoadOn:
		allowed = true
		f.vFail = false
		if outOfRange {
			f.state = LoadFailV
			allowed = false
			f.vFail = true
		}

	case LoadOff:
		f.vFail = false
		allowed = false
		if outOfRange {
			f.timerRec.Stop()
			f.state = LoadFailV
			f.vFail = true
		} else if cfg.AutoRec {
			if !f.timerRec.Active() {
				f.timerRec.Start(nowMS, TRecVMS)
			} else if f.timerRec.Expired(nowMS) {
				f.timerRec.Stop()
				f.state = LoadOn
				allowed = true
			}
		}

	case LoadFailV:
		allowed = false
		f.vFail = true
		if !outOfRange {
			f.state = LoadOff
			if cfg.AutoRec {
				f.timerRec.Start(nowMS, TRecVMS)
			}
			f.vFail = false
		}
	}

	return allowed
}
