package control

import "github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/timer"

// GlobalState is one state of the overcurrent protection FSM.
type GlobalState int

const (
	GlobalOK GlobalState = iota
	GlobalFailI
	GlobalRec
	GlobalManRec
)

func (s GlobalState) String() string {
	switch s {
	case GlobalOK:
		return "OK"
	case GlobalFailI:
		return "FAIL_I"
	case GlobalRec:
		return "REC"
	case GlobalManRec:
		return "MAN_REC"
	default:
		return "UNKNOWN"
	}
}

// GlobalFSM is the overcurrent protection state machine. The zero value
// is a valid, freshly-initialized FSM in GlobalOK.
type GlobalFSM struct {
	state GlobalState

	contFailsI      int
	imaxThs         bool
	imaxFail        bool
	imaxRepetitive  bool
	timerContFailsI timer.Timer
	timerRec        timer.Timer
}

// Reset returns the FSM to its initial safe state: OK, no pending faults.
func (f *GlobalFSM) Reset() {
	*f = GlobalFSM{}
}

// State reports the current FSM state.
func (f *GlobalFSM) State() GlobalState {
	return f.state
}

// Step runs one control-loop iteration against the measured RMS current
// and the configured ceiling, returning whether loads are allowed to draw
// power this tick.
func (f *GlobalFSM) Step(nowMS uint32, irms, imax float64) bool {
	imaxReset := imax * (1.0 - IMaxHystPrc/100.0)

	if !f.imaxThs && irms > imax {
		f.imaxThs = true
	} else if f.imaxThs && irms < imaxReset {
		f.imaxThs = false
	}

	var allowed bool
	switch f.state {
	case GlobalOK:
		allowed = true
		if f.contFailsI != 0 && !f.timerContFailsI.Active() {
			f.timerContFailsI.Start(nowMS, TRepeatMS)
		}
		if f.timerContFailsI.Expired(nowMS) {
			f.timerContFailsI.Stop()
			f.contFailsI = 0
		}
		if f.imaxThs {
			f.state = GlobalFailI
			f.imaxFail = true
			allowed = false
			f.contFailsI++
			f.timerContFailsI.Stop()
		}

	case GlobalFailI:
		allowed = false
		if !f.imaxThs {
			f.imaxFail = false
			if f.contFailsI < MaxFailI {
				f.state = GlobalRec
				f.timerRec.Start(nowMS, TRecIMS)
			} else {
				f.state = GlobalManRec
				f.imaxRepetitive = true
			}
		}

	case GlobalRec:
		allowed = false
		f.imaxFail = false
		if f.imaxThs {
			f.timerRec.Stop()
			f.state = GlobalFailI
			f.contFailsI++
			f.imaxFail = true
		} else if f.timerRec.Expired(nowMS) {
			f.timerRec.Stop()
			f.state = GlobalOK
			allowed = true
		}

	case GlobalManRec:
		allowed = false
		f.imaxRepetitive = true
		f.contFailsI = 0
	}

	return allowed
}

// FailI reports the overcurrent fault flag as the control fabric should
// publish it: once the system is latched in ManRec, it tracks the live
// threshold instead of the (now frozen) FSM transition flag.
func (f *GlobalFSM) FailI(irms, imax float64) bool {
	if f.imaxRepetitive {
		return irms > imax
	}
	return f.imaxFail
}

// FailINR reports whether the system is latched in the non-recoverable
// manual-reset state.
func (f *GlobalFSM) FailINR() bool {
	return f.imaxRepetitive
}
