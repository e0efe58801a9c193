// Package model holds the data entities shared across the acquisition,
// measurement, control and state packages, in the same spirit as the
// teacher's pkg/consumption/model.go: plain structs plus a _default-style
// constructor for the one config value that needs sane defaults.
package model

import "fmt"

// NumLoads is the number of relay-driven loads the control fabric manages.
const NumLoads = 4

// Sample is one raw ADC reading before calibration.
type Sample struct {
	Channel Channel
	Value   uint16 // 0..ADCMax
}

// Channel identifies which analog front-end a Sample came from.
type Channel uint8

const (
	ChannelVoltage Channel = iota
	ChannelCurrent
)

// Pair is a calibrated, synchronized (voltage, current) reading.
type Pair struct {
	VMilliVolts int16
	IMilliVolts int16
}

// Measure is the set of electrical quantities produced when one
// measurement window closes. All fields are float32, matching the spec's
// "all f32" result type.
type Measure struct {
	Vrms float32
	Irms float32
	P    float32 // active power, W
	S    float32 // apparent power, VA
	Fp   float32 // power factor
	Vpk  float32
	Ipk  float32
	Vdc  float32
	Idc  float32
	EInc float32 // incremental energy for this window, kWh
}

// LoadCfg is the per-load protection policy.
type LoadCfg struct {
	VMin     int16 // -1 disables the lower bound
	VMax     int16 // -1 disables the upper bound
	AutoRec  bool
	Priority uint8
}

// Validate enforces the spec's v_max > v_min invariant whenever both bounds
// are enabled; either bound may independently be disabled with -1.
func (c LoadCfg) Validate() error {
	if c.VMin >= 0 && c.VMax >= 0 && c.VMax <= c.VMin {
		return fmt.Errorf("model: load config invalid: v_max (%d) must be > v_min (%d)", c.VMax, c.VMin)
	}
	return nil
}

// SysCfg is the persisted system policy: the overcurrent ceiling plus one
// LoadCfg per load.
type SysCfg struct {
	IMax float64
	Load [NumLoads]LoadCfg
}

// DefaultSysCfg returns the defaults from the spec's External Interfaces
// section: imax=5.0A, v_min=200, v_max=250, auto_rec=true, priority=id.
func DefaultSysCfg() SysCfg {
	var cfg SysCfg
	cfg.IMax = 5.0
	for i := range cfg.Load {
		cfg.Load[i] = LoadCfg{
			VMin:     200,
			VMax:     250,
			AutoRec:  true,
			Priority: uint8(i),
		}
	}
	return cfg
}

// Fails is the set of active protections.
type Fails struct {
	FailI   bool
	FailINR bool // non-recoverable, set once MAN_REC is entered
	FailV   [NumLoads]bool
}

// SysState is the full system snapshot guarded by SharedState's mutex.
// It is only ever exchanged by value, never by pointer, across goroutines.
type SysState struct {
	Measure Measure
	Output  [NumLoads]bool
	Fails   Fails
	ETotal  float64
}

// PriorityIndex returns a permutation of [0..NumLoads) sorted by
// (priority ascending, id ascending). Supervisor.Tick drives the loads in
// this order, so within a tick the lowest priority number is updated first.
func PriorityIndex(cfg SysCfg) [NumLoads]uint8 {
	var idx [NumLoads]uint8
	for i := range idx {
		idx[i] = uint8(i)
	}
	for i := 0; i < NumLoads-1; i++ {
		for j := i + 1; j < NumLoads; j++ {
			idI, idJ := idx[i], idx[j]
			prI, prJ := cfg.Load[idI].Priority, cfg.Load[idJ].Priority
			if prJ < prI || (prJ == prI && idJ < idI) {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
	}
	return idx
}
