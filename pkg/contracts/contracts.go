// Package contracts defines the small collaborator interfaces the rest of
// the module is built against: the sample source, the calibration curve,
// the relay driver, the config/energy store and the millisecond clock.
// Each has exactly one production adapter package (sim, gpioio, kvstore,
// sysclock) plus test doubles, the same shape as the teacher's
// pkg/system/proc.Collector interface sitting in front of its v1/v2
// implementations.
package contracts

import (
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/units"
)

// FrameStatus reports the outcome of one ReadFrame call.
type FrameStatus int

const (
	// FrameOK means buf[:n] holds n valid raw samples.
	FrameOK FrameStatus = iota
	// FrameOverflow means the provider dropped samples before this frame
	// could be read; buf[:n] is still valid, but a gap preceded it.
	FrameOverflow
)

// SampleProvider is the acquisition front end: it owns the ADC DMA buffer
// (or its simulated equivalent) and hands back raw frames on demand.
type SampleProvider interface {
	// Start begins free-running acquisition. Safe to call once.
	Start() error
	// ReadFrame blocks until a frame is ready, then copies up to len(buf)
	// raw samples into buf and returns how many were written.
	ReadFrame(buf []uint16) (n int, status FrameStatus, err error)
	// Close releases the underlying hardware or simulation resources.
	Close() error
}

// Calibrator maps a raw ADC code to a calibrated millivolt or milliamp
// reading, applying whatever gain/offset curve the front end requires.
type Calibrator interface {
	RawToMilliVolts(raw uint16) (units.MilliVolts, error)
	RawToMilliAmps(raw uint16) (units.MilliAmps, error)
}

// GPIOLoad drives and reads back the load relays.
type GPIOLoad interface {
	// Update commands load id to the given on/off state and returns the
	// read-back state actually observed on the pin.
	Update(id int, on bool) (bool, error)
	// ReadAll reports the read-back state of every load into out, which
	// must have length model.NumLoads.
	ReadAll(out []bool) error
}

// KVStore persists system configuration and accumulated energy across
// restarts. A partially written or partially readable store is not
// treated as fatal: LoadConfig reports ok=false rather than an error
// when nothing has been saved yet, mirroring the original firmware's
// nvs_load_config, which falls back to defaults whenever any expected
// key is missing.
type KVStore interface {
	LoadConfig() (cfg model.SysCfg, ok bool, err error)
	SaveConfig(cfg model.SysCfg) error
	LoadEnergy() (kwh float64, ok bool, err error)
	SaveEnergy(kwh float64) error
	ResetDefaults() error
}

// Clock is the monotonic millisecond time source every timeout and rate
// calculation is driven from.
type Clock interface {
	NowMS() uint32
}
