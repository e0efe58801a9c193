package state

import (
	"math"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/sysutil"
)

// Thresholds controls how much a value must move, and how much time must
// pass, before ChangeDetector reports a change worth sending. The first
// three plus MinIntervalMS come from the original firmware's comm
// thresholds; EKWh has no original counterpart (the original's e_ths was
// referenced but never given a named constant) and is a judgment call
// sized to flag roughly each watt-hour of new consumption.
type Thresholds struct {
	VVolts        float64
	IAmps         float64
	Fp            float64
	EKWh          float64
	MinIntervalMS uint32

	// HeartbeatMS, when non-zero, forces Update to report a change once
	// this long has passed since the last MarkSent even with nothing
	// different to report, the same "prove it's still alive" redraw the
	// original firmware's display manager does on a timer alongside its
	// value-changed redraws. Zero disables it, matching the unconditional
	// change-driven behavior most callers want.
	HeartbeatMS uint32
}

// DefaultThresholds mirrors UPDATE_VOLT_THS/UPDATE_CURR_THS/UPDATE_FP_THS/
// UPDATE_MIN_INTERVAL_MS, with the heartbeat disabled.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VVolts:        2.0,
		IAmps:         0.2,
		Fp:            0.02,
		EKWh:          0.001,
		MinIntervalMS: 500,
	}
}

// ChangeDetector decides whether the current state has moved far enough
// from the last state it reported as "sent" to justify another outbound
// update, rate limited by MinIntervalMS. The zero value is unprimed: its
// first Update call always reports a change, so a fresh consumer (e.g. a
// newly connected telemetry sink) gets an initial snapshot immediately.
type ChangeDetector struct {
	primed       bool
	lastSent     model.SysState
	lastUpdateMS uint32
}

// Update reports whether s differs enough from the last state MarkSent
// recorded, and enough time has passed, to warrant sending it.
func (d *ChangeDetector) Update(nowMS uint32, s model.SysState, th Thresholds) bool {
	if !d.primed {
		return true
	}

	di := math.Abs(float64(s.Measure.Irms) - float64(d.lastSent.Measure.Irms))
	dv := math.Abs(float64(s.Measure.Vrms) - float64(d.lastSent.Measure.Vrms))
	dp := math.Abs(math.Abs(float64(s.Measure.Fp)) - math.Abs(float64(d.lastSent.Measure.Fp)))
	de := math.Abs(s.ETotal - d.lastSent.ETotal)
	valChange := di > th.IAmps || dv > th.VVolts || dp > th.Fp || de > th.EKWh

	loadChange := false
	failChange := s.Fails.FailI != d.lastSent.Fails.FailI || s.Fails.FailINR != d.lastSent.Fails.FailINR
	for i := 0; i < model.NumLoads; i++ {
		loadChange = loadChange || s.Output[i] != d.lastSent.Output[i]
		failChange = failChange || s.Fails.FailV[i] != d.lastSent.Fails.FailV[i]
	}

	elapsed := sysutil.ElapsedMS(nowMS, d.lastUpdateMS)
	enoughTime := elapsed >= th.MinIntervalMS
	heartbeatDue := th.HeartbeatMS > 0 && elapsed >= th.HeartbeatMS

	return ((valChange || loadChange || failChange) && enoughTime) || heartbeatDue
}

// MarkSent records s as the last state actually reported, resetting the
// rate-limit clock.
func (d *ChangeDetector) MarkSent(nowMS uint32, s model.SysState) {
	d.lastSent = s
	d.lastUpdateMS = nowMS
	d.primed = true
}
