// Package state holds the single shared snapshot of system state
// (measurement, outputs, faults, accumulated energy) and the change
// detector that gates outbound telemetry, grounded on the original
// firmware's state.c: one mutex-guarded struct plus a best-effort
// auto-save of energy whenever it has drifted far enough from the last
// persisted value.
package state

import (
	"log/slog"
	"sync"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/contracts"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

// SaveEnergyThsKWh is the accumulated-energy delta that triggers an
// automatic persist, carried from system_config.h.
const SaveEnergyThsKWh = 1.0

// SharedState is the single snapshot other goroutines read and write.
// All access goes through its methods; callers never hold a pointer into
// the internal model.SysState.
type SharedState struct {
	mu         sync.Mutex
	st         model.SysState
	lastSavedE float64

	kv  contracts.KVStore
	log *slog.Logger
}

// NewSharedState builds a SharedState backed by kv for energy
// persistence.
func NewSharedState(kv contracts.KVStore, log *slog.Logger) *SharedState {
	if log == nil {
		log = slog.Default()
	}
	return &SharedState{kv: kv, log: log}
}

// Init loads the last persisted energy total, if any, so accumulation
// resumes across restarts instead of starting from zero.
func (s *SharedState) Init() error {
	kwh, ok, err := s.kv.LoadEnergy()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	s.st.ETotal = kwh
	s.lastSavedE = kwh
	s.mu.Unlock()
	return nil
}

// UpdateMeasure installs a freshly computed measurement window, folds
// its incremental energy into the running total, and persists the total
// once it has drifted SaveEnergyThsKWh from the last saved value. The
// save happens outside the mutex so a slow KV write never blocks readers
// of the rest of the state.
func (s *SharedState) UpdateMeasure(m model.Measure) {
	s.mu.Lock()
	s.st.Measure = m
	s.st.ETotal += float64(m.EInc)

	shouldSave := s.st.ETotal-s.lastSavedE >= SaveEnergyThsKWh
	total := s.st.ETotal
	if shouldSave {
		s.lastSavedE = total
	}
	s.mu.Unlock()

	if !shouldSave {
		return
	}
	if err := s.kv.SaveEnergy(total); err != nil {
		s.log.Error("auto-save energy failed", "err", err)
		return
	}
	s.log.Info("energy auto-saved", "kwh", total)
}

// UpdateOutputs installs the latest relay state snapshot.
func (s *SharedState) UpdateOutputs(out [model.NumLoads]bool) {
	s.mu.Lock()
	s.st.Output = out
	s.mu.Unlock()
}

// UpdateFails installs the latest fault snapshot.
func (s *SharedState) UpdateFails(f model.Fails) {
	s.mu.Lock()
	s.st.Fails = f
	s.mu.Unlock()
}

// Get returns a full snapshot of the current state.
func (s *SharedState) Get() model.SysState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// ResetEnergy zeroes the accumulated energy total, both in memory and in
// persistent storage.
func (s *SharedState) ResetEnergy() error {
	s.mu.Lock()
	s.st.ETotal = 0
	s.lastSavedE = 0
	s.mu.Unlock()
	return s.kv.SaveEnergy(0)
}
