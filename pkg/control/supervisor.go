package control

import (
	"log/slog"
	"sync"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/contracts"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

// Mode selects whether the supervisor drives loads through its FSMs or
// accepts direct commands.
type Mode int

const (
	ModeAuto Mode = iota
	ModeManual
)

func (m Mode) String() string {
	if m == ModeManual {
		return "MANUAL"
	}
	return "AUTO"
}

// Supervisor ticks the global overcurrent FSM and one LoadFSM per load,
// in configured priority order, and drives the relays through a
// contracts.GPIOLoad. Configuration and the last-known output state are
// guarded by a mutex since they're read by other goroutines (state
// publishing, the CLI); the FSMs themselves are only ever touched from
// the single goroutine that calls Tick, mirroring the original firmware
// where control_mutex protects the shared config but not the FSM state.
type Supervisor struct {
	mu          sync.Mutex
	mode        Mode
	cfg         model.SysCfg
	priorityIdx [model.NumLoads]uint8
	outputs     [model.NumLoads]bool

	global GlobalFSM
	loads  [model.NumLoads]LoadFSM

	gpio contracts.GPIOLoad
	log  *slog.Logger
}

// NewSupervisor builds a supervisor with default configuration, all
// loads initialized OFF.
func NewSupervisor(gpio contracts.GPIOLoad, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	s := &Supervisor{
		gpio: gpio,
		cfg:  model.DefaultSysCfg(),
		log:  log,
	}
	s.priorityIdx = model.PriorityIndex(s.cfg)
	return s
}

// Config returns a snapshot of the current system configuration.
func (s *Supervisor) Config() model.SysCfg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig validates and installs a new system configuration, rebuilding
// the shedding priority order.
func (s *Supervisor) SetConfig(cfg model.SysCfg) error {
	for i := range cfg.Load {
		if err := cfg.Load[i].Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.priorityIdx = model.PriorityIndex(cfg)
	return nil
}

// Mode reports the current operating mode.
func (s *Supervisor) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between AUTO and MANUAL. Switching MANUAL -> AUTO
// reinitializes both FSM layers from the last known output state, so
// protections re-evaluate cleanly instead of inheriting stale state.
func (s *Supervisor) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeManual && mode == ModeAuto {
		s.global.Reset()
		for i := range s.loads {
			s.loads[i].InitFromOutput(s.outputs[i])
		}
	}
	s.mode = mode
}

// SetLoadManual drives a single load directly; valid only in ModeManual.
func (s *Supervisor) SetLoadManual(id int, on bool) error {
	s.mu.Lock()
	if s.mode != ModeManual {
		s.mu.Unlock()
		return errModeMismatch(s.mode)
	}
	s.mu.Unlock()

	readBack, err := s.gpio.Update(id, on)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.outputs[id] = readBack
	s.mu.Unlock()
	return nil
}

// Outputs returns a snapshot of the last known relay states.
func (s *Supervisor) Outputs() [model.NumLoads]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputs
}

// Tick runs one control-loop iteration against the most recent measured
// voltage/current, returning the resulting fault flags. In ModeManual it
// does nothing and returns an empty fault set.
func (s *Supervisor) Tick(nowMS uint32, vrms int16, irms float64) model.Fails {
	s.mu.Lock()
	if s.mode != ModeAuto {
		s.mu.Unlock()
		return model.Fails{}
	}
	imax := s.cfg.IMax
	cfg := s.cfg
	priority := s.priorityIdx
	s.mu.Unlock()

	allowedGlobal := s.global.Step(nowMS, irms, imax)

	var fails model.Fails
	for _, id := range priority {
		allowedLoad := s.loads[id].Step(nowMS, vrms, cfg.Load[id])
		want := allowedGlobal && allowedLoad

		readBack, err := s.gpio.Update(int(id), want)
		if err != nil {
			s.log.Warn("load update failed", "load", id, "want", want, "err", err)
			s.mu.Lock()
			readBack = s.outputs[id]
			s.mu.Unlock()
		}

		s.mu.Lock()
		s.outputs[id] = readBack
		s.mu.Unlock()

		fails.FailV[id] = s.loads[id].Failed()
	}

	fails.FailI = s.global.FailI(irms, imax)
	fails.FailINR = s.global.FailINR()
	return fails
}

type errModeMismatch Mode

func (e errModeMismatch) Error() string {
	return "control: load cannot be driven manually in mode " + Mode(e).String()
}
