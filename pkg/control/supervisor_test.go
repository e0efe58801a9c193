package control

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

type fakeGPIO struct {
	state [model.NumLoads]bool
	err   error
}

func (g *fakeGPIO) Update(id int, on bool) (bool, error) {
	if g.err != nil {
		return g.state[id], g.err
	}
	g.state[id] = on
	return on, nil
}

func (g *fakeGPIO) ReadAll(out []bool) error {
	copy(out, g.state[:])
	return nil
}

func TestSupervisor_ManualModeRejectsTick(t *testing.T) {
	gpio := &fakeGPIO{}
	s := NewSupervisor(gpio, nil)
	s.SetMode(ModeManual)

	fails := s.Tick(0, 220, 1.0)
	assert.Equal(t, model.Fails{}, fails)
	assert.Equal(t, [model.NumLoads]bool{}, s.Outputs())
}

func TestSupervisor_ManualSetLoadDrivesGPIO(t *testing.T) {
	gpio := &fakeGPIO{}
	s := NewSupervisor(gpio, nil)
	s.SetMode(ModeManual)

	require.NoError(t, s.SetLoadManual(2, true))
	assert.True(t, s.Outputs()[2])
	assert.True(t, gpio.state[2])
}

func TestSupervisor_AutoModeConnectsInRangeLoadsAfterRecoveryDelay(t *testing.T) {
	gpio := &fakeGPIO{}
	s := NewSupervisor(gpio, nil)
	s.SetMode(ModeAuto)

	s.Tick(0, 220, 1.0)
	fails := s.Tick(TRecVMS, 220, 1.0)

	assert.False(t, fails.FailI)
	for _, on := range s.Outputs() {
		assert.True(t, on)
	}
}

func TestSupervisor_OvercurrentShedsAllLoads(t *testing.T) {
	gpio := &fakeGPIO{}
	s := NewSupervisor(gpio, nil)
	s.SetMode(ModeAuto)
	s.Tick(0, 220, 1.0)
	s.Tick(TRecVMS, 220, 1.0)

	fails := s.Tick(TRecVMS+1, 220, 8.0)
	assert.True(t, fails.FailI)
	for _, on := range s.Outputs() {
		assert.False(t, on)
	}
}

func TestSupervisor_SetConfigRejectsInvalidRange(t *testing.T) {
	s := NewSupervisor(&fakeGPIO{}, nil)
	cfg := model.DefaultSysCfg()
	cfg.Load[0].VMin = 250
	cfg.Load[0].VMax = 200
	require.Error(t, s.SetConfig(cfg))
}

func TestSupervisor_GPIOUpdateErrorPreservesOutputButStillRecordsFailV(t *testing.T) {
	gpio := &fakeGPIO{}
	s := NewSupervisor(gpio, nil)
	s.SetMode(ModeAuto)

	s.Tick(0, 220, 1.0)
	s.Tick(TRecVMS, 220, 1.0)
	require.True(t, s.Outputs()[0])

	gpio.err = errors.New("relay stuck")
	cfg := s.Config()
	fails := s.Tick(2*TRecVMS, cfg.Load[0].VMax+50, 1.0)

	assert.True(t, fails.FailV[0], "voltage-range fault is tracked independently of the GPIO error")
	assert.True(t, s.Outputs()[0], "prior relay state is preserved when the GPIO write fails")
}

func TestSupervisor_ManualToAutoReinitializesFSMsFromOutputs(t *testing.T) {
	gpio := &fakeGPIO{}
	s := NewSupervisor(gpio, nil)
	s.SetMode(ModeManual)
	require.NoError(t, s.SetLoadManual(0, true))

	s.SetMode(ModeAuto)
	assert.Equal(t, LoadOn, s.loads[0].State())
}
