package gpioio

import (
	"time"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

// fakePin is a minimal in-memory gpio.PinIO double, standing in for real
// hardware in tests the same way the rest of the module prefers a small
// hand-rolled fake over mocking framework machinery.
type fakePin struct {
	name  string
	level gpio.Level
}

func (p *fakePin) String() string        { return p.name }
func (p *fakePin) Halt() error            { return nil }
func (p *fakePin) Name() string           { return p.name }
func (p *fakePin) Number() int            { return 0 }
func (p *fakePin) Function() string       { return "" }
func (p *fakePin) In(gpio.Pull, gpio.Edge) error { return nil }
func (p *fakePin) Read() gpio.Level        { return p.level }
func (p *fakePin) WaitForEdge(time.Duration) bool { return false }
func (p *fakePin) Pull() gpio.Pull         { return gpio.PullNoChange }
func (p *fakePin) DefaultPull() gpio.Pull  { return gpio.PullNoChange }
func (p *fakePin) Out(l gpio.Level) error {
	p.level = l
	return nil
}
func (p *fakePin) PWM(gpio.Duty, physic.Frequency) error { return nil }

func newFakePins() [model.NumLoads]gpio.PinIO {
	var pins [model.NumLoads]gpio.PinIO
	for i := range pins {
		pins[i] = &fakePin{name: "fake", level: gpio.Low}
	}
	return pins
}

func TestGPIOLoad_ActiveLowUpdateAndReadBack(t *testing.T) {
	pins := newFakePins()
	g := &GPIOLoad{pins: pins, activeLow: true}

	on, err := g.Update(0, true)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, gpio.Low, pins[0].Read()) // active-low: ON drives the pin Low

	on, err = g.Update(0, false)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, gpio.High, pins[0].Read())
}

func TestGPIOLoad_ActiveHighUpdateAndReadBack(t *testing.T) {
	pins := newFakePins()
	g := &GPIOLoad{pins: pins, activeLow: false}

	on, err := g.Update(1, true)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, gpio.High, pins[1].Read())
}

func TestGPIOLoad_UpdateRejectsOutOfRangeID(t *testing.T) {
	g := &GPIOLoad{pins: newFakePins(), activeLow: true}
	_, err := g.Update(model.NumLoads, true)
	assert.Error(t, err)
}

func TestGPIOLoad_ReadAllReportsEachPin(t *testing.T) {
	pins := newFakePins()
	g := &GPIOLoad{pins: pins, activeLow: true}
	// fake pins start Low, which is ON when active-low; de-energize every
	// load first, the state New leaves them in.
	for i := range pins {
		_, _ = g.Update(i, false)
	}
	_, _ = g.Update(2, true)

	out := make([]bool, model.NumLoads)
	require.NoError(t, g.ReadAll(out))
	assert.True(t, out[2])
	assert.False(t, out[0])
}

func TestGPIOLoad_ReadAllRejectsShortBuffer(t *testing.T) {
	g := &GPIOLoad{pins: newFakePins(), activeLow: true}
	assert.Error(t, g.ReadAll(make([]bool, 1)))
}
