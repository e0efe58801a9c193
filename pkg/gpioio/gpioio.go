// Package gpioio drives the load relays over real GPIO pins using
// periph.io, the same host.Init()+gpio.PinIO pattern the input driver
// uses for buttons: initialize the host once, then drive/read each pin
// directly with no additional abstraction layer in between.
package gpioio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/bcm283x"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

// DefaultPins returns the relay GPIO assignment used on the reference
// hardware: four opto-isolated relay drivers on BCM pins 17, 27, 22 and 23.
func DefaultPins() [model.NumLoads]gpio.PinIO {
	return [model.NumLoads]gpio.PinIO{
		bcm283x.GPIO17,
		bcm283x.GPIO27,
		bcm283x.GPIO22,
		bcm283x.GPIO23,
	}
}

// GPIOLoad drives model.NumLoads relay pins, active-low by default to
// match the opto-isolated driver boards the original firmware targets.
type GPIOLoad struct {
	pins      [model.NumLoads]gpio.PinIO
	activeLow bool
}

// New initializes the periph.io host and configures pins as outputs,
// all loads starting de-energized.
func New(pins [model.NumLoads]gpio.PinIO, activeLow bool) (*GPIOLoad, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpioio: host init: %w", err)
	}
	g := &GPIOLoad{pins: pins, activeLow: activeLow}
	for i, p := range pins {
		if err := p.Out(levelFor(false, activeLow)); err != nil {
			return nil, fmt.Errorf("gpioio: init load %d: %w", i, err)
		}
	}
	return g, nil
}

// Update commands load id to the given state and returns the state
// actually read back off the pin.
func (g *GPIOLoad) Update(id int, on bool) (bool, error) {
	if id < 0 || id >= model.NumLoads {
		return false, fmt.Errorf("gpioio: load id %d out of range", id)
	}
	if err := g.pins[id].Out(levelFor(on, g.activeLow)); err != nil {
		return false, fmt.Errorf("gpioio: update load %d: %w", id, err)
	}
	return onFromLevel(g.pins[id].Read(), g.activeLow), nil
}

// ReadAll reports the read-back state of every load into out.
func (g *GPIOLoad) ReadAll(out []bool) error {
	if len(out) < model.NumLoads {
		return fmt.Errorf("gpioio: ReadAll buffer too small: %d", len(out))
	}
	for i, p := range g.pins {
		out[i] = onFromLevel(p.Read(), g.activeLow)
	}
	return nil
}

func levelFor(on, activeLow bool) gpio.Level {
	if activeLow {
		on = !on
	}
	return gpio.Level(on)
}

func onFromLevel(level gpio.Level, activeLow bool) bool {
	on := bool(level)
	if activeLow {
		on = !on
	}
	return on
}
