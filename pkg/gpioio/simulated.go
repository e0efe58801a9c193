package gpioio

import "github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"

// Simulated is an in-memory contracts.GPIOLoad for running the full
// control loop without real relay hardware attached.
type Simulated struct {
	state [model.NumLoads]bool
}

// Update sets load id's simulated state and reports it back unchanged;
// there is no hardware to disagree with the command.
func (s *Simulated) Update(id int, on bool) (bool, error) {
	s.state[id] = on
	return on, nil
}

// ReadAll reports the simulated state of every load.
func (s *Simulated) ReadAll(out []bool) error {
	copy(out, s.state[:])
	return nil
}
