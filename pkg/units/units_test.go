package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMilliVolts_Volts(t *testing.T) {
	assert.InDelta(t, 22.0, MilliVolts(22000).Volts(), 1e-9)
	assert.InDelta(t, -12.5, MilliVolts(-12500).Volts(), 1e-9)
	assert.Equal(t, 0.0, MilliVolts(0).Volts())
}

func TestMilliAmps_Amps(t *testing.T) {
	assert.InDelta(t, 2.5, MilliAmps(2500).Amps(), 1e-9)
	assert.InDelta(t, -1.0, MilliAmps(-1000).Amps(), 1e-9)
}

func TestKWh_Joules(t *testing.T) {
	assert.InDelta(t, 3.6e6, KWh(1).Joules(), 1e-6)
	assert.Equal(t, 0.0, KWh(0).Joules())
}
