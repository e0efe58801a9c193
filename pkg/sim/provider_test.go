package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/contracts"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/units"
)

func TestProvider_ProducesAlternatingChannels(t *testing.T) {
	p := New(1000, 200)
	buf := make([]uint16, 8)
	n, status, err := p.ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, contracts.FrameOK, status)

	for i := 0; i < n; i += 2 {
		assert.Equal(t, model.ChannelVoltage, model.Channel(buf[i]>>12))
		assert.Equal(t, model.ChannelCurrent, model.Channel(buf[i+1]>>12))
	}
}

func TestProvider_CodesStayWithinADCRange(t *testing.T) {
	p := New(5000, 5000) // amplitude larger than the ADC range, exercising clamping
	buf := make([]uint16, 100)
	n, _, err := p.ReadFrame(buf)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		code := buf[i] & 0x0FFF
		assert.LessOrEqual(t, code, uint16(ADCMaxCode))
	}
}

func TestProvider_ClosedProviderErrors(t *testing.T) {
	p := New(100, 100)
	require.NoError(t, p.Close())
	_, _, err := p.ReadFrame(make([]uint16, 2))
	assert.Error(t, err)
}

func TestCalibrator_RawToMilliVoltsScalesLinearly(t *testing.T) {
	var c Calibrator
	mv, err := c.RawToMilliVolts(ADCMaxCode)
	require.NoError(t, err)
	assert.InDelta(t, ADCRefMV, float64(mv), 1.0)

	mv, err = c.RawToMilliVolts(0)
	require.NoError(t, err)
	assert.Equal(t, units.MilliVolts(0), mv)
}
