// Package sim provides a deterministic synthetic contracts.SampleProvider
// and contracts.Calibrator pair, generating a 50Hz sinusoid framed the
// same way the real ADC DMA buffer would: a stream of channel-tagged raw
// codes a contracts-based pipeline can consume with no special-casing
// for "simulation mode".
package sim

import (
	"math"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/contracts"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/measurement"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/units"
)

const (
	// ADCRefMV is the ADC reference voltage, millivolts (ESP32 default).
	ADCRefMV = 3300
	// ADCCenterCode is the raw code at 0V differential input, the
	// mid-rail bias both the ACS712 and the voltage divider are centered
	// around.
	ADCCenterCode = 2048
	// ADCMaxCode is the top of the 12-bit ADC range.
	ADCMaxCode = 4095
)

// Calibrator converts a raw 12-bit ADC code straight to millivolts at the
// ADC pin. It makes no assumption about which channel it's calibrating:
// the sensor-specific gain (ACS712 sensitivity, voltage divider gain) is
// applied later, in the measurement engine, exactly as the original
// firmware's app_adc_get_voltage does.
type Calibrator struct{}

func (Calibrator) RawToMilliVolts(raw uint16) (units.MilliVolts, error) {
	return units.MilliVolts(rawToMV(raw)), nil
}

func (Calibrator) RawToMilliAmps(raw uint16) (units.MilliAmps, error) {
	return units.MilliAmps(rawToMV(raw)), nil
}

func rawToMV(raw uint16) int16 {
	return int16(int32(raw) * ADCRefMV / ADCMaxCode)
}

// Provider generates a free-running 50Hz (V,I) sinusoid as raw ADC codes.
// VAmplitudeCodes/IAmplitudeCodes size the swing around ADCCenterCode;
// pick them so that, once RawToMilliVolts/RawToMilliAmps and the
// measurement engine's gain curves are applied, the result lands near a
// target Vrms/Irms.
type Provider struct {
	VAmplitudeCodes float64
	IAmplitudeCodes float64

	n      uint64
	closed bool
}

// New returns a Provider producing the given peak code swing on each
// channel.
func New(vAmplitudeCodes, iAmplitudeCodes float64) *Provider {
	return &Provider{VAmplitudeCodes: vAmplitudeCodes, IAmplitudeCodes: iAmplitudeCodes}
}

// Start is a no-op; the generator is stateless aside from its phase
// counter, ready to produce samples immediately.
func (p *Provider) Start() error {
	return nil
}

// ReadFrame fills buf with alternating (V,I) tagged raw samples,
// len(buf) rounded down to an even count.
func (p *Provider) ReadFrame(buf []uint16) (int, contracts.FrameStatus, error) {
	if p.closed {
		return 0, contracts.FrameOK, errClosed{}
	}
	count := len(buf) - len(buf)%2
	for i := 0; i < count; i += 2 {
		theta := 2 * math.Pi * float64(p.n) / measurement.PairsPerCycle
		vCode := clampCode(ADCCenterCode + p.VAmplitudeCodes*math.Sin(theta))
		iCode := clampCode(ADCCenterCode + p.IAmplitudeCodes*math.Sin(theta))

		buf[i] = tag(model.ChannelVoltage, vCode)
		buf[i+1] = tag(model.ChannelCurrent, iCode)
		p.n++
	}
	return count, contracts.FrameOK, nil
}

// Close marks the provider exhausted; further ReadFrame calls error.
func (p *Provider) Close() error {
	p.closed = true
	return nil
}

func tag(ch model.Channel, code uint16) uint16 {
	return uint16(ch)<<12 | (code & 0x0FFF)
}

func clampCode(x float64) uint16 {
	if x < 0 {
		return 0
	}
	if x > ADCMaxCode {
		return ADCMaxCode
	}
	return uint16(x)
}

type errClosed struct{}

func (errClosed) Error() string { return "sim: provider closed" }
