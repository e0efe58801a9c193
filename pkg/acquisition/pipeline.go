// Package acquisition turns raw ADC frames from a contracts.SampleProvider
// into calibrated, synchronized (V,I) pairs fed to the measurement
// engine. Grounded on the original firmware's acquisition.c: a
// channel-tagged stream is read, calibrated per sample, and paired up
// with a pending-V flag so a dropped or out-of-range sample never lets a
// stale voltage leak into the next current reading.
package acquisition

import (
	"log/slog"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/contracts"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/measurement"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/units"
)

// ADCMax is the top of the 12-bit ADC range; raw codes above this are
// corruption and the sample pair is discarded.
const ADCMax = 4095

// FrameBufSize is the number of raw samples read per ReadFrame call. The
// original firmware frames in bytes (FRAME_BYTES=1024 of
// adc_digi_output_data_t); here ReadFrame already deals in samples, so
// this just bounds the read buffer size.
const FrameBufSize = 256

// Pipeline pulls raw frames, calibrates them, and folds synchronized
// pairs into a measurement.Engine. It is driven by a single goroutine;
// OnWindow is invoked inline whenever a measurement window closes.
type Pipeline struct {
	provider contracts.SampleProvider
	cal      contracts.Calibrator
	engine   *measurement.Engine
	log      *slog.Logger

	haveV          bool
	pendingVMV     units.MilliVolts
	loggedOverflow bool
}

// NewPipeline builds a pipeline reading from provider, calibrating with
// cal, and accumulating into engine.
func NewPipeline(provider contracts.SampleProvider, cal contracts.Calibrator, engine *measurement.Engine, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{provider: provider, cal: cal, engine: engine, log: log}
}

// Run reads frames until the provider returns an error, invoking
// onWindow each time a measurement window closes. It blocks; callers run
// it in its own goroutine.
func (p *Pipeline) Run(onWindow func(model.Measure)) error {
	buf := make([]uint16, FrameBufSize)
	for {
		n, status, err := p.provider.ReadFrame(buf)
		if err != nil {
			return err
		}
		if status == contracts.FrameOverflow && !p.loggedOverflow {
			p.log.Warn("acquisition buffer overflow, samples dropped")
			p.loggedOverflow = true
		} else if status == contracts.FrameOK {
			p.loggedOverflow = false
		}

		p.processFrame(buf[:n], onWindow)
	}
}

func (p *Pipeline) processFrame(samples []uint16, onWindow func(model.Measure)) {
	for _, raw := range samples {
		// the channel tag is packed in the top nibble and the 12-bit ADC
		// code in the low bits, mirroring adc_digi_output_data_t.
		channel := model.Channel(raw >> 12)
		value := raw & 0x0FFF

		if value > ADCMax {
			p.haveV = false
			continue
		}

		switch channel {
		case model.ChannelVoltage:
			mv, err := p.cal.RawToMilliVolts(value)
			if err != nil {
				p.haveV = false
				continue
			}
			p.pendingVMV = mv
			p.haveV = true

		case model.ChannelCurrent:
			if !p.haveV {
				continue
			}
			mv, err := p.cal.RawToMilliAmps(value)
			if err != nil {
				p.haveV = false
				continue
			}
			if p.engine.AddPair(p.pendingVMV, mv) && onWindow != nil {
				onWindow(p.engine.Results())
			}
			p.haveV = false
		}
	}
}
