package measurement

import (
	"math"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/units"
)

// Engine accumulates one window of calibrated (V,I) pairs and reduces it
// into a model.Measure once WindowSize pairs have arrived. It owns its own
// buffers and is not safe for concurrent use; the acquisition pipeline
// feeds it from a single goroutine.
type Engine struct {
	vBuf [WindowSize]int16
	iBuf [WindowSize]int16
	n    int
	last model.Measure
}

// AddPair folds one calibrated pair into the current window. It returns
// true exactly when the window has just completed, at which point
// Results returns the freshly computed measure.
func (e *Engine) AddPair(vMilliVolts units.MilliVolts, iMilliVolts units.MilliAmps) bool {
	e.vBuf[e.n] = int16(vMilliVolts)
	e.iBuf[e.n] = int16(iMilliVolts)
	e.n++
	if e.n >= WindowSize {
		e.n = 0
		e.last = e.reduce()
		return true
	}
	return false
}

// Results returns the measure computed by the most recently completed
// window. It is undefined before the first window closes.
func (e *Engine) Results() model.Measure {
	return e.last
}

func (e *Engine) reduce() model.Measure {
	var sumV, sumI float64
	for k := 0; k < WindowSize; k++ {
		sumV += float64(e.vBuf[k])
		sumI += float64(e.iBuf[k])
	}
	vDC := sumV / WindowSize
	iDC := sumI / WindowSize

	var sumRMSV, sumRMSI, sumPInst, vPk, iPk float64
	for k := 0; k < WindowSize; k++ {
		vACreal := (float64(e.vBuf[k]) - vDC) / 1000.0 / VoltDriverGain
		iACreal := (float64(e.iBuf[k]) - iDC) / 1000.0 / ACS712Sensitivity

		if vACreal > vPk {
			vPk = vACreal
		}
		if iACreal > iPk {
			iPk = iACreal
		}
		sumRMSV += vACreal * vACreal
		sumRMSI += iACreal * iACreal
		sumPInst += vACreal * iACreal
	}

	vrms := math.Sqrt(sumRMSV / WindowSize)
	irms := math.Sqrt(sumRMSI / WindowSize)
	p := sumPInst / WindowSize

	if vrms <= VoltDriverGroundNoise {
		vrms = 0
		p = 0
	}
	if irms <= ACS712GroundNoise {
		irms = 0
		p = 0
	}

	s := vrms * irms
	fp := 0.0
	if s > 1e-6 {
		fp = math.Abs(p) / s
	}

	irmsReported := irms
	if irms <= ACS712Offset {
		irmsReported = 0
	} else {
		irmsReported -= ACS712Offset
	}

	// The original firmware computes E = P * WindowHours directly, which
	// yields watt-hours while documenting the field as kWh. This divides
	// by 1000 so the stored/reported unit actually matches kWh.
	eInc := p * WindowHours / 1000.0

	return model.Measure{
		Vrms: float32(vrms),
		Irms: float32(irmsReported),
		P:    float32(p),
		S:    float32(s),
		Fp:   float32(fp),
		Vpk:  float32(vPk),
		Ipk:  float32(iPk),
		Vdc:  float32(vDC / 1000.0),
		Idc:  float32(iDC / 1000.0),
		EInc: float32(eInc),
	}
}
