// Package brokerout is a telemetry sink writing one JSON document per
// reported state snapshot, newline-delimited so a log shipper or a
// "nc"-style pipe downstream of a real broker can tail it line by line.
// No third-party pub/sub client appears anywhere in the retrieval pack,
// so this sticks to encoding/json over an io.Writer rather than
// fabricating a broker dependency; see DESIGN.md.
package brokerout

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

// Snapshot is the wire shape published on every change, a flattened
// view of model.SysState plus the timestamp it was captured at.
type Snapshot struct {
	TimestampMS uint32                `json:"ts_ms"`
	Vrms        float32               `json:"vrms"`
	Irms        float32               `json:"irms"`
	P           float32               `json:"p"`
	S           float32               `json:"s"`
	Fp          float32               `json:"fp"`
	ETotalKWh   float64               `json:"e_total_kwh"`
	Outputs     [model.NumLoads]bool  `json:"outputs"`
	FailI       bool                  `json:"fail_i"`
	FailINR     bool                  `json:"fail_i_nr"`
	FailV       [model.NumLoads]bool  `json:"fail_v"`
}

// SnapshotFrom flattens a model.SysState into the wire Snapshot shape.
func SnapshotFrom(nowMS uint32, s model.SysState) Snapshot {
	return Snapshot{
		TimestampMS: nowMS,
		Vrms:        s.Measure.Vrms,
		Irms:        s.Measure.Irms,
		P:           s.Measure.P,
		S:           s.Measure.S,
		Fp:          s.Measure.Fp,
		ETotalKWh:   s.ETotal,
		Outputs:     s.Output,
		FailI:       s.Fails.FailI,
		FailINR:     s.Fails.FailINR,
		FailV:       s.Fails.FailV,
	}
}

// Publisher writes newline-delimited JSON snapshots to an underlying
// io.Writer (a TCP connection, a file, a pipe into an MQTT bridge
// process). It holds no state of its own: callers decide when a
// snapshot is worth sending, typically gated by a state.ChangeDetector.
type Publisher struct {
	w   io.Writer
	enc *json.Encoder
}

// NewPublisher wraps w as a Publisher.
func NewPublisher(w io.Writer) *Publisher {
	return &Publisher{w: w, enc: json.NewEncoder(w)}
}

// Publish writes one JSON-encoded Snapshot, newline-terminated.
func (p *Publisher) Publish(snap Snapshot) error {
	if err := p.enc.Encode(snap); err != nil {
		return fmt.Errorf("brokerout: encode snapshot: %w", err)
	}
	return nil
}
