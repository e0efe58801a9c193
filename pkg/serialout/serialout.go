// Package serialout is an outbound alert sink over a serial port, using
// github.com/tarm/serial the same way seedhammer's mjolnir driver opens
// its port: a bare serial.Config{Name, Baud} handed to serial.OpenPort.
// Fault-edge lines follow the "ALERTA: ..." unsolicited-response shape
// uart_protocol.h documents alongside its "OK"/"ERROR" command replies;
// Measurement/Loads reuse the "OK"-prefixed GET reply shape directly.
package serialout

import (
	"fmt"
	"io"

	"github.com/tarm/serial"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

// Sink writes one "ALERTA: <id> <FAIL|OK> <reason>\r\n" line per
// fault-state transition to an io.Writer; Measurement and Loads write
// "OK ..." lines in the shape uart_handler.c uses for command responses.
type Sink struct {
	w      io.Writer
	closer io.Closer // nil when w was supplied directly (e.g. in tests)

	last   model.Fails
	primed bool
}

// Open opens a serial port at the given device path and baud rate and
// returns a Sink writing to it.
func Open(device string, baud int) (*Sink, error) {
	cfg := &serial.Config{Name: device, Baud: baud}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("serialout: open %s: %w", device, err)
	}
	return &Sink{w: port, closer: port}, nil
}

// NewWriter wraps an already-open io.Writer (a test double, a log file, a
// pipe) as a Sink, without taking ownership of closing it.
func NewWriter(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Close releases the underlying serial port, if Open created one.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Report compares fails against the last reported state and writes one
// alert line per edge: a fault going from clear to set is a FAIL line, a
// fault clearing is an OK line. The very first call compares against an
// all-clear state, so it announces every fault already active, the way a
// freshly booted controller announces its startup condition over UART.
func (s *Sink) Report(fails model.Fails) error {
	prev := model.Fails{}
	if s.primed {
		prev = s.last
	}
	s.primed = true

	if err := s.writeEdge("GLOBAL", "overcurrent", prev.FailI, fails.FailI); err != nil {
		return err
	}
	if err := s.writeEdge("GLOBAL", "manual-recovery-required", prev.FailINR, fails.FailINR); err != nil {
		return err
	}
	for i, v := range fails.FailV {
		if err := s.writeEdge(loadTag(i), "voltage-range", prev.FailV[i], v); err != nil {
			return err
		}
	}
	s.last = fails
	return nil
}

// Measurement writes the current electrical snapshot in the same field
// order and precision as uart_handler.c's "MEAS GET" response body.
func (s *Sink) Measurement(m model.Measure) error {
	line := fmt.Sprintf("OK V:%.2f I:%.3f P:%.3f S:%.3f FP:%.3f E:%.3f\r\n",
		m.Vrms, m.Irms, m.P, m.S, m.Fp, m.EInc)
	_, err := io.WriteString(s.w, line)
	return err
}

// Loads writes the current output states in the same "0:ON 1:OFF ..."
// shape as uart_handler.c's "LOAD GET" response body.
func (s *Sink) Loads(outputs [model.NumLoads]bool) error {
	line := "OK"
	for i, on := range outputs {
		state := "OFF"
		if on {
			state = "ON"
		}
		line += fmt.Sprintf(" %d:%s", i, state)
	}
	line += "\r\n"
	_, err := io.WriteString(s.w, line)
	return err
}

// writeEdge writes one "ALERTA: <id> <FAIL|OK> <reason>\r\n" line when was
// differs from is, the derived per-edge shape of uart_protocol.h's
// "ALERTA: ...\r\n" unsolicited-response format.
func (s *Sink) writeEdge(id, reason string, was, is bool) error {
	if was == is {
		return nil
	}
	state := "OK"
	if is {
		state = "FAIL"
	}
	line := fmt.Sprintf("ALERTA: %s %s %s\r\n", id, state, reason)
	_, err := io.WriteString(s.w, line)
	return err
}

func loadTag(id int) string {
	return fmt.Sprintf("FAIL_V_%d", id)
}
