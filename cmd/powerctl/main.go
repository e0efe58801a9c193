// Command powerctl runs the acquisition/measurement/control loop end to
// end against a synthetic sample provider and an in-memory relay simulation, the
// same wiring role the teacher's cmd/consumption/main.go plays: one
// cobra root command, a handful of flags, a tabwriter-rendered live
// view, plus file-backed config inspection subcommands.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/acquisition"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/brokerout"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/control"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/gpioio"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/kvstore"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/measurement"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/serialout"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/sim"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/state"
	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/sysclock"
)

// row is one recorded tick, the CSV/JSON/HTML report shape mirroring the
// teacher's cmd/consumption/main.go row struct field-for-field in spirit:
// a flat, JSON-tagged snapshot good enough to round-trip through all three
// file formats.
type row struct {
	At      time.Time            `json:"time"`
	Vrms    float64              `json:"vrms"`
	Irms    float64              `json:"irms"`
	P       float64              `json:"p_w"`
	S       float64              `json:"s_va"`
	Fp      float64              `json:"fp"`
	ETotal  float64              `json:"e_total_kwh"`
	Outputs [model.NumLoads]bool `json:"outputs"`
	FailI   bool                 `json:"fail_i"`
	FailINR bool                 `json:"fail_i_nr"`
	FailV   [model.NumLoads]bool `json:"fail_v"`
}

// reportSink accumulates per-tick rows and streams them to whichever of
// CSV/JSON/HTML outputs were requested, the same streamed-CSV +
// streamed-JSON-array + buffered-HTML-at-the-end split the teacher's run()
// uses for its own three file outputs.
type reportSink struct {
	csvF  *os.File
	csvW  *csv.Writer
	jsonF *os.File
	jsonN int

	htmlPath string
	rows     []row
}

func newReportSink(csvPath, jsonPath, htmlPath string) (*reportSink, error) {
	s := &reportSink{htmlPath: htmlPath}

	if csvPath != "" {
		if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
			return nil, fmt.Errorf("report: csv dir: %w", err)
		}
		f, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("report: create csv: %w", err)
		}
		s.csvF = f
		s.csvW = csv.NewWriter(f)
		_ = s.csvW.Write([]string{
			"time", "vrms", "irms", "p_w", "s_va", "fp", "e_total_kwh",
			"outputs", "fail_i", "fail_i_nr", "fail_v",
		})
		s.csvW.Flush()
	}
	if jsonPath != "" {
		if err := os.MkdirAll(filepath.Dir(jsonPath), 0o755); err != nil {
			return nil, fmt.Errorf("report: json dir: %w", err)
		}
		f, err := os.Create(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("report: create json: %w", err)
		}
		s.jsonF = f
		if _, err := f.WriteString("[\n"); err != nil {
			return nil, fmt.Errorf("report: json header: %w", err)
		}
	}
	if htmlPath != "" {
		if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
			return nil, fmt.Errorf("report: html dir: %w", err)
		}
	}
	return s, nil
}

func (s *reportSink) add(r row) {
	s.rows = append(s.rows, r)

	if s.csvW != nil {
		_ = s.csvW.Write([]string{
			r.At.Format(time.RFC3339),
			strconv.FormatFloat(r.Vrms, 'f', 3, 64),
			strconv.FormatFloat(r.Irms, 'f', 3, 64),
			strconv.FormatFloat(r.P, 'f', 3, 64),
			strconv.FormatFloat(r.S, 'f', 3, 64),
			strconv.FormatFloat(r.Fp, 'f', 3, 64),
			strconv.FormatFloat(r.ETotal, 'f', 4, 64),
			fmt.Sprintf("%v", r.Outputs),
			strconv.FormatBool(r.FailI),
			strconv.FormatBool(r.FailINR),
			fmt.Sprintf("%v", r.FailV),
		})
		s.csvW.Flush()
	}
	if s.jsonF != nil {
		b, _ := json.MarshalIndent(r, "  ", "  ")
		if s.jsonN > 0 {
			_, _ = s.jsonF.WriteString(",\n")
		}
		_, _ = s.jsonF.Write(b)
		s.jsonN++
	}
}

// close finalizes every requested file: flushes/closes the CSV and JSON
// streams and, if an HTML path was requested, renders the buffered rows
// through reportTpl in one shot.
func (s *reportSink) close() error {
	if s.csvW != nil {
		s.csvW.Flush()
	}
	if s.csvF != nil {
		if err := s.csvF.Close(); err != nil {
			return fmt.Errorf("report: close csv: %w", err)
		}
	}
	if s.jsonF != nil {
		if _, err := s.jsonF.WriteString("\n]\n"); err != nil {
			return fmt.Errorf("report: json footer: %w", err)
		}
		if err := s.jsonF.Close(); err != nil {
			return fmt.Errorf("report: close json: %w", err)
		}
	}
	if s.htmlPath != "" {
		f, err := os.Create(s.htmlPath)
		if err != nil {
			return fmt.Errorf("report: create html: %w", err)
		}
		defer f.Close()
		if err := reportTpl.Execute(f, struct{ Rows []row }{Rows: s.rows}); err != nil {
			return fmt.Errorf("report: render html: %w", err)
		}
	}
	return nil
}

var reportTpl = template.Must(template.New("rep").Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>powerctl report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
.small{color:#555}
</style>
<h1>powerctl report</h1>
<p class="small">Rows: {{len .Rows}}</p>
<table>
<thead>
<tr>
<th>time</th><th>Vrms</th><th>Irms</th><th>P(W)</th><th>S(VA)</th><th>FP</th>
<th>E(kWh)</th><th>outputs</th><th>fail_i</th><th>fail_i_nr</th><th>fail_v</th>
</tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
<td style="text-align:left">{{.At.Format "2006-01-02 15:04:05"}}</td>
<td>{{printf "%.2f" .Vrms}}</td>
<td>{{printf "%.3f" .Irms}}</td>
<td>{{printf "%.3f" .P}}</td>
<td>{{printf "%.3f" .S}}</td>
<td>{{printf "%.3f" .Fp}}</td>
<td>{{printf "%.4f" .ETotal}}</td>
<td>{{.Outputs}}</td>
<td>{{.FailI}}</td>
<td>{{.FailINR}}</td>
<td>{{.FailV}}</td>
</tr>
{{end}}
</tbody>
</table>
</html>`))

var storePath string

func main() {
	root := &cobra.Command{
		Use:   "powerctl",
		Short: "Single-phase AC power analyzer and programmable load controller",
		Long: `powerctl drives the acquisition-measurement-control loop for a
single-phase AC line: it samples voltage and current, computes RMS/power/
energy over rolling windows, and sheds or restores up to four relay-driven
loads under an overcurrent and per-load voltage-range policy.`,
	}
	root.PersistentFlags().StringVar(&storePath, "store", "powerctl.yaml", "path to the persisted configuration/energy store")

	root.AddCommand(newMonitorCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newEnergyCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newMonitorCmd() *cobra.Command {
	var (
		hardware   bool
		device     string
		baud       int
		brokerPath string
		activeLow  bool
		heartbeat  time.Duration
		csvPath    string
		jsonPath   string
		htmlPath   string
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the acquisition/measurement/control loop and print live readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, hardware, device, baud, brokerPath, activeLow, heartbeat, csvPath, jsonPath, htmlPath)
		},
	}
	cmd.Flags().BoolVar(&hardware, "hardware", false, "request real GPIO relays (this build only logs a warning and keeps the in-memory simulation)")
	cmd.Flags().StringVar(&device, "serial-device", "", "serial device to write fault alert lines to (disabled if empty)")
	cmd.Flags().IntVar(&baud, "serial-baud", 115200, "serial baud rate")
	cmd.Flags().StringVar(&brokerPath, "broker-out", "", "file/pipe to append newline-delimited JSON snapshots to (disabled if empty)")
	cmd.Flags().BoolVar(&activeLow, "active-low", true, "relay driver polarity (opto-isolated boards are active-low)")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", 0, "force a telemetry snapshot on this interval even with no change (0 disables)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write per-tick rows to a CSV report file")
	cmd.Flags().StringVar(&jsonPath, "json", "", "write per-tick rows to a JSON report file")
	cmd.Flags().StringVar(&htmlPath, "html", "", "write a per-tick table and summary to an HTML report file")
	return cmd
}

func runMonitor(cmd *cobra.Command, hardware bool, device string, baud int, brokerPath string, activeLow bool, heartbeat time.Duration, csvPath, jsonPath, htmlPath string) error {
	log := slog.Default()

	kv := kvstore.New(storePath)
	cfg, ok, err := kv.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !ok {
		cfg = model.DefaultSysCfg()
	}

	gpio, err := newGPIOLoad(hardware, activeLow)
	if err != nil {
		return fmt.Errorf("gpio: %w", err)
	}

	sup := control.NewSupervisor(gpio, log)
	if err := sup.SetConfig(cfg); err != nil {
		return fmt.Errorf("apply stored config: %w", err)
	}
	sup.SetMode(control.ModeAuto)

	shared := state.NewSharedState(kv, log)
	if err := shared.Init(); err != nil {
		return fmt.Errorf("init shared state: %w", err)
	}

	var alertSink *serialout.Sink
	if device != "" {
		alertSink, err = serialout.Open(device, baud)
		if err != nil {
			return fmt.Errorf("serial: %w", err)
		}
		defer alertSink.Close()
	}

	var publisher *brokerout.Publisher
	if brokerPath != "" {
		f, err := os.OpenFile(brokerPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("broker-out: %w", err)
		}
		defer f.Close()
		publisher = brokerout.NewPublisher(f)
	}

	clock := sysclock.New()
	provider := sim.New(1800, 300)
	var cal sim.Calibrator
	engine := &measurement.Engine{}
	pipe := acquisition.NewPipeline(provider, cal, engine, log)
	if err := provider.Start(); err != nil {
		return fmt.Errorf("start provider: %w", err)
	}
	defer provider.Close()

	detector := &state.ChangeDetector{}
	thresholds := state.DefaultThresholds()
	thresholds.HeartbeatMS = uint32(heartbeat.Milliseconds())

	report, err := newReportSink(csvPath, jsonPath, htmlPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := report.close(); err != nil {
			log.Warn("report finalize failed", "err", err)
		}
	}()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tVrms\tIrms\tP(W)\tFP\tE(kWh)\tOUTPUTS")
	tw.Flush()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- pipe.Run(func(m model.Measure) {
			now := clock.NowMS()
			vrms := int16(m.Vrms)
			fails := sup.Tick(now, vrms, float64(m.Irms))

			shared.UpdateMeasure(m)
			shared.UpdateOutputs(sup.Outputs())
			shared.UpdateFails(fails)

			snap := shared.Get()
			now2 := time.Now()
			fmt.Fprintf(tw, "%s\t%.2f\t%.3f\t%.2f\t%.3f\t%.4f\t%v\n",
				now2.Format("15:04:05"), m.Vrms, m.Irms, m.P, m.Fp, snap.ETotal, snap.Output)
			tw.Flush()

			report.add(row{
				At:      now2,
				Vrms:    float64(m.Vrms),
				Irms:    float64(m.Irms),
				P:       float64(m.P),
				S:       float64(m.S),
				Fp:      float64(m.Fp),
				ETotal:  snap.ETotal,
				Outputs: snap.Output,
				FailI:   fails.FailI,
				FailINR: fails.FailINR,
				FailV:   fails.FailV,
			})

			if alertSink != nil {
				if err := alertSink.Report(fails); err != nil {
					log.Warn("alert sink write failed", "err", err)
				}
			}
			if publisher != nil && detector.Update(now, snap, thresholds) {
				if err := publisher.Publish(brokerout.SnapshotFrom(now, snap)); err != nil {
					log.Warn("publish failed", "err", err)
				}
				detector.MarkSent(now, snap)
			}
		})
	}()

	select {
	case <-ctx.Done():
		log.Info("stopping")
		return nil
	case err := <-done:
		return err
	}
}

func newGPIOLoad(hardware bool, activeLow bool) (*gpioio.Simulated, error) {
	// Hardware GPIO requires a real periph.io host (gpioio.New), which this
	// command does not call; it always runs the in-memory simulation so
	// monitor works on any machine.
	if hardware {
		slog.Warn("--hardware requested but this build runs the in-memory relay simulation")
	}
	return &gpioio.Simulated{}, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the persisted system configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetIMaxCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the persisted configuration (or defaults, if none saved yet)",
		RunE: func(cmd *cobra.Command, args []string) error {
			kv := kvstore.New(storePath)
			cfg, ok, err := kv.LoadConfig()
			if err != nil {
				return err
			}
			if !ok {
				cfg = model.DefaultSysCfg()
				fmt.Println("(no stored config, showing defaults)")
			}
			fmt.Printf("imax: %.2fA\n", cfg.IMax)
			for i, l := range cfg.Load {
				fmt.Printf("load %d: vmin=%d vmax=%d autorec=%v priority=%d\n", i, l.VMin, l.VMax, l.AutoRec, l.Priority)
			}
			return nil
		},
	}
}

func newConfigSetIMaxCmd() *cobra.Command {
	var imax float64
	cmd := &cobra.Command{
		Use:   "set-imax",
		Short: "Set the overcurrent ceiling and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			kv := kvstore.New(storePath)
			cfg, ok, err := kv.LoadConfig()
			if err != nil {
				return err
			}
			if !ok {
				cfg = model.DefaultSysCfg()
			}
			cfg.IMax = imax
			return kv.SaveConfig(cfg)
		},
	}
	cmd.Flags().Float64Var(&imax, "amps", 5.0, "overcurrent ceiling in amps")
	return cmd
}

func newEnergyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "energy",
		Short: "Inspect or reset accumulated energy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted accumulated energy total",
		RunE: func(cmd *cobra.Command, args []string) error {
			kv := kvstore.New(storePath)
			kwh, ok, err := kv.LoadEnergy()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("0.000 kWh (never persisted)")
				return nil
			}
			fmt.Printf("%.3f kWh\n", kwh)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Zero the persisted accumulated energy total",
		RunE: func(cmd *cobra.Command, args []string) error {
			kv := kvstore.New(storePath)
			return kv.SaveEnergy(0)
		},
	})
	return cmd
}
