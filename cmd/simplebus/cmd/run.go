package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/datarecording"
	"github.com/sarchlab/simplebus/monitoring"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/system"
	"github.com/sarchlab/simplebus/tracing"
	"github.com/sarchlab/simplebus/vcd"
	"github.com/sarchlab/simplebus/wishbone"
)

// runOptions are the settings of a run that do not describe the bridge
// itself.
type runOptions struct {
	count    int
	seed     int64
	span     uint64
	readFrac float64

	sqlite string
	vcd    string

	engine    bool
	freqMHz   float64
	uniqueIDs bool

	monitor     bool
	port        int
	openBrowser bool

	logCycles bool
	logEvents bool
}

// report summarizes a finished run.
type report struct {
	Transactions int
	Reads        int
	Writes       int
	Cycles       uint64
	AvgCycles    float64
	MaxCycles    uint64
	Bytes        int
	ParityFails  int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run random read and write traffic through a bridge.",
	Long: `Run builds a bridge from the flags, sends --count random ` +
		`transactions through it and checks every read against what was ` +
		`written before. It can record the transactions and the bus bytes ` +
		`into SQLite, dump the pins into a VCD file and serve the ` +
		`simulation to a browser.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		spec, err := specFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		opts, err := runOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		r, err := newRunner(spec, opts)
		if err != nil {
			return err
		}
		defer r.close()

		rep, err := r.run()
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), rep)

		return nil
	},
}

func init() {
	addBridgeFlags(runCmd.Flags())

	runCmd.Flags().Int("count", 1000, "Number of transactions to run.")
	runCmd.Flags().Int64("seed", 0, "Seed of the random traffic.")
	runCmd.Flags().Uint64("span", 4096,
		"Size in bytes of the memory window the traffic touches.")
	runCmd.Flags().Float64("read-fraction", 0.5,
		"Share of the transactions that are reads.")
	runCmd.Flags().String("sqlite", "",
		"Record transactions and bus bytes into this database "+
			"(\".sqlite3\" is appended).")
	runCmd.Flags().String("vcd", "", "Write a waveform of the pins to this file.")
	runCmd.Flags().Bool("engine", false,
		"Drive the bridge from the event engine instead of stepping it.")
	runCmd.Flags().Bool("unique-ids", false,
		"Give transactions globally unique IDs instead of counting up.")
	runCmd.Flags().Float64("freq", 100, "System clock frequency in MHz.")
	runCmd.Flags().Bool("monitor", false,
		"Serve the simulation over HTTP; implies --engine.")
	runCmd.Flags().Int("port", 0, "Port of the monitor, 0 picks one.")
	runCmd.Flags().Bool("open-browser", false,
		"Open the monitor in the default browser.")
	runCmd.Flags().Bool("log-cycles", false,
		"Log the state of every block after every cycle to stderr.")
	runCmd.Flags().Bool("log-events", false,
		"Log every engine event to stderr; implies --engine.")

	rootCmd.AddCommand(runCmd)
}

func runOptionsFromFlags(cmd *cobra.Command) (runOptions, error) {
	f := cmd.Flags()

	var opts runOptions

	opts.count, _ = f.GetInt("count")
	opts.seed, _ = f.GetInt64("seed")
	opts.span, _ = f.GetUint64("span")
	opts.readFrac, _ = f.GetFloat64("read-fraction")
	opts.sqlite, _ = f.GetString("sqlite")
	opts.vcd, _ = f.GetString("vcd")
	opts.engine, _ = f.GetBool("engine")
	opts.uniqueIDs, _ = f.GetBool("unique-ids")
	opts.freqMHz, _ = f.GetFloat64("freq")
	opts.monitor, _ = f.GetBool("monitor")
	opts.port, _ = f.GetInt("port")
	opts.openBrowser, _ = f.GetBool("open-browser")
	opts.logCycles, _ = f.GetBool("log-cycles")
	opts.logEvents, _ = f.GetBool("log-events")

	if opts.monitor || opts.logEvents {
		opts.engine = true
	}

	switch {
	case opts.count < 0:
		return opts, fmt.Errorf("count must not be negative, got %d",
			opts.count)
	case opts.readFrac < 0 || opts.readFrac > 1:
		return opts, fmt.Errorf("read fraction must be in [0, 1], got %g",
			opts.readFrac)
	case opts.engine && opts.freqMHz <= 0:
		return opts, fmt.Errorf("frequency must be positive, got %g",
			opts.freqMHz)
	}

	return opts, nil
}

// runner owns a bridge and everything that watches it during a run.
type runner struct {
	opts    runOptions
	sys     *system.System
	traffic *system.Traffic

	engine sim.Engine
	clock  *rtl.Clock

	avg       *tracing.AverageTimeTracer
	byteTrace *tracing.ByteTracer
	runInfo   *datarecording.RunRecorder
	recorder  datarecording.DataRecorder
	monitor   *monitoring.Monitor

	vcdFile   *os.File
	vcdWriter *vcd.Writer
}

func newRunner(spec system.Spec, opts runOptions) (*runner, error) {
	if opts.uniqueIDs {
		sim.UseUniqueIDGenerator()
	}

	r := &runner{
		opts: opts,
		sys:  system.MakeBuilder().WithSpec(spec).Build("Bridge"),
	}

	r.traffic = system.NewTraffic(opts.seed, spec.Geometry(), opts.span,
		opts.readFrac)

	r.avg = tracing.NewAverageTimeTracer(r.sys.Domain, nil)
	tracing.CollectTransactions(r.sys.Host, r.avg)

	if opts.engine {
		r.setupEngine()
	}

	if opts.logCycles {
		r.sys.Domain.AcceptHook(
			rtl.NewCycleLogger(log.New(os.Stderr, "", 0), r.sys.Domain))
	}

	if err := r.setupRecording(); err != nil {
		r.close()
		return nil, err
	}

	if err := r.setupVCD(); err != nil {
		r.close()
		return nil, err
	}

	if err := r.setupMonitor(); err != nil {
		r.close()
		return nil, err
	}

	registerCloser(r)

	return r, nil
}

func (r *runner) setupEngine() {
	r.engine = sim.NewSerialEngine()

	if r.opts.logEvents {
		r.engine.AcceptHook(sim.NewEventLogger(log.New(os.Stderr, "", 0)))
	}

	r.clock = r.sys.NewClock(r.engine, sim.Freq(r.opts.freqMHz)*sim.MHz)
}

func (r *runner) setupRecording() error {
	if r.opts.sqlite == "" {
		return nil
	}

	rec, err := datarecording.New(r.opts.sqlite)
	if err != nil {
		return err
	}

	r.recorder = rec

	r.runInfo, err = datarecording.NewRunRecorder(rec)
	if err != nil {
		return err
	}

	r.runInfo.Start()
	r.recordSpec()

	db, err := tracing.NewDBTracer(rec, r.sys.Domain)
	if err != nil {
		return err
	}

	tracing.CollectTransactions(r.sys.Host, db)
	tracing.CollectTransactions(r.sys.Peripheral, db)

	r.byteTrace, err = tracing.NewByteTracer(rec, r.sys.Bus, r.sys.Host,
		r.sys.Host.Spec().ParityMode, r.sys.Peripheral.Spec().ParityMode)
	if err != nil {
		return err
	}

	r.sys.Domain.AcceptHook(r.byteTrace)

	return nil
}

func (r *runner) recordSpec() {
	spec := r.sys.Spec()

	r.runInfo.Set("Divisor", strconv.Itoa(int(spec.Divisor)))
	r.runInfo.Set("Address Width", strconv.Itoa(spec.AddrWidth))
	r.runInfo.Set("Data Width", strconv.Itoa(spec.DataWidth))
	r.runInfo.Set("Parity", spec.ParityMode.String())
	r.runInfo.Set("Read Select", strconv.FormatBool(spec.ReadSel))
	r.runInfo.Set("Strobe", spec.Strobe.String())
	r.runInfo.Set("Memory Latency", strconv.Itoa(spec.MemLatency))
	r.runInfo.Set("Seed", strconv.FormatInt(r.opts.seed, 10))
	r.runInfo.Set("Count", strconv.Itoa(r.opts.count))
}

func (r *runner) setupVCD() error {
	if r.opts.vcd == "" {
		return nil
	}

	f, err := os.Create(r.opts.vcd)
	if err != nil {
		return fmt.Errorf("creating waveform file: %w", err)
	}

	r.vcdFile = f
	r.vcdWriter = vcd.NewWriter(f, "1ns")
	r.sys.AddProbes(r.vcdWriter)
	r.sys.Domain.AcceptHook(r.vcdWriter)

	return nil
}

func (r *runner) setupMonitor() error {
	if !r.opts.monitor {
		return nil
	}

	m := monitoring.NewMonitor().
		WithPortNumber(r.opts.port).
		WithBrowser(r.opts.openBrowser)

	m.RegisterEngine(r.engine)
	m.RegisterClock(r.sys.Domain)
	m.RegisterRegisters(r.sys.Host.CSR(), csr.NumRegs)
	m.RegisterComponent(r.sys.Master)
	m.RegisterComponent(r.sys.Host)
	m.RegisterComponent(r.sys.Bus)
	m.RegisterComponent(r.sys.Peripheral)
	m.RegisterComponent(r.sys.RAM)

	if _, err := m.StartServer(); err != nil {
		return err
	}

	r.monitor = m

	return nil
}

// run sends the traffic in batches that fit into the queue of the master and
// checks every batch once it has drained.
func (r *runner) run() (report, error) {
	var bar *monitoring.ProgressBar
	if r.monitor != nil {
		bar = r.monitor.CreateProgressBar("Transactions", uint64(r.opts.count))
		defer r.monitor.CompleteProgressBar(bar)
	}

	remaining := r.opts.count
	batch := make([]*wishbone.Transaction, 0, r.sys.Spec().QueueSize)

	for remaining > 0 {
		batch = batch[:0]

		for remaining > 0 {
			t := r.traffic.Next()
			if !r.sys.Submit(t) {
				log.Panicf("master queue is full after %d transactions",
					len(batch))
			}

			batch = append(batch, t)
			remaining--

			if len(batch) == cap(batch) {
				break
			}
		}

		if bar != nil {
			bar.IncrementInProgress(uint64(len(batch)))
		}

		if err := r.drain(); err != nil {
			return report{}, err
		}

		for _, t := range batch {
			if err := r.traffic.Check(t); err != nil {
				return report{}, err
			}
		}

		if bar != nil {
			bar.MoveInProgressToFinished(uint64(len(batch)))
		}
	}

	if r.engine != nil {
		r.engine.Finished()
	}

	return r.report(), r.finish()
}

func (r *runner) drain() error {
	if r.engine == nil {
		return r.sys.Drain()
	}

	r.clock.TickLater()

	if err := r.engine.Run(); err != nil {
		return err
	}

	if r.sys.Busy() {
		return fmt.Errorf("engine stopped with transactions in flight")
	}

	return nil
}

func (r *runner) report() report {
	rep := report{
		Transactions: r.opts.count,
		Reads:        r.traffic.NumReads(),
		Writes:       r.traffic.NumWrites(),
		Cycles:       r.sys.Domain.Cycle(),
		AvgCycles:    r.avg.AverageCycles(),
		MaxCycles:    r.avg.MaxCycles(),
	}

	if r.byteTrace != nil {
		rep.Bytes = r.byteTrace.NumBytes()
		rep.ParityFails = r.byteTrace.NumParityFails()
	}

	return rep
}

// finish writes out what the run collected.
func (r *runner) finish() error {
	if r.runInfo != nil {
		r.runInfo.Set("Cycles", strconv.FormatUint(r.sys.Domain.Cycle(), 10))

		if err := r.runInfo.End(); err != nil {
			return err
		}
	}

	if r.vcdWriter != nil {
		if err := r.vcdWriter.Flush(); err != nil {
			return fmt.Errorf("writing waveform: %w", err)
		}
	}

	return nil
}

func (r *runner) close() {
	if r.vcdFile != nil {
		r.vcdFile.Close()
		r.vcdFile = nil
	}

	if r.recorder != nil {
		if err := r.recorder.Close(); err != nil {
			log.Printf("closing recorder: %v", err)
		}

		r.recorder = nil
	}
}

func printReport(w io.Writer, rep report) {
	fmt.Fprintf(w, "transactions: %d (%d reads, %d writes)\n",
		rep.Transactions, rep.Reads, rep.Writes)
	fmt.Fprintf(w, "cycles: %d\n", rep.Cycles)
	fmt.Fprintf(w, "latency: %.2f cycles on average, %d at most\n",
		rep.AvgCycles, rep.MaxCycles)

	if rep.Bytes > 0 {
		fmt.Fprintf(w, "bus bytes: %d, parity failures: %d\n",
			rep.Bytes, rep.ParityFails)
	}
}

// registerCloser closes the output files of the runner when the program
// leaves through atexit. Closing twice is harmless.
func registerCloser(r *runner) {
	atexit.Register(r.close)
}
