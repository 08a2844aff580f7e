// Package vcd dumps sampled signals as a Value Change Dump, the waveform
// format read by GTKWave and most HDL tools.
package vcd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/sim"
)

type probe struct {
	scope  string
	name   string
	width  int
	id     string
	sample func() uint64

	last  uint64
	valid bool
}

// Writer samples probes after every clock edge and writes the values that
// changed. Attach it to a clock domain with AcceptHook.
type Writer struct {
	out       *bufio.Writer
	timescale string
	probes    []*probe
	started   bool
	err       error
}

// NewWriter creates a writer. Timescale is the duration of one cycle, such
// as "10ns".
func NewWriter(w io.Writer, timescale string) *Writer {
	return &Writer{
		out:       bufio.NewWriter(w),
		timescale: timescale,
	}
}

// AddProbe registers a signal. Probes must be added before the first
// sample.
func (w *Writer) AddProbe(scope, name string, width int, sample func() uint64) {
	if w.started {
		log.Panic("cannot add a probe after sampling started")
	}

	if width < 1 || width > 64 {
		log.Panicf("probe %s.%s has width %d", scope, name, width)
	}

	w.probes = append(w.probes, &probe{
		scope:  scope,
		name:   name,
		width:  width,
		id:     identifier(len(w.probes)),
		sample: sample,
	})
}

// AddBoolProbe registers a one-bit signal.
func (w *Writer) AddBoolProbe(scope, name string, sample func() bool) {
	w.AddProbe(scope, name, 1, func() uint64 {
		if sample() {
			return 1
		}

		return 0
	})
}

// identifier turns an index into a short code of printable characters.
func identifier(i int) string {
	const first, n = '!', '~' - '!' + 1

	var sb strings.Builder

	for {
		sb.WriteByte(byte(first + i%n))
		i /= n

		if i == 0 {
			return sb.String()
		}

		i--
	}
}

// Func samples all probes when the domain finishes a cycle.
func (w *Writer) Func(ctx sim.HookCtx) {
	if ctx.Pos != rtl.HookPosCycle {
		return
	}

	w.Sample(ctx.Item.(uint64))
}

// Sample writes the probes that changed at the given time.
func (w *Writer) Sample(time uint64) {
	if w.err != nil {
		return
	}

	if !w.started {
		w.writeHeader()
		w.started = true
	}

	stamped := false

	for _, p := range w.probes {
		v := p.sample() & mask(p.width)
		if p.valid && v == p.last {
			continue
		}

		if !stamped {
			w.printf("#%d\n", time)
			stamped = true
		}

		w.writeValue(p, v)
		p.last = v
		p.valid = true
	}
}

func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return uint64(1)<<width - 1
}

func (w *Writer) writeHeader() {
	w.printf("$timescale %s $end\n", w.timescale)

	scope := ""
	for _, p := range w.probes {
		if p.scope != scope {
			if scope != "" {
				w.printf("$upscope $end\n")
			}

			w.printf("$scope module %s $end\n", p.scope)
			scope = p.scope
		}

		w.printf("$var wire %d %s %s $end\n", p.width, p.id, p.name)
	}

	if scope != "" {
		w.printf("$upscope $end\n")
	}

	w.printf("$enddefinitions $end\n")
}

func (w *Writer) writeValue(p *probe, v uint64) {
	if p.width == 1 {
		w.printf("%d%s\n", v, p.id)
		return
	}

	w.printf("b%s %s\n", strconv.FormatUint(v, 2), p.id)
}

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}

	_, w.err = fmt.Fprintf(w.out, format, args...)
}

// Flush writes out the buffered output and reports the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}

	return w.out.Flush()
}
