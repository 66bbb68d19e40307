package power

import (
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/wispsim/translate"
)

// Trace is a harvested energy source, sampled once per capacitor update.
type Trace interface {
	// VoltageAt returns the applied voltage at time ms.
	VoltageAt(ms float64) float64
}

// FuncTrace adapts a function to a Trace.
type FuncTrace func(ms float64) float64

func (ft FuncTrace) VoltageAt(ms float64) float64 {
	return ft(ms)
}

// CsvTrace is a piecewise linear trace of (milliseconds, volts) records.
type CsvTrace struct {
	Times    []float64 // Sample times, increasing.
	Volts    []float64 // Sample voltages.
	Periodic bool      // Repeat the trace after the last sample.
}

// LoadCsvTrace reads a trace of "ms,volts" records. Lines starting with
// '#' and a non-numeric header line are ignored.
func LoadCsvTrace(input io.Reader) (trace *CsvTrace, err error) {
	reader := csv.NewReader(input)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	trace = &CsvTrace{}
	for line := 1; ; line++ {
		var record []string
		record, err = reader.Read()
		if errors.Is(err, io.EOF) {
			err = nil
			break
		}
		if err != nil {
			return
		}

		var ms, volts float64
		ms, err = strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err == nil {
			volts, err = strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		}
		if err != nil {
			if line == 1 {
				// Header
				err = nil
				continue
			}
			err = &ErrTraceLine{Line: line, Err: err}
			return
		}

		if len(trace.Times) > 0 && ms <= trace.Times[len(trace.Times)-1] {
			err = &ErrTraceLine{Line: line, Err: ErrTraceOrder}
			return
		}

		trace.Times = append(trace.Times, ms)
		trace.Volts = append(trace.Volts, volts)
	}

	if len(trace.Times) == 0 {
		err = ErrTraceEmpty
	}

	return
}

// VoltageAt interpolates between the surrounding samples.
func (ct *CsvTrace) VoltageAt(ms float64) float64 {
	count := len(ct.Times)
	if count == 0 {
		return 0
	}

	first, last := ct.Times[0], ct.Times[count-1]
	if ct.Periodic && last > first && ms > last {
		span := last - first
		ms = first + (ms-first) - span*float64(int64((ms-first)/span))
	}

	if ms <= first {
		return ct.Volts[0]
	}
	if ms >= last {
		return ct.Volts[count-1]
	}

	n, found := slices.BinarySearch(ct.Times, ms)
	if found {
		return ct.Volts[n]
	}

	t0, t1 := ct.Times[n-1], ct.Times[n]
	v0, v1 := ct.Volts[n-1], ct.Volts[n]
	return v0 + (v1-v0)*(ms-t0)/(t1-t0)
}

// ScriptTrace is a trace computed by a starlark function:
//
//	def voltage(t):
//	    return 3.0 + math.sin(t / 100.0)
//
// The math module is predeclared.
type ScriptTrace struct {
	Err error // First evaluation error, if any.

	thread *starlark.Thread
	fn     starlark.Callable
}

// NewScriptTrace compiles a trace script.
func NewScriptTrace(filename string, src any) (trace *ScriptTrace, err error) {
	thread := &starlark.Thread{Name: "trace"}
	predeclared := starlark.StringDict{
		"math": math.Module,
	}

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, predeclared)
	if err != nil {
		return
	}

	fn, ok := globals["voltage"].(starlark.Callable)
	if !ok {
		err = ErrTraceFunction
		return
	}

	trace = &ScriptTrace{
		thread: thread,
		fn:     fn,
	}
	return
}

// VoltageAt calls voltage(t). Evaluation errors yield 0 V, and are kept in
// Err.
func (st *ScriptTrace) VoltageAt(ms float64) (volts float64) {
	value, err := starlark.Call(st.thread, st.fn, starlark.Tuple{starlark.Float(ms)}, nil)
	if err == nil {
		var ok bool
		volts, ok = starlark.AsFloat(value)
		if !ok {
			err = ErrTraceValue
		}
	}

	if err != nil {
		if st.Err == nil {
			translate.Logf("power: trace script: %v", err)
			st.Err = err
		}
		volts = 0
	}

	return
}
