// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package lifecycle

import (
	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/power"
	"github.com/ezrec/wispsim/translate"
)

// State of the lifecycle state machine.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_STOPPED    = State(iota) // stopped
	STATE_RUNNING                  // running
	STATE_DYING                    // dying
	STATE_RECOVERING               // recovering
	STATE_RETRYING                 // retrying
)

// RetryRequest asks for the lifecycle that just died to be replayed.
type RetryRequest struct {
	ThresholdDelta float64 // Added to the oracle threshold.
	Restore        []byte  // Memory to restore; nil for the last captured snapshot.
}

// Node is told about deaths, and keeps the memory snapshot of the start
// of each lifecycle.
type Node interface {
	// ReportDeath is called on every power failure. A non-nil request
	// replays the lifecycle.
	ReportDeath() *RetryRequest
	// CaptureMemory records memory at the start of a fresh lifecycle.
	CaptureMemory()
	// LastMemorySnapshot returns the last captured memory.
	LastMemorySnapshot() []byte
}

// Manager restarts the node after each power failure.
type Manager struct {
	Verbose bool // Set to enable verbose logging.

	Cpu  *cpu.Cpu // Engine, with its bus, scheduler and supply.
	Node Node     // Optional node collaborator.

	state State
	stats SimulationStats
}

var _ cpu.Lifecycle = (*Manager)(nil)

// NewManager creates a manager, and installs it as the lifecycle handler
// of the engine.
func NewManager(core *cpu.Cpu, node Node) (m *Manager) {
	m = &Manager{
		Cpu:  core,
		Node: node,
	}
	core.Lifecycle = m
	return
}

// State returns the present state.
func (m *Manager) State() State {
	return m.state
}

// Stats returns the statistics so far.
func (m *Manager) Stats() SimulationStats {
	return m.stats
}

// Report summarizes the run so far.
func (m *Manager) Report() Report {
	return m.stats.Report(m.Cpu.Cycles())
}

// Start the first lifecycle, from a fresh supply.
func (m *Manager) Start() {
	m.stats = SimulationStats{Lifecycles: 1}

	core := m.Cpu
	if core.Supply != nil {
		core.Supply.Reset()
	}
	core.Events.ResetTimeBase()
	if core.Supply != nil {
		core.Supply.Rebase()
	}
	core.Reset()

	if m.Node != nil {
		m.Node.CaptureMemory()
	}

	m.state = STATE_RUNNING
}

// Die handles a power failure: the node is told, the supply recovers, and
// the engine restarts at the reset vector, either replaying the lifecycle
// or starting a fresh one.
func (m *Manager) Die() (err error) {
	switch m.state {
	case STATE_STOPPED:
		err = ErrNotStarted
		return
	case STATE_RUNNING:
	default:
		err = ErrReentrantDie
		return
	}

	core := m.Cpu
	m.state = STATE_DYING

	cycles := core.Cycles()
	wasted := core.WastedCycles()
	m.stats.Deaths++

	var retry *RetryRequest
	if m.Node != nil {
		retry = m.Node.ReportDeath()
	}

	var restore []byte
	if retry != nil {
		m.state = STATE_RETRYING
		m.stats.Retries++
		core.OracleThreshold += retry.ThresholdDelta
		restore = retry.Restore
		if restore == nil {
			restore = m.Node.LastMemorySnapshot()
		}
		if restore == nil {
			err = ErrNoSnapshot
			return
		}
	} else {
		m.state = STATE_RECOVERING
	}

	if m.Verbose {
		translate.Logf("lifecycle: death %d at cycle %d (%d wasted), %v", m.stats.Deaths, cycles, wasted, m.state)
	}

	ms, err := m.recover(core.Supply)
	if err != nil {
		return
	}

	core.Events.ResetTimeBase()
	if core.Supply != nil {
		core.Supply.Rebase()
	}
	core.Reset()

	if retry != nil {
		err = core.Bus.Restore(restore)
		if err != nil {
			return
		}
	} else {
		if m.Node != nil {
			m.Node.CaptureMemory()
		}
		m.stats.Lifecycles++
		m.stats.TotalCycles += cycles
		m.stats.WastedCycles += wasted
	}
	m.stats.ConvalescenceMillis += ms

	if m.Verbose {
		translate.Logf("lifecycle: lifecycle %d after %.3f ms, oracle=%.4f V", m.stats.Lifecycles, ms, core.OracleThreshold)
	}

	m.state = STATE_RUNNING
	return
}

// recover brings the supply back to life. A trace driven supply charges
// on the dead clock; any other is reset.
func (m *Manager) recover(supply power.Supply) (ms float64, err error) {
	if supply == nil {
		return
	}

	if !supply.TraceDriven() {
		supply.Reset()
		return
	}

	return supply.Recover()
}
