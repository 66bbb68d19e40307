package emulator

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ezrec/wispsim/cpu"
	"github.com/ezrec/wispsim/internal"
)

// PROFILE_DEPTH bounds the profiler call stack.
const PROFILE_DEPTH = 256

// CallStat is the profile of one function, or interrupt handler.
type CallStat struct {
	Address uint32
	Name    string
	Calls   int
	Cycles  int64 // Inclusive cycles, over completed calls.
}

type profileFrame struct {
	stat  *CallStat
	start int64
}

// Profile counts calls, and the cycles spent in them.
type Profile struct {
	Symbols    map[uint32]string
	Functions  map[uint32]*CallStat
	Interrupts map[int]*CallStat
	Lost       int // Frames dropped by a reset or a full stack.

	stack []profileFrame
}

var _ cpu.Profiler = (*Profile)(nil)

func NewProfile() *Profile {
	return &Profile{
		Symbols:    map[uint32]string{},
		Functions:  map[uint32]*CallStat{},
		Interrupts: map[int]*CallStat{},
	}
}

// Name the functions from the program labels.
func (p *Profile) Name(prog *cpu.Program) {
	for name, address := range prog.Symbols {
		// Keep the shortest label of an address.
		if old, ok := p.Symbols[address]; !ok || len(name) < len(old) || (len(name) == len(old) && name < old) {
			p.Symbols[address] = name
		}
	}
}

func (p *Profile) push(stat *CallStat, cycles int64) {
	stat.Calls++
	if len(p.stack) >= PROFILE_DEPTH {
		p.Lost++
		return
	}
	p.stack = append(p.stack, profileFrame{stat: stat, start: cycles})
}

func (p *Profile) ProfileCall(address uint32, cycles int64, from uint32) {
	stat, ok := p.Functions[address]
	if !ok {
		name, ok := p.Symbols[address]
		if !ok {
			name = fmt.Sprintf("$%04x", address)
		}
		stat = &CallStat{Address: address, Name: name}
		p.Functions[address] = stat
	}
	p.push(stat, cycles)
}

func (p *Profile) ProfileInterrupt(priority int, cycles int64) {
	stat, ok := p.Interrupts[priority]
	if !ok {
		stat = &CallStat{Name: fmt.Sprintf("irq%d", priority)}
		p.Interrupts[priority] = stat
	}
	p.push(stat, cycles)
}

func (p *Profile) ProfileReturn(cycles int64) {
	if len(p.stack) == 0 {
		return
	}
	frame := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	frame.stat.Cycles += cycles - frame.start
}

// Unwind drops the open frames, after the node restarts.
func (p *Profile) Unwind() {
	p.Lost += len(p.stack)
	p.stack = p.stack[:0]
}

// Top returns up to n profiles, by descending cycles.
func (p *Profile) Top(n int) (stats []CallStat) {
	for _, stat := range p.Functions {
		stats = append(stats, *stat)
	}
	for _, stat := range internal.SortedMap(p.Interrupts) {
		stats = append(stats, *stat)
	}

	slices.SortStableFunc(stats, func(a, b CallStat) int {
		if c := cmp.Compare(b.Cycles, a.Cycles); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return
}
