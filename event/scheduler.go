package event

import (
	"math"

	"github.com/ezrec/wispsim/translate"
)

const (
	VTIME_HZ   = 4_915_200 // Virtual time ticks per second.
	DEFAULT_HZ = 1_000_000 // Default CPU clock.
)

// Scheduler owns the engine cycle counter and both event queues.
type Scheduler struct {
	Verbose bool // Set to enable verbose logging.

	Cycles int64 // Engine cycle counter.

	CycleQueue Queue // Events triggered by cycle count.
	TimeQueue  Queue // Events triggered by virtual time.

	hz         int64
	factor     float64 // Virtual time ticks per cycle.
	lastCycles int64
	lastVTime  int64
}

// NewScheduler creates a scheduler running at hz.
func NewScheduler(hz int64) (s *Scheduler) {
	s = &Scheduler{
		CycleQueue: Queue{Name: "cycle"},
		TimeQueue:  Queue{Name: "time"},
	}
	if hz <= 0 {
		hz = DEFAULT_HZ
	}
	s.hz = hz
	s.factor = float64(VTIME_HZ) / float64(hz)
	return
}

// Frequency returns the CPU clock frequency.
func (s *Scheduler) Frequency() int64 {
	return s.hz
}

// SetFrequency changes the CPU clock, rebasing virtual time first so that
// elapsed time is not rescaled.
func (s *Scheduler) SetFrequency(hz int64) (err error) {
	if hz <= 0 {
		err = ErrFrequency
		return
	}
	s.lastVTime = s.Time()
	s.lastCycles = s.Cycles
	s.hz = hz
	s.factor = float64(VTIME_HZ) / float64(hz)
	return
}

// Time returns the current virtual time.
func (s *Scheduler) Time() int64 {
	return s.lastVTime + int64(float64(s.Cycles-s.lastCycles)*s.factor)
}

// Millis returns the current virtual time in milliseconds.
func (s *Scheduler) Millis() float64 {
	return 1000.0 * float64(s.Time()) / VTIME_HZ
}

// TimeToCycles converts a virtual time to the first cycle at or after it.
func (s *Scheduler) TimeToCycles(vtime int64) int64 {
	return s.lastCycles + int64(math.Ceil(float64(vtime-s.lastVTime)/s.factor))
}

// Advance the cycle counter.
func (s *Scheduler) Advance(cycles int64) {
	s.Cycles += cycles
}

// ScheduleCycle schedules ev to fire when the cycle counter reaches cycle.
func (s *Scheduler) ScheduleCycle(ev *Event, cycle int64) (err error) {
	if cycle < s.Cycles {
		err = &ErrPast{Queue: s.CycleQueue.Name, Event: ev.Name, Trigger: cycle, Now: s.Cycles}
		return
	}
	if s.Verbose {
		translate.Logf("event: %v at cycle %d", ev.Name, cycle)
	}
	s.CycleQueue.Insert(ev, cycle)
	return
}

// ScheduleTime schedules ev to fire at virtual time vtime. The past is
// judged in virtual time, as a cycle may span several time ticks.
func (s *Scheduler) ScheduleTime(ev *Event, vtime int64) (err error) {
	now := s.Time()
	if vtime < now {
		err = &ErrPast{Queue: s.TimeQueue.Name, Event: ev.Name, Trigger: vtime, Now: now}
		return
	}
	cycle := max(s.TimeToCycles(vtime), s.Cycles)
	if s.Verbose {
		translate.Logf("event: %v at time %d (cycle %d)", ev.Name, vtime, cycle)
	}
	s.TimeQueue.Insert(ev, vtime)
	return
}

// ScheduleMillis schedules ev to fire ms milliseconds from now.
func (s *Scheduler) ScheduleMillis(ev *Event, ms float64) (err error) {
	return s.ScheduleTime(ev, s.Time()+int64(ms*VTIME_HZ/1000.0))
}

// Remove an event from whichever queue holds it.
func (s *Scheduler) Remove(ev *Event) bool {
	return s.CycleQueue.Remove(ev) || s.TimeQueue.Remove(ev)
}

// next returns the queue holding the earliest event, and its trigger cycle.
// On equal cycles the time queue goes first.
func (s *Scheduler) next() (q *Queue, cycle int64) {
	if ev := s.TimeQueue.Peek(); ev != nil {
		q = &s.TimeQueue
		cycle = s.TimeToCycles(ev.trigger)
	}
	if ev := s.CycleQueue.Peek(); ev != nil {
		if q == nil || ev.trigger < cycle {
			q = &s.CycleQueue
			cycle = ev.trigger
		}
	}
	return
}

// NextWakeup returns the cycle of the earliest queued event.
func (s *Scheduler) NextWakeup() (cycle int64, ok bool) {
	q, cycle := s.next()
	ok = q != nil
	return
}

// Drain fires every due event in trigger order. Events scheduled by a firing
// event are fired too if they are already due.
func (s *Scheduler) Drain() (fired int) {
	for {
		q, cycle := s.next()
		if q == nil || cycle > s.Cycles {
			return
		}
		ev := q.Pop()
		if s.Verbose {
			translate.Logf("event: fire %v (%v %d) at cycle %d", ev.Name, q.Name, ev.trigger, s.Cycles)
		}
		fired++
		if ev.Fire != nil {
			ev.Fire(ev.trigger)
		}
	}
}

// Clear discards every pending event.
func (s *Scheduler) Clear() {
	s.CycleQueue.Clear()
	s.TimeQueue.Clear()
}

// ResetTimeBase zeros the cycle counter and virtual time.
func (s *Scheduler) ResetTimeBase() {
	s.Cycles = 0
	s.lastCycles = 0
	s.lastVTime = 0
}
