package event

import (
	"slices"
)

// Event is a callback fired when its trigger is reached.
type Event struct {
	Name string              // Name, for diagnostics.
	Fire func(trigger int64) // Called with the trigger the event was scheduled for.

	trigger int64
	queue   *Queue
}

// NewEvent creates a named event.
func NewEvent(name string, fire func(trigger int64)) *Event {
	return &Event{Name: name, Fire: fire}
}

// Scheduled returns true if the event is in a queue.
func (ev *Event) Scheduled() bool {
	return ev.queue != nil
}

// Trigger returns the trigger of a scheduled event.
func (ev *Event) Trigger() int64 {
	return ev.trigger
}

// Queue is an ordered list of events. Equal triggers keep insertion order.
type Queue struct {
	Name   string
	events []*Event
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Insert adds an event, moving it if it is already queued.
func (q *Queue) Insert(ev *Event, trigger int64) {
	if ev.queue != nil {
		ev.queue.Remove(ev)
	}

	ev.trigger = trigger
	ev.queue = q

	// After any events with the same trigger.
	n, _ := slices.BinarySearchFunc(q.events, trigger, func(e *Event, t int64) int {
		if e.trigger <= t {
			return -1
		}
		return 1
	})
	q.events = slices.Insert(q.events, n, ev)
}

// Remove an event. Returns false if the event was not in this queue.
func (q *Queue) Remove(ev *Event) bool {
	if ev.queue != q {
		return false
	}
	n := slices.Index(q.events, ev)
	if n < 0 {
		return false
	}
	q.events = slices.Delete(q.events, n, n+1)
	ev.queue = nil
	return true
}

// Peek returns the earliest event, or nil.
func (q *Queue) Peek() *Event {
	if len(q.events) == 0 {
		return nil
	}
	return q.events[0]
}

// Pop removes and returns the earliest event, or nil.
func (q *Queue) Pop() (ev *Event) {
	ev = q.Peek()
	if ev != nil {
		q.events = q.events[1:]
		ev.queue = nil
	}
	return
}

// Clear removes all events.
func (q *Queue) Clear() {
	for _, ev := range q.events {
		ev.queue = nil
	}
	q.events = nil
}

// All returns the queued events in trigger order.
func (q *Queue) All() []*Event {
	return slices.Clone(q.events)
}
