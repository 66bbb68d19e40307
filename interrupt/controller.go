package interrupt

import (
	"github.com/ezrec/wispsim/translate"
)

const (
	MAX_VECTORS = 64     // Size of the priority table.
	VECTOR_TOP  = 0xfffe // Address of the reset vector.
	NONE        = -1     // No priority.
)

// Handler is the owner of an interrupt source.
type Handler interface {
	// InterruptServiced is called when the CPU enters the handler for
	// the source's vector.
	InterruptServiced(vector int)
}

// nobody owns sources flagged without a handler.
type nobody struct{}

func (nobody) InterruptServiced(vector int) {}

// Controller is the interrupt controller.
type Controller struct {
	Verbose bool // Set to enable verbose logging.

	Max int // Reset priority.

	sources  [MAX_VECTORS]Handler
	pending  int
	serviced int
}

// NewController creates a controller with max as the reset priority.
func NewController(max int) (ic *Controller) {
	if max <= 0 || max >= MAX_VECTORS {
		max = MAX_VECTORS - 1
	}
	ic = &Controller{Max: max}
	ic.Reset()
	return
}

// Reset clears every source, and any interrupt in service.
func (ic *Controller) Reset() {
	clear(ic.sources[:])
	ic.pending = NONE
	ic.serviced = NONE
}

// rescan recomputes the highest pending priority.
func (ic *Controller) rescan() {
	ic.pending = NONE
	for prio := ic.Max; prio >= 0; prio-- {
		if ic.sources[prio] != nil {
			ic.pending = prio
			return
		}
	}
}

// Flag raises or lowers the source at a priority. Lowering only clears the
// slot if source is its current owner. Returns true if prio is the
// non-maskable reset priority.
func (ic *Controller) Flag(prio int, source Handler, on bool) (nonMaskable bool) {
	if prio < 0 || prio > ic.Max {
		translate.Logf("interrupt: priority %d out of range", prio)
		return
	}

	if ic.Verbose {
		translate.Logf("interrupt: flag %d = %v", prio, on)
	}

	if source == nil {
		source = nobody{}
	}

	if on {
		ic.sources[prio] = source
		if prio > ic.pending {
			ic.pending = prio
		}
	} else if ic.sources[prio] == source {
		ic.sources[prio] = nil
		ic.rescan()
	}

	nonMaskable = prio == ic.Max
	return
}

// Pending returns the highest pending priority, or NONE.
func (ic *Controller) Pending() int {
	return ic.pending
}

// Servicing returns true between Service and Return.
func (ic *Controller) Servicing() bool {
	return ic.serviced != NONE
}

// Serviced returns the priority in service, or NONE.
func (ic *Controller) Serviced() int {
	return ic.serviced
}

// NonMaskable returns true if prio is the reset priority.
func (ic *Controller) NonMaskable(prio int) bool {
	return prio == ic.Max
}

// Service takes the highest pending source out of contention and marks its
// priority as in service. The source is notified.
func (ic *Controller) Service() (prio int, source Handler) {
	prio = ic.pending
	if prio == NONE {
		return
	}

	source = ic.sources[prio]
	ic.sources[prio] = nil
	ic.serviced = prio
	ic.rescan()

	if ic.Verbose {
		translate.Logf("interrupt: service %d, vector $%04x", prio, ic.Vector(prio))
	}

	if source != nil {
		source.InterruptServiced(prio)
	}
	return
}

// Return ends the interrupt in service (RETI).
func (ic *Controller) Return() {
	ic.serviced = NONE
	ic.rescan()
}

// Vector returns the address of the vector table entry for prio.
func (ic *Controller) Vector(prio int) uint32 {
	return uint32(VECTOR_TOP - (ic.Max-prio)*2)
}
