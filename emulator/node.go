package emulator

import (
	"github.com/ezrec/wispsim/lifecycle"
	"github.com/ezrec/wispsim/memory"
	"github.com/ezrec/wispsim/translate"
)

// Node is a WISP node. Memory is captured at the start of each lifecycle,
// and a lifecycle that dies is replayed up to MaxRetries times, moving the
// oracle threshold by RetryAdjustment each time.
type Node struct {
	Verbose bool // Set to enable verbose logging.

	Bus             *memory.Bus
	MaxRetries      int
	RetryAdjustment float64

	Snapshots int // Memory captures.

	retries  int
	snapshot []byte
}

var _ lifecycle.Node = (*Node)(nil)

// ReportDeath asks for a replay while this lifecycle has retries left.
func (n *Node) ReportDeath() (retry *lifecycle.RetryRequest) {
	if n.retries >= n.MaxRetries {
		n.retries = 0
		return
	}

	n.retries++
	if n.Verbose {
		translate.Logf("node: retry %d of %d", n.retries, n.MaxRetries)
	}

	retry = &lifecycle.RetryRequest{ThresholdDelta: n.RetryAdjustment}
	return
}

func (n *Node) CaptureMemory() {
	n.snapshot = n.Bus.Snapshot()
	n.retries = 0
	n.Snapshots++
}

func (n *Node) LastMemorySnapshot() []byte {
	return n.snapshot
}

// Reset forgets the snapshot and the retry count.
func (n *Node) Reset() {
	n.snapshot = nil
	n.retries = 0
	n.Snapshots = 0
}
