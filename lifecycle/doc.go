// Package lifecycle handles the death of an intermittently powered node:
// convalescence of the supply, the internal reset, retries of a lifecycle
// requested by the node, and the statistics of the whole run.
package lifecycle
