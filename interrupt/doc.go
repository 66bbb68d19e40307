// Package interrupt tracks pending interrupt sources by priority.
//
// Priority 0 is the lowest. The highest priority, Max, is the reset vector
// and cannot be masked.
package interrupt
