// Package checkpoint tracks calls to the checkpoint function of an
// intermittent program, and validates each completed checkpoint.
package checkpoint
