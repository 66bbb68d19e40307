// Package cpu implements the MSP430 instruction engine, and its assembler.
//
// The engine executes one instruction per Step, charging each instruction
// its MSP430 cycle count on the event scheduler. It services interrupts
// from the interrupt controller, fast-forwards to the next event while the
// CPU is off, and updates the power supply after every step. When the
// supply dies, the Lifecycle collaborator decides how the node restarts.
//
// Calls to, and returns from, the checkpoint function are reported to the
// Validator. The oracle threshold forces a single checkpoint call per
// lifecycle when the supply voltage reaches it.
//
// The assembler is a single pass macro assembler for the MSP430 syntax,
// supporting labels, equates, macros, and compile-time $(...) expression
// evaluation. LoadHex loads Intel HEX images.
package cpu
