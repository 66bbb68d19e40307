// Package io provides the memory mapped peripherals of a WISP node: the
// flash controller, the ADC10 converter, the hardware multiplier and a
// console port.
package io
