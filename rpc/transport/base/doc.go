// Package base implements the transport sequencing shared by all connector
// types. A connector contributes only the dial and the socket tuning; this
// package owns the phase machine, the framing and the error classification.
//
// Per call the state machine is
//
//	Idle -> Connecting -> Writing -> Reading -> Done
//
// terminal on the first failure. Every phase is bounded by its own
// deadline (connect timeout for the dial, I/O timeout armed separately for
// the write and the read), so no phase can block indefinitely. Connections
// are never shared or reused: concurrent callers are fully independent.
//
// Frame format on the wire:
//
//	Frame := LengthPrefix(4 bytes, big-endian, unsigned) || Body
//
// The declared length of an incoming frame is validated against the
// configured maximum before the body buffer is allocated.
package base
