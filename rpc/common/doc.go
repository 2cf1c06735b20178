// Package common provides core data structures and utilities shared across
// the wirecall client library. It defines fundamental types, configuration
// structures, and protocol elements used by the other packages.
//
// The package focuses on:
//   - The tagged Value union and the ordered-map Envelope exchanged per call
//   - The closed error taxonomy the failover policy branches on
//   - Configuration structures and an environment-based loader
//   - Process identity stamped into outgoing envelope heads
//   - Custom logging integrated with the dragonboat logging facade
//
// Key Components:
//
//   - Value: Tagged union over everything an envelope entry can carry
//     (null, bool, int64, float64, decimal, string, bytes, timestamp,
//     nested map, homogeneous array). The tag byte is part of the wire
//     format; FromAny converts Go runtime values and rejects unsupported
//     types instead of coercing them.
//
//   - Map / Envelope: Insertion-ordered string-keyed mappings; an Envelope
//     is the (head, data) pair exchanged in one call. Head carries
//     identity, routing and outcome fields as plain entries.
//
//   - Error / ErrKind: Classified failures (validation, connect, io
//     timeout, protocol, serialization). Only connect-phase failures are
//     failover-eligible.
//
//   - ClientConfig: Per-call timeouts, frame limits and socket tuning,
//     with an optional viper/godotenv environment loader.
//
//   - Identity: Local process identity (name, pid, ip, hostname) cached
//     after first computation.
package common
