// Package rpc is the root of the wirecall client library: a compact RPC
// transport for internal service-to-service calls over trusted networks.
// Every call ships one (head, data) envelope to a peer and brings one
// envelope back over a fresh, short-lived connection.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the library, including the
//     tagged Value model, the ordered envelope map, classified errors,
//     configuration and logging.
//
//   - serializer: Envelope serialization with pluggable format
//     implementations (compact length-framed binary on the wire, JSON for
//     debugging and interop).
//
//   - transport: Framed one-shot exchange over stream connections, with
//     pluggable connectors (TCP, Unix sockets) and independently bounded
//     connect, write and read phases.
//
//   - resolver: Endpoint resolution, either from an explicit host and port
//     or through a load-balancer registry by logical server name.
//
//   - client: The builder façade applications use. It composes the layers
//     above, stamps caller identity, applies the failover policy for
//     load-balanced targets and reports call outcomes inside the returned
//     envelope's head.
package rpc
