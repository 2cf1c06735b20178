// Package transport defines the framed one-shot transport used for every
// call. It provides a common contract that all connector implementations
// fulfill, enabling protocol-agnostic connection handling.
//
// The package focuses on:
//   - Exactly one request/response exchange per connection
//   - Three independently time-boxed phases: connect, write, read
//   - Classified failures so the failover policy can branch on them
//
// Key Components:
//
//   - IExchangeTransport: Interface for the client-side one-shot exchange.
//
//   - base: The phase sequencing, framing and error classification shared
//     by all connectors.
//
//   - tcp, unix: Connector implementations for TCP and Unix domain
//     sockets.
package transport
