// Package tcp implements the TCP socket connector for the one-shot
// exchange transport. It provides a concrete implementation of the base
// package's connector interface for internal-network endpoints.
//
// This package builds on the base package's transport functionality,
// inheriting its phase deadlines, framing and error classification. See
// the base package documentation for the underlying transport mechanics.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector.
//     The dial is bounded by the connect timeout; UpgradeConnection applies
//     TCP_NODELAY, keep-alive, linger and socket buffer sizes from the
//     client configuration.
package tcp
