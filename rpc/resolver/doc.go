// Package resolver chooses the target endpoint for a call, either directly
// from an explicit host and port or through a load-balancer registry keyed
// by logical server name.
//
// The package focuses on:
//   - A small registry contract (Resolve, MarkBroken) consumed as a black
//     box; the registry is externally owned and must be concurrency-safe
//   - Per-attempt resolution, so a retry after a broken mark yields a
//     different endpoint
//   - Fail-fast configuration errors: an unresolvable server name is a
//     validation failure with no network attempt
//
// Key Components:
//
//   - Endpoint: A resolved (host, port) pair plus its origin. Only
//     load-balanced endpoints are failover-eligible.
//
//   - IRegistry: The consumed load-balancer registry contract.
//
//   - NewDirectResolver / NewLBResolver: The two resolution modes.
//
//   - StaticRegistry: An in-process IRegistry with round-robin selection
//     and broken-endpoint exclusion, for deployments without an external
//     registry service and for tests.
package resolver
