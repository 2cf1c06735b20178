// Package client implements the builder façade over the resolver,
// serializer and transport layers. It is the entire public API of the
// library: build an envelope, exchange it, read the outcome from the
// returned envelope's head.
//
// The package focuses on:
//   - A fluent builder for the (head, data) envelope of one call
//   - Identity stamping at construction (process name, pid, ip, hostname)
//   - The errors-as-data policy: ordinary network, protocol and
//     serialization failures are returned in the envelope head, never as
//     error values or panics
//   - The failover policy for load-balanced targets
//
// Usage Example:
//
//	// Direct target
//	reply := client.New("orders-api", "billing").
//		Data("orderId", "ord-2024-000198").
//		Data("amount", common.Decimal("199.99")).
//		Connect("10.1.2.3", 9000)
//
//	if reply.Result() {
//		total := reply.Data.GetString("receiptId")
//		// ...
//	} else {
//		log.Printf("billing call failed: %s", reply.Message())
//	}
//
//	// Load-balanced target with failover
//	registry := resolver.NewStaticRegistry()
//	registry.Register("billing", "10.1.2.3:9000", "10.1.2.4:9000")
//
//	reply = client.New("orders-api", "billing", client.WithRegistry(registry)).
//		Data("orderId", "ord-2024-000199").
//		ConnectLB("billing")
//
// Calling Connect or ConnectLB with an empty data section is a local
// validation failure: no socket is opened and the envelope comes back with
// result=false.
//
// Thread Safety:
//
//	A Client carries the pending envelope of one call and is meant for a
//	single caller. Concurrent calls should each build their own Client;
//	calls are fully independent on the wire (one connection per call).
package client
