// Package serializer converts envelopes to and from their byte
// representation. It defines a common interface and two implementations
// with different purposes.
//
// The package focuses on:
//   - A compact, reflection-free binary wire format
//   - Validating declared sizes before allocating for them
//   - Preserving entry order through a round trip
//   - Avoiding re-allocation of the encode buffer across calls
//
// Key Components:
//
//   - IEnvelopeSerializer: Core interface all serializer implementations
//     satisfy. SerializeAppend lets callers reuse a scratch buffer.
//
//   - binarySerializerImpl: The canonical wire format. Each section is a
//     4-byte entry count followed by entries; each entry is a 2-byte
//     length-prefixed UTF-8 key, a type tag byte and the tag-specific
//     payload. All integers are big-endian. This format embeds no type
//     metadata beyond the tag byte and must stay bit-exact for interop
//     with existing peers.
//
//   - jsonSerializerImpl: A tagged json encoding that round-trips every
//     Value losslessly. Useful for debugging and fixtures, never spoken on
//     the wire.
//
// Malformed input is rejected with a protocol-kind error: unknown tags,
// truncated payloads, trailing bytes, and sections or arrays whose declared
// counts exceed the configured limit or the remaining input. The last check
// runs before any allocation sized by peer-controlled numbers.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent
//	use across multiple goroutines without additional synchronization.
package serializer
