// Package protocol defines the wire protocol adapter contract of the client
// core and ships two reference implementations.
//
// The core is protocol agnostic: it treats inbound messages as opaque
// objects bearing a sequence id (see IMessage) and delegates all byte level
// framing to an IProtocol adapter. An adapter additionally advertises its
// multiplexing mode via IsAsync, which selects the connection pool variant
// at client construction time:
//
//   - Async protocols allow any number of in-flight requests per connection
//     and use the round-robin multiplexing pool.
//
//   - Sync protocols allow exactly one outstanding request per connection
//     and use the exclusive-acquire pool.
//
// Shipped adapters:
//
//   - NewBinaryProtocol: length-prefixed binary framing
//     (4 byte length | 4 byte seqID | body), async.
//
//   - NewCommandLineProtocol: newline-terminated text lines with the
//     sequence id as leading token, sync.
package protocol
