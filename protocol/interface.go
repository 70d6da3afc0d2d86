package protocol

import (
	"github.com/cato541265/sockrpc/transport"
)

// --------------------------------------------------------------------------
// Message Contract
// --------------------------------------------------------------------------

// IMessage is the minimal contract the client core needs from an inbound
// message: the sequence id correlating it to a previously sent request.
// Everything else is opaque to the core.
type IMessage interface {
	// SeqID returns the sequence id carried by the message
	SeqID() int32
}

// --------------------------------------------------------------------------
// Protocol Adapter Contract
// --------------------------------------------------------------------------

// IProtocol parses inbound bytes into messages and advertises the
// multiplexing mode of the wire protocol
type IProtocol interface {
	// IsAsync reports whether the protocol supports multiple in-flight
	// requests per connection. Async protocols use the round-robin pool,
	// sync protocols the exclusive-acquire pool.
	IsAsync() bool

	// Parse reads zero or one message from buf. It returns the parsed
	// message (nil if buf does not yet hold a complete message) and the
	// number of bytes consumed (0 = need more bytes). A non-nil error
	// signals a fatal framing error; the connection will be torn down.
	Parse(conn transport.IConnection, buf []byte) (IMessage, int, error)
}
