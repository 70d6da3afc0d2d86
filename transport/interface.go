package transport

import (
	"net"

	"github.com/cato541265/sockrpc/common"
)

// --------------------------------------------------------------------------
// Packet Contract
// --------------------------------------------------------------------------

// IPacket is an outbound unit of transmission. The payload is expected to be
// fully framed, the host writes it to the socket verbatim.
type IPacket interface {
	// Payload returns the pre-framed wire bytes
	Payload() []byte
}

// --------------------------------------------------------------------------
// Connection Contract
// --------------------------------------------------------------------------

// IConnection is a single established socket connection managed by a host.
// A connection fires Disconnected exactly once and must never be reused
// afterwards.
type IConnection interface {
	// ConnectionID returns the host-wide unique id of the connection
	ConnectionID() int64

	// RemoteAddr returns the address of the remote peer
	RemoteAddr() net.Addr

	// BeginSend queues a packet for transmission. The host fires
	// OnStartSending followed by OnSendCallback for it, in that order.
	BeginSend(p IPacket)

	// BeginReceive starts the receive loop of the connection. Inbound bytes
	// are surfaced via OnMessageReceived. Idempotent.
	BeginReceive()

	// BeginDisconnect tears the connection down. Idempotent, the first call
	// wins and fires OnDisconnected with the given error (may be nil).
	BeginDisconnect(err error)

	// Closed reports whether teardown has begun. Once true it never turns
	// false again; callers racing a fresh connection against its own early
	// death use this to detect a disconnect event they missed.
	Closed() bool
}

// --------------------------------------------------------------------------
// Host Event Sink
// --------------------------------------------------------------------------

// IConnectionEvents receives the lifecycle events of every connection
// created by a host. The host guarantees that OnStartSending and
// OnSendCallback are delivered in order for each packet, and that
// OnMessageReceived events of one connection are serialized.
type IConnectionEvents interface {
	// OnConnected fires once when a connection has been created
	OnConnected(conn IConnection)

	// OnDisconnected fires exactly once when a connection is torn down
	OnDisconnected(conn IConnection, err error)

	// OnStartSending fires when a packet is about to be written
	OnStartSending(conn IConnection, p IPacket)

	// OnSendCallback fires after the write attempt, ok reports success
	OnSendCallback(conn IConnection, p IPacket, ok bool)

	// OnMessageReceived surfaces buffered inbound bytes and returns the
	// number of bytes consumed (0 = need more bytes). The host advances its
	// read cursor by the returned count and calls again while bytes remain.
	OnMessageReceived(conn IConnection, buf []byte) int

	// OnConnectionError reports a non-fatal host level error
	OnConnectionError(conn IConnection, err error)
}

// --------------------------------------------------------------------------
// Host Contract
// --------------------------------------------------------------------------

// IConnectionHost turns established sockets into managed connections
type IConnectionHost interface {
	// NewConnection wraps an established socket. The host fires OnConnected
	// for it before returning.
	NewConnection(nc net.Conn) IConnection
}

// --------------------------------------------------------------------------
// Connector Contract
// --------------------------------------------------------------------------

// IClientConnector defines the transport-specific dial operations
type IClientConnector interface {
	// Connect establishes a single connection to the given endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an
	// established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}
