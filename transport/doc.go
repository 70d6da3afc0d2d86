// Package transport provides the connection host layer of the client core:
// low level byte I/O over established sockets, independent of the wire
// protocol spoken on top.
//
// Key Components:
//
//   - IConnection: a single managed socket with asynchronous send
//     (BeginSend), a receive loop (BeginReceive) and idempotent teardown
//     (BeginDisconnect).
//
//   - IConnectionEvents: the sink all connection lifecycle events are
//     delivered to. The client facade implements this interface, which wires
//     host and client together without back-pointers.
//
//   - IConnectionHost / NewSocketHost: factory turning established net.Conn
//     sockets into managed connections.
//
//   - IClientConnector / NewTCPConnector: transport specific dialing and
//     socket tuning (NoDelay, linger, kernel buffer sizes).
//
// Ordering guarantees of the host:
//
//   - OnStartSending and OnSendCallback are delivered in that order for each
//     packet on each connection (single writer goroutine per connection).
//
//   - OnMessageReceived events of one connection are serialized (single
//     reader goroutine per connection). Across connections no ordering is
//     guaranteed.
//
//   - OnDisconnected fires exactly once per connection.
package transport
