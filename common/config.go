package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Default values
// --------------------------------------------------------------------------

const (
	// DefaultSocketBufferSize is the size of the kernel socket buffers in bytes
	DefaultSocketBufferSize = 8192

	// DefaultMessageBufferSize is the initial size of the per connection
	// receive buffer in bytes
	DefaultMessageBufferSize = 8192

	// DefaultSendTimeoutMs bounds how long a request may wait for a
	// successful send (including retries and time spent in the pending queue)
	DefaultSendTimeoutMs = 3000

	// DefaultReceiveTimeoutMs bounds how long a sent request may wait for
	// its response
	DefaultReceiveTimeoutMs = 3000

	// DefaultPendingQueueCapacity is the capacity of the pending send queue
	DefaultPendingQueueCapacity = 8192

	// Reconnect backoff windows in milliseconds. A cold connect failure
	// retries later than a peer initiated drop since the latter is likely
	// to succeed again quickly.
	DefaultConnectRetryMinMs = 1000
	DefaultConnectRetryMaxMs = 3000
	DefaultReconnectMinMs    = 100
	DefaultReconnectMaxMs    = 1500
)

// --------------------------------------------------------------------------
// Socket configuration structs
// --------------------------------------------------------------------------

// SocketConf holds buffer sizes applied to every established socket
type SocketConf struct {
	// ReadBufferSize is the kernel receive buffer size in bytes
	ReadBufferSize int
	// WriteBufferSize is the kernel send buffer size in bytes
	WriteBufferSize int
}

// TCPConf holds TCP specific options applied to every established socket
type TCPConf struct {
	// TCPNoDelay disables Nagle's algorithm when true
	TCPNoDelay bool
	// TCPLingerSec is the linger time in seconds (0 = discard on close)
	TCPLingerSec int
	// TCPKeepAliveSec is the keepalive interval in seconds (0 = disabled)
	TCPKeepAliveSec int
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for the RPC socket client
type ClientConfig struct {
	// SendTimeoutMs is the maximum age of a request that has not yet been
	// handed to a socket successfully
	SendTimeoutMs int

	// ReceiveTimeoutMs is the default response deadline for requests that
	// do not specify their own
	ReceiveTimeoutMs int

	// MessageBufferSize is the initial receive buffer size per connection
	MessageBufferSize int

	// PendingQueueCapacity bounds the pending send queue
	PendingQueueCapacity int

	// WorkerCount is the number of callback worker goroutines
	// (0 = 2 x GOMAXPROCS, at least 4)
	WorkerCount int

	// Backoff windows for the per node connect loop, in milliseconds
	ConnectRetryMinMs int
	ConnectRetryMaxMs int
	ReconnectMinMs    int
	ReconnectMaxMs    int

	// Socket tuning
	Socket SocketConf
	TCP    TCPConf

	// Logging configuration
	LogLevel string
}

// DefaultClientConfig returns a ClientConfig populated with the default
// values. The zero value of ClientConfig is not usable directly.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		SendTimeoutMs:        DefaultSendTimeoutMs,
		ReceiveTimeoutMs:     DefaultReceiveTimeoutMs,
		MessageBufferSize:    DefaultMessageBufferSize,
		PendingQueueCapacity: DefaultPendingQueueCapacity,
		ConnectRetryMinMs:    DefaultConnectRetryMinMs,
		ConnectRetryMaxMs:    DefaultConnectRetryMaxMs,
		ReconnectMinMs:       DefaultReconnectMinMs,
		ReconnectMaxMs:       DefaultReconnectMaxMs,
		Socket: SocketConf{
			ReadBufferSize:  DefaultSocketBufferSize,
			WriteBufferSize: DefaultSocketBufferSize,
		},
		TCP: TCPConf{
			TCPNoDelay:   true,
			TCPLingerSec: 0,
		},
		LogLevel: "info",
	}
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Send Timeout", fmt.Sprintf("%d ms", c.SendTimeoutMs))
	addField("Receive Timeout", fmt.Sprintf("%d ms", c.ReceiveTimeoutMs))
	addField("Message Buffer", fmt.Sprintf("%d bytes", c.MessageBufferSize))
	addField("Pending Queue", strconv.Itoa(c.PendingQueueCapacity))
	addField("Workers", strconv.Itoa(c.WorkerCount))

	addSection("Reconnect Backoff")
	addField("Cold Connect", fmt.Sprintf("%d-%d ms", c.ConnectRetryMinMs, c.ConnectRetryMaxMs))
	addField("After Disconnect", fmt.Sprintf("%d-%d ms", c.ReconnectMinMs, c.ReconnectMaxMs))

	addSection("Socket")
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Socket.ReadBufferSize))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Socket.WriteBufferSize))
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCP.TCPNoDelay))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.TCP.TCPLingerSec))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.TCP.TCPKeepAliveSec))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
