package transport

import (
	"net"
	"time"

	"github.com/cato541265/sockrpc/common"
)

// tcpConnector implements the IClientConnector interface for TCP sockets
type tcpConnector struct{}

// NewTCPConnector creates a connector dialing plain TCP endpoints
func NewTCPConnector() IClientConnector {
	return &tcpConnector{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IClientConnector)
// --------------------------------------------------------------------------

func (c *tcpConnector) GetName() string {
	return "tcp"
}

func (c *tcpConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}

func (c *tcpConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		// non TCP sockets (tests, in-memory pipes) need no tuning
		return nil
	}

	if err := tcpConn.SetNoDelay(config.TCP.TCPNoDelay); err != nil {
		return err
	}

	if err := tcpConn.SetLinger(config.TCP.TCPLingerSec); err != nil {
		return err
	}

	if config.TCP.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(config.TCP.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	if config.Socket.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.Socket.ReadBufferSize); err != nil {
			return err
		}
	}

	if config.Socket.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.Socket.WriteBufferSize); err != nil {
			return err
		}
	}

	return nil
}
