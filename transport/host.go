package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/cato541265/sockrpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("sockrpc/transport")

// --------------------------------------------------------------------------
// Socket Host
// --------------------------------------------------------------------------

// socketHost is the default IConnectionHost over net.Conn sockets. Every
// connection gets a dedicated writer goroutine (ordered OnStartSending /
// OnSendCallback per packet) and, once BeginReceive is called, a dedicated
// reader goroutine (serialized OnMessageReceived per connection).
type socketHost struct {
	config     common.ClientConfig
	events     IConnectionEvents
	nextConnID int64 // atomic
}

// NewSocketHost creates a host that delivers all connection events to the
// given sink
func NewSocketHost(config common.ClientConfig, events IConnectionEvents) IConnectionHost {
	if config.MessageBufferSize <= 0 {
		config.MessageBufferSize = common.DefaultMessageBufferSize
	}
	return &socketHost{
		config: config,
		events: events,
	}
}

func (h *socketHost) NewConnection(nc net.Conn) IConnection {
	c := &connection{
		id:       atomic.AddInt64(&h.nextConnID, 1),
		nc:       nc,
		host:     h,
		notifyCh: make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}

	go c.writeLoop()

	h.events.OnConnected(c)
	return c
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// connection wraps one established socket
type connection struct {
	id   int64
	nc   net.Conn
	host *socketHost

	// outbound queue, guarded by qmu
	qmu    sync.Mutex
	queue  []IPacket
	closed bool

	notifyCh  chan struct{}
	closedCh  chan struct{}
	closeOnce sync.Once
	tornDown  atomic.Bool
	receiving atomic.Bool
}

func (c *connection) ConnectionID() int64 {
	return c.id
}

func (c *connection) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

func (c *connection) BeginSend(p IPacket) {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		// report through the regular event pair so the sender can retry
		go c.failPacket(p)
		return
	}
	c.queue = append(c.queue, p)
	c.qmu.Unlock()

	select {
	case c.notifyCh <- struct{}{}:
	default:
	}
}

func (c *connection) BeginReceive() {
	if !c.receiving.CompareAndSwap(false, true) {
		return
	}
	go c.readLoop()
}

func (c *connection) Closed() bool {
	return c.tornDown.Load()
}

func (c *connection) BeginDisconnect(err error) {
	c.closeOnce.Do(func() {
		c.tornDown.Store(true)
		close(c.closedCh)
		_ = c.nc.Close()
		if err != nil {
			Logger.Debugf("connection %d closed: %v", c.id, err)
		}
		c.host.events.OnDisconnected(c, err)
	})
}

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// writeLoop drains the outbound queue. It fires OnStartSending immediately
// before the write and OnSendCallback immediately after, which keeps the two
// events ordered per packet.
func (c *connection) writeLoop() {
	for {
		select {
		case <-c.closedCh:
			c.failPending()
			return
		case <-c.notifyCh:
		}

		for {
			c.qmu.Lock()
			if len(c.queue) == 0 {
				c.qmu.Unlock()
				break
			}
			p := c.queue[0]
			c.queue = c.queue[1:]
			c.qmu.Unlock()

			c.host.events.OnStartSending(c, p)
			_, err := c.nc.Write(p.Payload())
			c.host.events.OnSendCallback(c, p, err == nil)

			if err != nil {
				c.BeginDisconnect(err)
				c.failPending()
				return
			}
		}
	}
}

// failPending marks the connection closed for senders and fails every packet
// still queued. Packets enqueued concurrently are either collected here or
// rejected by BeginSend once closed is set.
func (c *connection) failPending() {
	c.qmu.Lock()
	c.closed = true
	rest := c.queue
	c.queue = nil
	c.qmu.Unlock()

	for _, p := range rest {
		c.failPacket(p)
	}
}

// failPacket reports a packet as failed through the regular event pair
func (c *connection) failPacket(p IPacket) {
	c.host.events.OnStartSending(c, p)
	c.host.events.OnSendCallback(c, p, false)
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// readLoop reads from the socket and surfaces buffered bytes to the event
// sink until it reports 0 consumed (incomplete message)
func (c *connection) readLoop() {
	buf := make([]byte, 0, c.host.config.MessageBufferSize)
	chunk := make([]byte, c.host.config.MessageBufferSize)

	for {
		n, err := c.nc.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			for len(buf) > 0 {
				consumed := c.host.events.OnMessageReceived(c, buf)
				if consumed <= 0 {
					break
				}
				if consumed >= len(buf) {
					buf = buf[:0]
				} else {
					buf = append(buf[:0], buf[consumed:]...)
				}
			}
		}
		if err != nil {
			c.BeginDisconnect(err)
			return
		}
	}
}
