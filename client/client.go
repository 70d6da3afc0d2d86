package client

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cato541265/sockrpc/common"
	"github.com/cato541265/sockrpc/endpoint"
	"github.com/cato541265/sockrpc/pool"
	"github.com/cato541265/sockrpc/protocol"
	"github.com/cato541265/sockrpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("sockrpc/client")

// UnknownMessageHandler receives messages whose sequence id matched no
// in-flight request
type UnknownMessageHandler func(conn transport.IConnection, msg protocol.IMessage)

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Client multiplexes asynchronous requests over a managed set of socket
// connections to one or more named remote endpoints. It implements the
// host's event sink and the endpoint manager's notification interface, which
// wires the components together without back-pointers.
type Client struct {
	config common.ClientConfig
	proto  protocol.IProtocol

	host     transport.IConnectionHost
	pool     pool.IConnectionPool
	manager  *endpoint.Manager
	registry *receivingRegistry
	pending  *pendingQueue
	workers  *workerPool

	// all live connections, keyed by connection id
	conns *xsync.MapOf[int64, transport.IConnection]

	seq uint32 // atomic sequence id counter

	unknownMu sync.RWMutex
	onUnknown UnknownMessageHandler

	closed atomic.Bool
}

// New creates a client speaking the given protocol over TCP. The pool
// variant is fixed here from the protocol's multiplexing mode.
func New(config common.ClientConfig, proto protocol.IProtocol) *Client {
	return NewWithConnector(config, proto, transport.NewTCPConnector())
}

// NewWithConnector creates a client using a custom connector (unix sockets,
// in-memory transports for tests, ...)
func NewWithConnector(
	config common.ClientConfig,
	proto protocol.IProtocol,
	connector transport.IClientConnector,
) *Client {
	applyDefaults(&config)

	c := &Client{
		config: config,
		proto:  proto,
		conns:  xsync.NewMapOf[int64, transport.IConnection](),
	}

	c.workers = newWorkerPool(config.WorkerCount)
	c.pool = pool.New(proto.IsAsync())
	c.host = transport.NewSocketHost(config, c)
	c.manager = endpoint.NewManager(config, connector, c.host, c)
	c.registry = newReceivingRegistry(c.onReceiveTimeout)
	c.pending = newPendingQueue(
		config.PendingQueueCapacity,
		c.sendTimeout(),
		c.Send,
		c.onPendingTimeout,
	)

	c.registry.start()
	c.pending.start()

	Logger.Infof("created client (protocol async=%t, transport %s)", proto.IsAsync(), connector.GetName())
	return c
}

// --------------------------------------------------------------------------
// Request Submission
// --------------------------------------------------------------------------

// NewRequest allocates a request with a fresh sequence id. The payload must
// be fully framed for the client's protocol. A non-positive receive timeout
// falls back to the configured default; nil callbacks are allowed.
func (c *Client) NewRequest(
	name string,
	payload []byte,
	receiveTimeoutMs int,
	onException ExceptionFunc,
	onResult ResultFunc,
) *Request {
	if receiveTimeoutMs <= 0 {
		receiveTimeoutMs = c.config.ReceiveTimeoutMs
	}
	return &Request{
		seqID:            c.nextSeqID(),
		name:             name,
		payload:          payload,
		receiveTimeoutMs: receiveTimeoutMs,
		allowRetry:       true,
		createdTime:      time.Now(),
		onResult:         onResult,
		onException:      onException,
	}
}

// Send dispatches a request, fire and forget: the request completes through
// its callbacks. With no connection available the request is buffered until
// one comes up or the send timeout expires. Send never returns an error.
func (c *Client) Send(req *Request) {
	if conn, ok := c.pool.TryAcquire(); ok {
		conn.BeginSend(req)
		return
	}

	if !c.pending.enqueue(req) {
		// queue at capacity, treat like any other failure to get sent
		c.fail(req, KindPendingSendTimeout)
		return
	}
	metricRequestsPending.Inc()
}

// nextSeqID issues the next sequence id: positive, 31 bits, wrapping to 1
func (c *Client) nextSeqID() int32 {
	for {
		v := atomic.AddUint32(&c.seq, 1) & 0x7fffffff
		if v != 0 {
			return int32(v)
		}
	}
}

// --------------------------------------------------------------------------
// Endpoint Facade
// --------------------------------------------------------------------------

// TryRegisterEndpoint adds a named remote endpoint and starts connecting to
// it. Returns false iff a node of that name is already active or the
// arguments are empty.
func (c *Client) TryRegisterEndpoint(name, remoteEndpoint string, init endpoint.InitFunc) bool {
	if name == "" || remoteEndpoint == "" {
		return false
	}
	return c.manager.TryRegister(name, remoteEndpoint, init)
}

// UnregisterEndpoint removes a named endpoint and disconnects its
// connection if any. Returns true iff a node was removed.
func (c *Client) UnregisterEndpoint(name string) bool {
	return c.manager.Unregister(name)
}

// GetAllRegisteredEndpoints returns the name and address of every active
// endpoint
func (c *Client) GetAllRegisteredEndpoints() []endpoint.Info {
	return c.manager.All()
}

// SetUnknownMessageHandler installs the handler for messages that matched no
// in-flight request
func (c *Client) SetUnknownMessageHandler(h UnknownMessageHandler) {
	c.unknownMu.Lock()
	c.onUnknown = h
	c.unknownMu.Unlock()
}

// Close unregisters all endpoints, disconnects every connection and stops
// the timers. In-flight requests are not completed.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.pending.stop()
	c.registry.stop()

	for _, info := range c.manager.All() {
		c.manager.Unregister(info.Name)
	}

	c.conns.Range(func(_ int64, conn transport.IConnection) bool {
		conn.BeginDisconnect(nil)
		return true
	})

	c.workers.close()
	Logger.Infof("client closed")
}

// --------------------------------------------------------------------------
// Host Events (transport.IConnectionEvents)
// --------------------------------------------------------------------------

func (c *Client) OnConnected(conn transport.IConnection) {
	c.conns.Store(conn.ConnectionID(), conn)
	conn.BeginReceive()
}

func (c *Client) OnDisconnected(conn transport.IConnection, err error) {
	metricDisconnects.Inc()
	c.conns.Delete(conn.ConnectionID())
	c.pool.Destroy(conn)

	// requests in flight on this connection stay registered and surface
	// uniformly through their receive timeout
	c.manager.OnDisconnected(conn)
}

func (c *Client) OnStartSending(conn transport.IConnection, p transport.IPacket) {
	req, ok := p.(*Request)
	if !ok {
		return
	}
	// register before the send callback can fire so a response arriving
	// first still matches
	req.setConnection(conn)
	c.registry.tryAdd(req)
}

func (c *Client) OnSendCallback(conn transport.IConnection, p transport.IPacket, ok bool) {
	req, isReq := p.(*Request)
	if !isReq {
		return
	}

	if ok {
		req.markSent(time.Now())
		metricRequestsSent.Inc()
		return
	}

	// failed send: withdraw from the registry and decide between retry and
	// terminal failure
	c.registry.tryRemove(req.seqID)
	req.clearConnection()
	c.pool.Release(conn)

	if !req.allowRetry {
		c.fail(req, KindSendFailed)
		return
	}
	if time.Since(req.createdTime) >= c.sendTimeout() {
		c.fail(req, KindPendingSendTimeout)
		return
	}

	metricSendRetries.Inc()
	c.Send(req)
}

func (c *Client) OnMessageReceived(conn transport.IConnection, buf []byte) int {
	msg, n, err := c.proto.Parse(conn, buf)
	if err != nil {
		metricParseErrors.Inc()
		c.OnConnectionError(conn, err)
		conn.BeginDisconnect(err)
		return len(buf)
	}
	if msg == nil {
		return n
	}

	if req, ok := c.registry.tryRemove(msg.SeqID()); ok {
		c.pool.Release(conn)
		c.complete(req, msg)
	} else {
		c.handleUnknownMessage(conn, msg)
	}
	return n
}

func (c *Client) OnConnectionError(conn transport.IConnection, err error) {
	Logger.Errorf("connection %d error: %v", conn.ConnectionID(), err)
}

// --------------------------------------------------------------------------
// Manager Events (endpoint.IManagerEvents)
// --------------------------------------------------------------------------

func (c *Client) OnNodeConnected(node *endpoint.Node, conn transport.IConnection) {
	Logger.Debugf("node %q connected (connection %d)", node.Name, conn.ConnectionID())
}

func (c *Client) OnNodeAvailable(node *endpoint.Node, conn transport.IConnection) {
	// from here on the connection carries requests; the pending queue
	// drains to it on its next tick
	c.pool.Register(conn)
}

// --------------------------------------------------------------------------
// Completion Paths
// --------------------------------------------------------------------------

// onReceiveTimeout completes a request the registry scan removed
func (c *Client) onReceiveTimeout(req *Request) {
	if conn := req.connection(); conn != nil {
		c.pool.Release(conn)
	}
	c.fail(req, KindReceiveTimeout)
}

// onPendingTimeout completes a request the pending queue aged out
func (c *Client) onPendingTimeout(req *Request) {
	c.fail(req, KindPendingSendTimeout)
}

// handleUnknownMessage routes an uncorrelated message to the installed
// handler, if any
func (c *Client) handleUnknownMessage(conn transport.IConnection, msg protocol.IMessage) {
	metricUnknownMessages.Inc()

	c.unknownMu.RLock()
	h := c.onUnknown
	c.unknownMu.RUnlock()

	if h == nil {
		Logger.Debugf("unknown message with seq id %d on connection %d", msg.SeqID(), conn.ConnectionID())
		return
	}
	c.workers.submit(func() {
		h(conn, msg)
	})
}

// complete delivers a result on a worker. The caller has already removed
// the request from the registry, completion is best effort from here.
func (c *Client) complete(req *Request, msg protocol.IMessage) {
	metricResults.Inc()
	cb := req.onResult
	if cb == nil {
		return
	}
	c.workers.submit(func() {
		cb(msg)
	})
}

// fail delivers a terminal error on a worker
func (c *Client) fail(req *Request, kind ErrorKind) {
	switch kind {
	case KindPendingSendTimeout:
		metricPendingTimeouts.Inc()
	case KindSendFailed:
		metricSendFailures.Inc()
	case KindReceiveTimeout:
		metricReceiveTimeouts.Inc()
	}

	err := newRequestError(kind, req.name)
	cb := req.onException
	if cb == nil {
		Logger.Warningf("request %q failed without exception callback: %s", req.name, kind)
		return
	}
	c.workers.submit(func() {
		cb(err)
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (c *Client) sendTimeout() time.Duration {
	return time.Duration(c.config.SendTimeoutMs) * time.Millisecond
}

// applyDefaults fills zero config fields with the package defaults
func applyDefaults(config *common.ClientConfig) {
	def := common.DefaultClientConfig()

	if config.SendTimeoutMs <= 0 {
		config.SendTimeoutMs = def.SendTimeoutMs
	}
	if config.ReceiveTimeoutMs <= 0 {
		config.ReceiveTimeoutMs = def.ReceiveTimeoutMs
	}
	if config.MessageBufferSize <= 0 {
		config.MessageBufferSize = def.MessageBufferSize
	}
	if config.PendingQueueCapacity <= 0 {
		config.PendingQueueCapacity = def.PendingQueueCapacity
	}
	if config.ConnectRetryMinMs <= 0 {
		config.ConnectRetryMinMs = def.ConnectRetryMinMs
	}
	if config.ConnectRetryMaxMs <= 0 {
		config.ConnectRetryMaxMs = def.ConnectRetryMaxMs
	}
	if config.ReconnectMinMs <= 0 {
		config.ReconnectMinMs = def.ReconnectMinMs
	}
	if config.ReconnectMaxMs <= 0 {
		config.ReconnectMaxMs = def.ReconnectMaxMs
	}
}
