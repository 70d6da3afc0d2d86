package endpoint

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cato541265/sockrpc/common"
	"github.com/cato541265/sockrpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("sockrpc/endpoint")

// --------------------------------------------------------------------------
// Node
// --------------------------------------------------------------------------

// InitFunc is an optional per node handshake, invoked after connecting and
// before the connection is made available. A non-nil error aborts the
// connection.
type InitFunc func(conn transport.IConnection) error

// Node is a named registration of a remote endpoint. A node is active while
// it is present in the manager's node map.
type Node struct {
	ID             int32
	Name           string
	RemoteEndpoint string
	Init           InitFunc
}

// Info is the externally visible description of a registered node
type Info struct {
	Name           string
	RemoteEndpoint string
}

// --------------------------------------------------------------------------
// Manager Events
// --------------------------------------------------------------------------

// IManagerEvents receives node lifecycle notifications. OnNodeConnected
// fires once per successful connect before the connection is made
// available, OnNodeAvailable once the init func resolved and the connection
// has been recorded.
type IManagerEvents interface {
	OnNodeConnected(node *Node, conn transport.IConnection)
	OnNodeAvailable(node *Node, conn transport.IConnection)
}

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Manager maintains the set of named nodes and runs one reconnect loop per
// node. Both maps are mutated only under mu; events are emitted under mu so
// that no event for a node can fire after Unregister removed it.
type Manager struct {
	config    common.ClientConfig
	connector transport.IClientConnector
	host      transport.IConnectionHost
	events    IManagerEvents

	mu     sync.Mutex
	nodes  map[int32]*Node
	conns  map[int32]transport.IConnection
	byConn map[int64]int32 // connection id -> node id

	nextNodeID int32 // atomic
}

// NewManager creates an endpoint manager. The events sink must not call
// back into the manager from OnNodeConnected/OnNodeAvailable.
func NewManager(
	config common.ClientConfig,
	connector transport.IClientConnector,
	host transport.IConnectionHost,
	events IManagerEvents,
) *Manager {
	return &Manager{
		config:    config,
		connector: connector,
		host:      host,
		events:    events,
		nodes:     make(map[int32]*Node),
		conns:     make(map[int32]transport.IConnection),
		byConn:    make(map[int64]int32),
	}
}

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// TryRegister adds a named node and starts its connect loop. It returns
// false without side effect if a node of that name is already active.
func (m *Manager) TryRegister(name, remoteEndpoint string, init InitFunc) bool {
	m.mu.Lock()
	for _, n := range m.nodes {
		if n.Name == name {
			m.mu.Unlock()
			return false
		}
	}

	node := &Node{
		ID:             atomic.AddInt32(&m.nextNodeID, 1),
		Name:           name,
		RemoteEndpoint: remoteEndpoint,
		Init:           init,
	}
	m.nodes[node.ID] = node
	m.mu.Unlock()

	Logger.Infof("registered endpoint %q (%s via %s)", name, remoteEndpoint, m.connector.GetName())

	go m.connect(node)
	return true
}

// Unregister removes a node by name and disconnects its connection if any.
// After it returns true, no further node events for that node fire.
func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	var node *Node
	for _, n := range m.nodes {
		if n.Name == name {
			node = n
			break
		}
	}
	if node == nil {
		m.mu.Unlock()
		return false
	}

	delete(m.nodes, node.ID)
	conn := m.conns[node.ID]
	delete(m.conns, node.ID)
	if conn != nil {
		delete(m.byConn, conn.ConnectionID())
	}
	m.mu.Unlock()

	Logger.Infof("unregistered endpoint %q", name)

	if conn != nil {
		conn.BeginDisconnect(nil)
	}
	return true
}

// All returns the name and endpoint of every active node
func (m *Manager) All() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Info, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, Info{Name: n.Name, RemoteEndpoint: n.RemoteEndpoint})
	}
	return out
}

// --------------------------------------------------------------------------
// Connect Loop
// --------------------------------------------------------------------------

// connect runs one connect attempt for a node and schedules the next one on
// failure. Runs on its own goroutine.
func (m *Manager) connect(node *Node) {
	if !m.isActive(node) {
		return
	}

	sock, err := m.connector.Connect(node.RemoteEndpoint)
	if err != nil {
		Logger.Warningf("connect to %q (%s) failed: %v", node.Name, node.RemoteEndpoint, err)
		m.scheduleConnect(node, m.config.ConnectRetryMinMs, m.config.ConnectRetryMaxMs)
		return
	}

	if !m.isActive(node) {
		_ = sock.Close()
		return
	}

	if err := m.connector.UpgradeConnection(sock, m.config); err != nil {
		Logger.Warningf("upgrade of connection to %q failed: %v", node.Name, err)
		_ = sock.Close()
		m.scheduleConnect(node, m.config.ConnectRetryMinMs, m.config.ConnectRetryMaxMs)
		return
	}

	conn := m.host.NewConnection(sock)

	m.mu.Lock()
	if _, active := m.nodes[node.ID]; !active {
		m.mu.Unlock()
		conn.BeginDisconnect(nil)
		return
	}
	m.byConn[conn.ConnectionID()] = node.ID
	m.events.OnNodeConnected(node, conn)
	m.mu.Unlock()

	// The host starts the receive loop before NewConnection returns, so the
	// connection can die before byConn above existed. That disconnect event
	// found nothing to route; if the tracking entry is still present the
	// reconnect is on us.
	if conn.Closed() {
		m.mu.Lock()
		_, missed := m.byConn[conn.ConnectionID()]
		if missed {
			delete(m.byConn, conn.ConnectionID())
		}
		m.mu.Unlock()

		if missed {
			Logger.Warningf("connection to %q died during setup, reconnecting", node.Name)
			m.scheduleConnect(node, m.config.ReconnectMinMs, m.config.ReconnectMaxMs)
		}
		return
	}

	Logger.Infof("connected to %q (%s, connection %d)", node.Name, node.RemoteEndpoint, conn.ConnectionID())

	if node.Init != nil {
		if err := node.Init(conn); err != nil {
			Logger.Warningf("init of %q failed: %v", node.Name, err)
			conn.BeginDisconnect(err)
			return
		}
	}

	m.publish(node, conn)
}

// publish records the connection and announces availability, unless the
// node went inactive in the meantime
func (m *Manager) publish(node *Node, conn transport.IConnection) {
	// a connection that died during init is already on the disconnect path,
	// which owns the reconnect
	if conn.Closed() {
		return
	}

	m.mu.Lock()
	if _, active := m.nodes[node.ID]; !active {
		m.mu.Unlock()
		conn.BeginDisconnect(nil)
		return
	}
	m.conns[node.ID] = conn
	m.events.OnNodeAvailable(node, conn)
	m.mu.Unlock()
}

// OnDisconnected routes a connection loss back to the owning node and
// schedules a quick reconnect. Called by the client facade from the host's
// disconnect event.
func (m *Manager) OnDisconnected(conn transport.IConnection) {
	m.mu.Lock()
	nodeID, tracked := m.byConn[conn.ConnectionID()]
	if tracked {
		delete(m.byConn, conn.ConnectionID())
		if cur, ok := m.conns[nodeID]; ok && cur.ConnectionID() == conn.ConnectionID() {
			delete(m.conns, nodeID)
		}
	}
	node := m.nodes[nodeID]
	m.mu.Unlock()

	if !tracked || node == nil {
		return
	}

	Logger.Infof("lost connection %d to %q, reconnecting", conn.ConnectionID(), node.Name)
	m.scheduleConnect(node, m.config.ReconnectMinMs, m.config.ReconnectMaxMs)
}

// scheduleConnect arms a one-shot reconnect after a fresh uniform draw from
// the given window. Independent draws de-synchronize reconnect stampedes
// when many clients restart against one server.
func (m *Manager) scheduleConnect(node *Node, minMs, maxMs int) {
	if !m.isActive(node) {
		return
	}

	delay := randomDelay(minMs, maxMs)
	time.AfterFunc(delay, func() {
		m.connect(node)
	})
}

func (m *Manager) isActive(node *Node) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[node.ID]
	return ok
}

// randomDelay draws a fresh uniform delay from [minMs, maxMs]
func randomDelay(minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	return time.Duration(minMs+rand.Intn(maxMs-minMs+1)) * time.Millisecond
}
