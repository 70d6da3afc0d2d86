package endpoint

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cato541265/sockrpc/common"
	"github.com/cato541265/sockrpc/transport"
)

// --------------------------------------------------------------------------
// Test Harness
// --------------------------------------------------------------------------

// hostSink is a minimal connection event sink for manager tests
type hostSink struct {
	disconnected chan transport.IConnection
}

func newHostSink() *hostSink {
	return &hostSink{disconnected: make(chan transport.IConnection, 8)}
}

// the client facade starts receiving as soon as a connection exists; doing
// the same here makes an immediately dying socket tear down mid-connect
func (s *hostSink) OnConnected(conn transport.IConnection) {
	conn.BeginReceive()
}
func (s *hostSink) OnDisconnected(conn transport.IConnection, err error) {
	s.disconnected <- conn
}
func (s *hostSink) OnStartSending(conn transport.IConnection, p transport.IPacket)          {}
func (s *hostSink) OnSendCallback(conn transport.IConnection, p transport.IPacket, ok bool) {}
func (s *hostSink) OnMessageReceived(conn transport.IConnection, buf []byte) int            { return len(buf) }
func (s *hostSink) OnConnectionError(conn transport.IConnection, err error)                 {}

// managerSink records node notifications
type managerSink struct {
	connected chan *Node
	available chan *Node
}

func newManagerSink() *managerSink {
	return &managerSink{
		connected: make(chan *Node, 8),
		available: make(chan *Node, 8),
	}
}

func (s *managerSink) OnNodeConnected(node *Node, conn transport.IConnection) {
	s.connected <- node
}
func (s *managerSink) OnNodeAvailable(node *Node, conn transport.IConnection) {
	s.available <- node
}

// pipeConnector hands out the client half of a net.Pipe. Connect blocks on
// the gate when one is set, and can be scripted to fail the first attempts
// or to hand out sockets that die immediately.
type pipeConnector struct {
	gate      chan struct{}
	failures  int32
	deadFirst int32
}

func (c *pipeConnector) GetName() string { return "pipe" }

func (c *pipeConnector) Connect(endpoint string) (net.Conn, error) {
	if c.gate != nil {
		<-c.gate
	}
	if atomic.AddInt32(&c.failures, -1) >= 0 {
		return nil, errors.New("scripted connect failure")
	}
	if atomic.AddInt32(&c.deadFirst, -1) >= 0 {
		// the peer is gone before the manager can even track the socket
		client, server := net.Pipe()
		server.Close()
		return client, nil
	}
	client, server := net.Pipe()
	// keep the server half alive in the background
	go func() {
		buf := make([]byte, 256)
		for {
			if _, err := server.Read(buf); err != nil {
				return
			}
		}
	}()
	return client, nil
}

func (c *pipeConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return nil
}

func managerConfig() common.ClientConfig {
	config := common.DefaultClientConfig()
	config.ConnectRetryMinMs = 1
	config.ConnectRetryMaxMs = 5
	config.ReconnectMinMs = 1
	config.ReconnectMaxMs = 5
	return config
}

func newTestManager(connector transport.IClientConnector) (*Manager, *managerSink, *hostSink) {
	hs := newHostSink()
	ms := newManagerSink()
	host := transport.NewSocketHost(managerConfig(), hs)
	return NewManager(managerConfig(), connector, host, ms), ms, hs
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestManagerRegisterConnects registers a node against a real listener and
// expects both notifications in order
func TestManagerRegisterConnects(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	m, ms, _ := newTestManager(transport.NewTCPConnector())

	if !m.TryRegister("primary", listener.Addr().String(), nil) {
		t.Fatal("registration rejected")
	}

	select {
	case node := <-ms.connected:
		if node.Name != "primary" {
			t.Fatalf("connected node %q", node.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("NodeConnected never fired")
	}

	select {
	case node := <-ms.available:
		if node.Name != "primary" {
			t.Fatalf("available node %q", node.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("NodeAvailable never fired")
	}

	all := m.All()
	if len(all) != 1 || all[0].Name != "primary" {
		t.Fatalf("All() = %v", all)
	}
}

// TestManagerDuplicateName tests that re-registering an active name is
// rejected without side effect
func TestManagerDuplicateName(t *testing.T) {
	m, _, _ := newTestManager(&pipeConnector{gate: make(chan struct{})})

	if !m.TryRegister("a", "x:1", nil) {
		t.Fatal("first registration rejected")
	}
	if m.TryRegister("a", "y:2", nil) {
		t.Fatal("duplicate name accepted")
	}
	if len(m.All()) != 1 {
		t.Fatalf("All() holds %d nodes", len(m.All()))
	}
}

// TestManagerUnregisterDisconnects tests that unregister removes the node
// and tears its connection down
func TestManagerUnregisterDisconnects(t *testing.T) {
	m, ms, hs := newTestManager(&pipeConnector{})

	m.TryRegister("a", "x:1", nil)
	<-ms.available

	if !m.Unregister("a") {
		t.Fatal("unregister of active node returned false")
	}
	if m.Unregister("a") {
		t.Fatal("second unregister returned true")
	}

	select {
	case <-hs.disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("connection of unregistered node never disconnected")
	}
}

// TestManagerNoEventsAfterUnregister tests that a connect that was already
// in flight when the node was unregistered emits nothing
func TestManagerNoEventsAfterUnregister(t *testing.T) {
	gate := make(chan struct{})
	m, ms, _ := newTestManager(&pipeConnector{gate: gate})

	m.TryRegister("a", "x:1", nil)
	if !m.Unregister("a") {
		t.Fatal("unregister returned false")
	}

	// let the stalled connect finish now
	close(gate)

	select {
	case <-ms.connected:
		t.Fatal("NodeConnected fired after unregister")
	case <-ms.available:
		t.Fatal("NodeAvailable fired after unregister")
	case <-time.After(300 * time.Millisecond):
	}
}

// TestManagerInitBeforeAvailable tests that the init func runs between the
// two notifications and gates availability
func TestManagerInitBeforeAvailable(t *testing.T) {
	var initRan atomic.Bool
	init := func(conn transport.IConnection) error {
		if conn == nil {
			t.Error("init got a nil connection")
		}
		initRan.Store(true)
		return nil
	}

	m, ms, _ := newTestManager(&pipeConnector{})
	m.TryRegister("a", "x:1", init)

	<-ms.connected
	select {
	case <-ms.available:
		if !initRan.Load() {
			t.Fatal("node available before init resolved")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("NodeAvailable never fired")
	}
}

// TestManagerInitFailure tests that a failing init disconnects instead of
// publishing
func TestManagerInitFailure(t *testing.T) {
	init := func(conn transport.IConnection) error {
		return errors.New("handshake rejected")
	}

	m, ms, hs := newTestManager(&pipeConnector{})
	m.TryRegister("a", "x:1", init)

	<-ms.connected
	select {
	case <-hs.disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("failed init did not disconnect")
	}

	select {
	case <-ms.available:
		t.Fatal("NodeAvailable fired despite failed init")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestManagerRetriesColdConnect tests the backoff loop against scripted
// connect failures
func TestManagerRetriesColdConnect(t *testing.T) {
	m, ms, _ := newTestManager(&pipeConnector{failures: 3})
	m.TryRegister("a", "x:1", nil)

	select {
	case <-ms.available:
	case <-time.After(5 * time.Second):
		t.Fatal("node never became available after scripted failures")
	}
}

// TestManagerSurvivesImmediateDeath tests that a connection dying before
// the manager finished tracking it still leads to a reconnect instead of a
// stranded node
func TestManagerSurvivesImmediateDeath(t *testing.T) {
	m, ms, _ := newTestManager(&pipeConnector{deadFirst: 2})
	m.TryRegister("a", "x:1", nil)

	select {
	case <-ms.available:
	case <-time.After(5 * time.Second):
		t.Fatal("node stranded after connections died during setup")
	}
}

// TestManagerReconnectsAfterDrop tests that a lost connection is replaced
func TestManagerReconnectsAfterDrop(t *testing.T) {
	m, ms, hs := newTestManager(&pipeConnector{})
	m.TryRegister("a", "x:1", nil)
	<-ms.available

	// drop the live connection the way the client facade would report it
	m.mu.Lock()
	conn := m.conns[1]
	m.mu.Unlock()
	conn.BeginDisconnect(errors.New("peer reset"))
	m.OnDisconnected(conn)
	<-hs.disconnected

	select {
	case <-ms.available:
	case <-time.After(5 * time.Second):
		t.Fatal("node never reconnected after drop")
	}
}
