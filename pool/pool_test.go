package pool

import (
	"net"
	"testing"

	"github.com/cato541265/sockrpc/transport"
)

// stubConn is a minimal IConnection for pool tests
type stubConn struct {
	id int64
}

func (s *stubConn) ConnectionID() int64           { return s.id }
func (s *stubConn) RemoteAddr() net.Addr          { return nil }
func (s *stubConn) BeginSend(p transport.IPacket) {}
func (s *stubConn) BeginReceive()                 {}
func (s *stubConn) BeginDisconnect(err error)     {}
func (s *stubConn) Closed() bool                  { return false }

// --------------------------------------------------------------------------
// Async Pool
// --------------------------------------------------------------------------

// TestAsyncPoolEmpty tests that acquisition fails on an empty pool
func TestAsyncPoolEmpty(t *testing.T) {
	p := New(true)
	if _, ok := p.TryAcquire(); ok {
		t.Fatal("acquired from empty pool")
	}
}

// TestAsyncPoolRoundRobin tests that requests spread evenly over stable
// connections
func TestAsyncPoolRoundRobin(t *testing.T) {
	p := New(true)

	conns := []*stubConn{{id: 1}, {id: 2}, {id: 3}}
	for _, c := range conns {
		p.Register(c)
	}

	counts := make(map[int64]int)
	for i := 0; i < 3*100; i++ {
		conn, ok := p.TryAcquire()
		if !ok {
			t.Fatal("acquisition failed with registered connections")
		}
		counts[conn.ConnectionID()]++
		p.Release(conn)
	}

	// round robin: the per connection counts differ by at most 1
	min, max := counts[1], counts[1]
	for _, c := range conns {
		n := counts[c.ConnectionID()]
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	if max-min > 1 {
		t.Fatalf("unfair distribution: %v", counts)
	}
}

// TestAsyncPoolSingleConnection tests the single connection fast path
func TestAsyncPoolSingleConnection(t *testing.T) {
	p := New(true)
	c := &stubConn{id: 7}
	p.Register(c)

	for i := 0; i < 10; i++ {
		conn, ok := p.TryAcquire()
		if !ok || conn.ConnectionID() != 7 {
			t.Fatalf("acquired %v", conn)
		}
	}
}

// TestAsyncPoolDestroy tests that destroyed connections leave the rotation
func TestAsyncPoolDestroy(t *testing.T) {
	p := New(true)
	c1, c2 := &stubConn{id: 1}, &stubConn{id: 2}
	p.Register(c1)
	p.Register(c2)

	p.Destroy(c1)
	for i := 0; i < 10; i++ {
		conn, ok := p.TryAcquire()
		if !ok {
			t.Fatal("acquisition failed with one connection left")
		}
		if conn.ConnectionID() == 1 {
			t.Fatal("acquired destroyed connection")
		}
	}

	p.Destroy(c2)
	if _, ok := p.TryAcquire(); ok {
		t.Fatal("acquired from emptied pool")
	}

	// destroy is idempotent
	p.Destroy(c2)
}

// TestAsyncPoolRegisterTwice tests that double registration is a no-op
func TestAsyncPoolRegisterTwice(t *testing.T) {
	p := New(true).(*asyncPool)
	c := &stubConn{id: 1}
	p.Register(c)
	p.Register(c)

	if n := len(*p.snapshot.Load()); n != 1 {
		t.Fatalf("snapshot holds %d entries, want 1", n)
	}
}

// --------------------------------------------------------------------------
// Sync Pool
// --------------------------------------------------------------------------

// TestSyncPoolExclusive tests that a connection is handed out at most once
// until released
func TestSyncPoolExclusive(t *testing.T) {
	p := New(false)
	c1, c2 := &stubConn{id: 1}, &stubConn{id: 2}
	p.Register(c1)
	p.Register(c2)

	a, ok := p.TryAcquire()
	if !ok {
		t.Fatal("first acquisition failed")
	}
	b, ok := p.TryAcquire()
	if !ok {
		t.Fatal("second acquisition failed")
	}
	if a.ConnectionID() == b.ConnectionID() {
		t.Fatal("same connection handed out twice")
	}
	if _, ok := p.TryAcquire(); ok {
		t.Fatal("acquired beyond pool size")
	}

	p.Release(a)
	c, ok := p.TryAcquire()
	if !ok || c.ConnectionID() != a.ConnectionID() {
		t.Fatalf("released connection not reacquired: %v", c)
	}
}

// TestSyncPoolLIFO tests that the most recently released connection is
// handed out first
func TestSyncPoolLIFO(t *testing.T) {
	p := New(false)
	c1, c2 := &stubConn{id: 1}, &stubConn{id: 2}
	p.Register(c1)
	p.Register(c2)

	// stack top is the latest registration
	a, _ := p.TryAcquire()
	if a.ConnectionID() != 2 {
		t.Fatalf("acquired %d, want 2", a.ConnectionID())
	}
}

// TestSyncPoolStalePop tests that a destroyed connection left on the stack
// is skipped when popped
func TestSyncPoolStalePop(t *testing.T) {
	p := New(false)
	c1, c2 := &stubConn{id: 1}, &stubConn{id: 2}
	p.Register(c1)
	p.Register(c2)

	// destroy the stack top without acquiring it first
	p.Destroy(c2)

	conn, ok := p.TryAcquire()
	if !ok {
		t.Fatal("acquisition failed with a live connection below the stale entry")
	}
	if conn.ConnectionID() != 1 {
		t.Fatalf("acquired stale connection %d", conn.ConnectionID())
	}
}

// TestSyncPoolReleaseAfterDestroy tests that a destroyed connection is not
// re-admitted on release
func TestSyncPoolReleaseAfterDestroy(t *testing.T) {
	p := New(false)
	c := &stubConn{id: 1}
	p.Register(c)

	conn, _ := p.TryAcquire()
	p.Destroy(conn)
	p.Release(conn)

	if _, ok := p.TryAcquire(); ok {
		t.Fatal("acquired connection that was destroyed while held")
	}
}
