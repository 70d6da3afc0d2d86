package pool

import (
	"sync"
	"sync/atomic"

	"github.com/cato541265/sockrpc/transport"
)

// --------------------------------------------------------------------------
// Async Pool
// --------------------------------------------------------------------------

// asyncPool serves protocols that multiplex requests: every registered
// connection is continuously available and requests are spread round-robin.
// Readers select on an immutable snapshot published atomically, writers
// serialize on a mutex and rebuild the snapshot.
type asyncPool struct {
	mu       sync.Mutex
	conns    []transport.IConnection
	snapshot atomic.Pointer[[]transport.IConnection]
	counter  uint32 // atomic round robin counter
}

func newAsyncPool() *asyncPool {
	p := &asyncPool{}
	empty := make([]transport.IConnection, 0)
	p.snapshot.Store(&empty)
	return p
}

func (p *asyncPool) Register(conn transport.IConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.conns {
		if c.ConnectionID() == conn.ConnectionID() {
			return
		}
	}
	p.conns = append(p.conns, conn)
	p.publish()
	Logger.Debugf("async pool: registered connection %d (%d total)", conn.ConnectionID(), len(p.conns))
}

func (p *asyncPool) TryAcquire() (transport.IConnection, bool) {
	snap := *p.snapshot.Load()

	switch len(snap) {
	case 0:
		return nil, false
	case 1:
		return snap[0], true
	default:
		idx := int(atomic.AddUint32(&p.counter, 1)&0x7fffffff) % len(snap)
		return snap[idx], true
	}
}

// Release is a no-op: an async connection never leaves the rotation
func (p *asyncPool) Release(conn transport.IConnection) {}

func (p *asyncPool) Destroy(conn transport.IConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, c := range p.conns {
		if c.ConnectionID() == conn.ConnectionID() {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			p.publish()
			Logger.Debugf("async pool: destroyed connection %d (%d left)", conn.ConnectionID(), len(p.conns))
			return
		}
	}
}

// publish rebuilds the immutable snapshot, caller must hold p.mu
func (p *asyncPool) publish() {
	snap := make([]transport.IConnection, len(p.conns))
	copy(snap, p.conns)
	p.snapshot.Store(&snap)
}
