package pool

import (
	"sync"

	"github.com/cato541265/sockrpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Sync Pool
// --------------------------------------------------------------------------

// syncPool serves protocols with one outstanding request per connection:
// TryAcquire pops an idle connection off a LIFO stack, Release pushes it
// back. Membership is tracked in a concurrent map, a destroyed connection
// left on the stack is recognized as stale and skipped when popped.
type syncPool struct {
	conns *xsync.MapOf[int64, transport.IConnection]

	mu   sync.Mutex
	idle []transport.IConnection // LIFO, top at the end
}

func newSyncPool() *syncPool {
	return &syncPool{
		conns: xsync.NewMapOf[int64, transport.IConnection](),
	}
}

func (p *syncPool) Register(conn transport.IConnection) {
	p.conns.Store(conn.ConnectionID(), conn)

	p.mu.Lock()
	p.idle = append(p.idle, conn)
	p.mu.Unlock()

	Logger.Debugf("sync pool: registered connection %d", conn.ConnectionID())
}

func (p *syncPool) TryAcquire() (transport.IConnection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.idle) > 0 {
		conn := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]

		// skip stale stack entries of destroyed connections
		if _, ok := p.conns.Load(conn.ConnectionID()); ok {
			return conn, true
		}
	}
	return nil, false
}

func (p *syncPool) Release(conn transport.IConnection) {
	// only re-admit connections that are still members
	if _, ok := p.conns.Load(conn.ConnectionID()); !ok {
		return
	}

	p.mu.Lock()
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

func (p *syncPool) Destroy(conn transport.IConnection) {
	p.conns.Delete(conn.ConnectionID())
	Logger.Debugf("sync pool: destroyed connection %d", conn.ConnectionID())
}
