package client

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// receiveScanInterval is how often the registry scans for receive timeouts
const receiveScanInterval = 500 * time.Millisecond

// --------------------------------------------------------------------------
// Receiving Registry
// --------------------------------------------------------------------------

// receivingRegistry indexes in-flight requests by sequence id. tryRemove is
// the single serialization point for completion: whichever path removes a
// request (response, timeout, send failure) owns its completion.
type receivingRegistry struct {
	items     *xsync.MapOf[int32, *Request]
	onTimeout func(req *Request)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newReceivingRegistry(onTimeout func(req *Request)) *receivingRegistry {
	return &receivingRegistry{
		items:     xsync.NewMapOf[int32, *Request](),
		onTimeout: onTimeout,
	}
}

// tryAdd registers a request, false if the sequence id is already present
func (g *receivingRegistry) tryAdd(req *Request) bool {
	_, loaded := g.items.LoadOrStore(req.seqID, req)
	return !loaded
}

// tryRemove atomically removes and returns the request for a sequence id
func (g *receivingRegistry) tryRemove(seqID int32) (*Request, bool) {
	return g.items.LoadAndDelete(seqID)
}

// size returns the number of in-flight requests
func (g *receivingRegistry) size() int {
	return g.items.Size()
}

// start arms the periodic timeout scan. The timer re-arms itself after each
// scan completes so ticks never overlap.
func (g *receivingRegistry) start() {
	g.arm()
}

func (g *receivingRegistry) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.timer = time.AfterFunc(receiveScanInterval, func() {
		g.scan(time.Now())
		g.arm()
	})
}

// stop cancels the timeout scan
func (g *receivingRegistry) stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
	}
}

// scan surfaces every request whose response deadline has passed. Requests
// whose send callback has not been delivered yet (sent time zero) are not
// timing out yet.
func (g *receivingRegistry) scan(now time.Time) {
	g.items.Range(func(seqID int32, req *Request) bool {
		sent := req.sentNano.Load()
		if sent == 0 {
			return true
		}
		deadline := time.Duration(req.receiveTimeoutMs) * time.Millisecond
		if now.Sub(time.Unix(0, sent)) <= deadline {
			return true
		}

		// the remove decides the race against an arriving response
		if removed, ok := g.items.LoadAndDelete(seqID); ok {
			g.onTimeout(removed)
		}
		return true
	})
}
