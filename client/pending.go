package client

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// pendingTickInterval is how often the pending queue attempts a drain
const pendingTickInterval = 50 * time.Millisecond

// --------------------------------------------------------------------------
// Pending Send Queue
// --------------------------------------------------------------------------

// pendingQueue buffers requests submitted while no connection was available.
// A periodic one-shot tick drains it: each tick snapshots the length and
// dequeues at most that many entries, so a tick terminates even when every
// re-dispatch lands back in the queue.
type pendingQueue struct {
	queue *xsync.MPMCQueueOf[*Request]
	size  atomic.Int64

	sendTimeout time.Duration
	dispatch    func(req *Request)
	onTimeout   func(req *Request)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newPendingQueue(
	capacity int,
	sendTimeout time.Duration,
	dispatch func(req *Request),
	onTimeout func(req *Request),
) *pendingQueue {
	return &pendingQueue{
		queue:       xsync.NewMPMCQueueOf[*Request](capacity),
		sendTimeout: sendTimeout,
		dispatch:    dispatch,
		onTimeout:   onTimeout,
	}
}

// enqueue buffers a request, false if the queue is at capacity
func (q *pendingQueue) enqueue(req *Request) bool {
	if !q.queue.TryEnqueue(req) {
		return false
	}
	q.size.Add(1)
	return true
}

// length returns the number of buffered requests
func (q *pendingQueue) length() int {
	return int(q.size.Load())
}

// start arms the periodic drain. The timer re-arms itself after each tick
// completes so ticks never overlap.
func (q *pendingQueue) start() {
	q.arm()
}

func (q *pendingQueue) arm() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.timer = time.AfterFunc(pendingTickInterval, func() {
		q.tick(time.Now())
		q.arm()
	})
}

// stop cancels the drain tick
func (q *pendingQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	if q.timer != nil {
		q.timer.Stop()
	}
}

// tick drains up to the snapshotted length. Requests past the send deadline
// fail, the rest are re-dispatched (and may re-enter the queue).
func (q *pendingQueue) tick(now time.Time) {
	n := q.size.Load()
	for i := int64(0); i < n; i++ {
		req, ok := q.queue.TryDequeue()
		if !ok {
			return
		}
		q.size.Add(-1)

		if now.Sub(req.createdTime) >= q.sendTimeout {
			q.onTimeout(req)
			continue
		}
		q.dispatch(req)
	}
}
