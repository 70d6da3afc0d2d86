package client

import (
	"sync/atomic"
	"time"

	"github.com/cato541265/sockrpc/protocol"
	"github.com/cato541265/sockrpc/transport"
)

// --------------------------------------------------------------------------
// Request
// --------------------------------------------------------------------------

// ResultFunc receives the correlated response message of a request
type ResultFunc func(msg protocol.IMessage)

// ExceptionFunc receives the terminal error of a request (*RequestError)
type ExceptionFunc func(err error)

// Request is one in-flight call. A request completes exactly once, either
// through its result or its exception callback; the receiving registry's
// atomic remove is the serialization point for every completing path.
type Request struct {
	seqID            int32
	name             string
	payload          []byte
	receiveTimeoutMs int
	allowRetry       bool

	createdTime time.Time
	sentNano    atomic.Int64 // unix nanos of send completion, 0 = not sent

	conn atomic.Value // transport.IConnection currently carrying the request

	onResult    ResultFunc
	onException ExceptionFunc
}

// SeqID returns the client issued sequence id, unique per client lifetime
func (r *Request) SeqID() int32 {
	return r.seqID
}

// Name returns the logical method name, echoed in errors
func (r *Request) Name() string {
	return r.name
}

// Payload implements transport.IPacket
func (r *Request) Payload() []byte {
	return r.payload
}

// SetPayload replaces the wire payload. Protocols that frame the sequence
// id into the payload need the id first; create the request, frame with
// SeqID, then set the payload. Must happen before Send.
func (r *Request) SetPayload(payload []byte) {
	r.payload = payload
}

// CreatedTime returns when the request was created
func (r *Request) CreatedTime() time.Time {
	return r.createdTime
}

// SentTime returns when the send completed, zero if it has not
func (r *Request) SentTime() time.Time {
	n := r.sentNano.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// SetAllowRetry controls whether transient send failures re-dispatch the
// request. Enabled by default; must be set before Send.
func (r *Request) SetAllowRetry(allow bool) {
	r.allowRetry = allow
}

// markSent records the send completion time
func (r *Request) markSent(t time.Time) {
	r.sentNano.Store(t.UnixNano())
}

// connHolder gives atomic.Value a single concrete type to hold
type connHolder struct {
	conn transport.IConnection
}

// setConnection records the connection carrying the request
func (r *Request) setConnection(conn transport.IConnection) {
	r.conn.Store(connHolder{conn: conn})
}

// clearConnection detaches the request from its connection and resets the
// sent time, preparing a re-dispatch
func (r *Request) clearConnection() {
	r.conn.Store(connHolder{})
	r.sentNano.Store(0)
}

// connection returns the connection currently carrying the request, nil if
// none
func (r *Request) connection() transport.IConnection {
	v := r.conn.Load()
	if v == nil {
		return nil
	}
	return v.(connHolder).conn
}
