package pool

import (
	"github.com/cato541265/sockrpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("sockrpc/pool")

// --------------------------------------------------------------------------
// Pool Contract
// --------------------------------------------------------------------------

// IConnectionPool is the contract shared by both pool variants. Which
// variant a client uses is fixed at construction time from the protocol's
// multiplexing mode.
type IConnectionPool interface {
	// Register makes a connection eligible for acquisition
	Register(conn transport.IConnection)

	// TryAcquire returns a connection to send on, if any is available
	TryAcquire() (transport.IConnection, bool)

	// Release returns a previously acquired connection. A no-op for the
	// async pool.
	Release(conn transport.IConnection)

	// Destroy removes a connection from the pool. Idempotent.
	Destroy(conn transport.IConnection)
}

// New selects the pool variant for the given protocol mode
func New(async bool) IConnectionPool {
	if async {
		return newAsyncPool()
	}
	return newSyncPool()
}
