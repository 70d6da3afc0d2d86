// Package client implements the asynchronous RPC client core: it
// multiplexes many in-flight requests over a managed set of socket
// connections to named remote endpoints.
//
// A caller builds a Request with NewRequest (fresh 31 bit sequence id,
// per-request receive deadline, result and exception callbacks) and hands it
// to Send. The client acquires a connection from its pool, writes the
// payload, indexes the request by sequence id in the receiving registry and
// completes it when the correlated response arrives, retrying transient
// send failures and surfacing timeouts as typed errors:
//
//   - KindPendingSendTimeout: never got sent within the send timeout
//   - KindSendFailed: transport send failure with retries disabled
//   - KindReceiveTimeout: no response within the per request deadline
//
// Every request completes exactly once. The registry's atomic remove is the
// serialization point between an arriving response, the timeout scan and a
// failed send; all user callbacks run on a worker pool, never on an I/O
// goroutine and never under an internal lock.
//
// Endpoints are registered by name (TryRegisterEndpoint) and supervised by
// the endpoint manager, which reconnects with randomized backoff and feeds
// healthy connections into the pool. Requests submitted while no connection
// is up wait in the pending send queue and are drained as connections come
// up.
package client
