// Package endpoint supervises the set of named remote endpoints a client is
// registered against. Each node gets an independent connect loop that dials
// the endpoint, applies socket tuning, runs the optional init handshake and
// announces the connection, retrying with a randomized backoff on failure.
//
// Two backoff windows are used: cold connect failures retry after
// 1000-3000 ms while reconnects after a peer initiated drop use 100-1500 ms,
// since a quick reconnect is likely to succeed after such a drop. Every
// delay is a fresh uniform draw.
package endpoint
