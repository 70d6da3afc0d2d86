package client

import (
	"sync/atomic"
	"testing"
	"time"
)

func testRequest(seqID int32, receiveTimeoutMs int) *Request {
	return &Request{
		seqID:            seqID,
		name:             "test",
		receiveTimeoutMs: receiveTimeoutMs,
		allowRetry:       true,
		createdTime:      time.Now(),
	}
}

// TestRegistryAddRemove tests the add/remove contract
func TestRegistryAddRemove(t *testing.T) {
	g := newReceivingRegistry(func(req *Request) {})

	req := testRequest(1, 1000)
	if !g.tryAdd(req) {
		t.Fatal("first add rejected")
	}
	if g.tryAdd(req) {
		t.Fatal("duplicate sequence id accepted")
	}

	removed, ok := g.tryRemove(1)
	if !ok || removed != req {
		t.Fatal("remove did not return the registered request")
	}
	if _, ok := g.tryRemove(1); ok {
		t.Fatal("second remove succeeded")
	}
}

// TestRegistryScanSkipsUnsent tests that requests whose send callback has
// not arrived yet never time out
func TestRegistryScanSkipsUnsent(t *testing.T) {
	var fired atomic.Int32
	g := newReceivingRegistry(func(req *Request) { fired.Add(1) })

	req := testRequest(1, 1)
	g.tryAdd(req)

	// sent time is still zero, even a scan far in the future keeps it
	g.scan(time.Now().Add(time.Hour))

	if fired.Load() != 0 {
		t.Fatal("unsent request timed out")
	}
	if g.size() != 1 {
		t.Fatal("unsent request evicted")
	}
}

// TestRegistryScanTimesOut tests that overdue requests are removed exactly
// once
func TestRegistryScanTimesOut(t *testing.T) {
	var fired atomic.Int32
	g := newReceivingRegistry(func(req *Request) { fired.Add(1) })

	overdue := testRequest(1, 100)
	overdue.markSent(time.Now().Add(-time.Second))
	g.tryAdd(overdue)

	fresh := testRequest(2, 100)
	fresh.markSent(time.Now())
	g.tryAdd(fresh)

	now := time.Now()
	g.scan(now)
	g.scan(now)

	if fired.Load() != 1 {
		t.Fatalf("timeout fired %d times, want 1", fired.Load())
	}
	if _, ok := g.tryRemove(2); !ok {
		t.Fatal("fresh request was evicted")
	}
}

// TestRegistryTimerFires tests the armed scan end to end
func TestRegistryTimerFires(t *testing.T) {
	fired := make(chan *Request, 1)
	g := newReceivingRegistry(func(req *Request) { fired <- req })
	g.start()
	defer g.stop()

	req := testRequest(7, 50)
	req.markSent(time.Now())
	g.tryAdd(req)

	select {
	case got := <-fired:
		if got.seqID != 7 {
			t.Fatalf("timed out seq %d, want 7", got.seqID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("armed scan never fired")
	}
}
