package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frost-relay/frostrelay/primitives"
	"github.com/frost-relay/frostrelay/protocol"
	"github.com/frost-relay/frostrelay/relay/server"
)

func newTestServer(t *testing.T) (*httptest.Server, *server.Queue) {
	t.Helper()
	q := server.NewQueue()
	srv := httptest.NewServer(server.Handler(q))
	t.Cleanup(srv.Close)
	return srv, q
}

func testDirectoryAndKeys(t *testing.T) (*protocol.Directory, *primitives.SigningKey) {
	t.Helper()
	coordKey, err := primitives.GenerateSigningKey()
	if err != nil {
		t.Fatalf("generate coordinator key: %v", err)
	}
	dir := protocol.NewDirectory(coordKey.PublicKey(), nil, nil)
	return dir, coordKey
}

func TestSenderThenPollerRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	dir, coordKey := testDirectoryAndKeys(t)

	c := New(srv.URL)
	sender := NewSender(c, coordKey)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := sender.Send(ctx, protocol.DkgBegin{DkgID: 1}); err != nil {
		t.Fatalf("send: %v", err)
	}

	poller := NewPoller(c, "reader-1", dir, 4)
	pollCtx, pollCancel := context.WithCancel(ctx)
	go poller.Run(pollCtx)

	select {
	case env := <-poller.Envelopes():
		begin, ok := env.Payload.(protocol.DkgBegin)
		if !ok {
			t.Fatalf("expected DkgBegin, got %T", env.Payload)
		}
		if begin.DkgID != 1 {
			t.Fatalf("expected dkg id 1, got %d", begin.DkgID)
		}
	case err := <-poller.Errors():
		t.Fatalf("unexpected poller error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for polled envelope")
	}
	pollCancel()
}

func TestGetReturnsNilOnEmptyQueue(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	body, err := c.Get(ctx, "reader-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if body != nil {
		t.Fatalf("expected nil body on empty queue, got %v", body)
	}
}
