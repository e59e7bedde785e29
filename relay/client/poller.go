package client

import (
	"context"
	"fmt"
	"time"

	"github.com/frost-relay/frostrelay/internal/backoff"
	"github.com/frost-relay/frostrelay/protocol"
)

// Poller repeatedly pulls for readerID's next message, decodes and
// verifies its envelope, and pushes it onto a buffered channel for a
// worker to consume. This is the cooperative-I/O half of the
// poller/worker split: every suspension point is a network call or a
// back-off sleep, never a crypto operation.
type Poller struct {
	client   *Client
	readerID string
	dir      *protocol.Directory
	out      chan protocol.Envelope
	errs     chan error
}

// NewPoller builds a poller for readerID, delivering verified envelopes
// to a channel of the given buffer size.
func NewPoller(c *Client, readerID string, dir *protocol.Directory, bufferSize int) *Poller {
	return &Poller{
		client:   c,
		readerID: readerID,
		dir:      dir,
		out:      make(chan protocol.Envelope, bufferSize),
		errs:     make(chan error, bufferSize),
	}
}

// Envelopes returns the channel verified envelopes are delivered on.
func (p *Poller) Envelopes() <-chan protocol.Envelope {
	return p.out
}

// Errors returns the channel envelope decode and verification errors are
// reported on; it never carries failed GET requests, which are retried
// silently under the back-off schedule.
func (p *Poller) Errors() <-chan error {
	return p.errs
}

// Run polls until ctx is cancelled, closing both channels on exit.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.out)
	defer close(p.errs)

	sched := backoff.DefaultRelaySchedule()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		body, err := p.client.Get(ctx, p.readerID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.sleep(ctx, sched.Next())
			continue
		}
		if body == nil {
			p.sleep(ctx, sched.Next())
			continue
		}
		sched.Reset()

		env, err := protocol.Unmarshal(body)
		if err != nil {
			p.reportError(fmt.Errorf("client: decode envelope: %w", err))
			continue
		}
		if err := env.Verify(p.dir); err != nil {
			p.reportError(fmt.Errorf("client: reject envelope: %w", err))
			continue
		}

		select {
		case p.out <- env:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (p *Poller) reportError(err error) {
	select {
	case p.errs <- err:
	default:
	}
}
