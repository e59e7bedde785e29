package signer

import (
	"context"
	"fmt"

	"github.com/frost-relay/frostrelay/internal/obslog"
	"github.com/frost-relay/frostrelay/protocol"
	"github.com/frost-relay/frostrelay/relay/client"
)

// Runner drives a Signer off a relay connection: every verified inbound
// envelope from the Poller is handed to Signer.Process, and every payload
// it returns is signed and posted back out through the Sender. This is
// the single-threaded worker half of the poller/worker split. Runner
// starts no goroutine of its own: the caller runs the Poller's goroutine.
type Runner struct {
	signer *Signer
	poller *client.Poller
	sender *client.Sender
	log    obslog.Logger
}

// NewRunner builds a runner wiring signer to an already-constructed
// poller/sender pair.
func NewRunner(signer *Signer, poller *client.Poller, sender *client.Sender) *Runner {
	return &Runner{
		signer: signer,
		poller: poller,
		sender: sender,
		log:    obslog.Default().Named("signer"),
	}
}

// Run processes inbound envelopes until ctx is cancelled or the poller's
// channel is closed.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-r.poller.Errors():
			r.log.Warn("poller error", "err", err)
		case env, ok := <-r.poller.Envelopes():
			if !ok {
				return nil
			}
			if err := r.handle(ctx, env); err != nil {
				r.log.Error("process envelope", "kind", env.Payload.Kind(), "err", err)
			}
		}
	}
}

func (r *Runner) handle(ctx context.Context, env protocol.Envelope) error {
	outputs, err := r.signer.Process(env.Payload)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}
	for _, out := range outputs {
		if err := r.sender.Send(ctx, out); err != nil {
			return fmt.Errorf("signer: send %s: %w", out.Kind(), err)
		}
	}
	return nil
}
