package client

import (
	"context"
	"fmt"

	"github.com/frost-relay/frostrelay/primitives"
	"github.com/frost-relay/frostrelay/protocol"
)

// Sender signs and posts outbound payloads to the relay.
type Sender struct {
	client *Client
	key    *primitives.SigningKey
}

// NewSender builds a sender that authenticates every outbound payload
// with key.
func NewSender(c *Client, key *primitives.SigningKey) *Sender {
	return &Sender{client: c, key: key}
}

// Send signs payload, encodes the resulting envelope, and posts it,
// retrying transport failures under the relay's back-off schedule until
// ctx is done.
func (s *Sender) Send(ctx context.Context, payload protocol.Payload) error {
	env := protocol.Sign(payload, s.key)
	body, err := protocol.Marshal(env)
	if err != nil {
		return fmt.Errorf("client: marshal outbound envelope: %w", err)
	}
	if err := s.client.Post(ctx, body); err != nil {
		return fmt.Errorf("client: send %s: %w", payload.Kind(), err)
	}
	return nil
}
