// Package coordinator drives a DKG round and signing rounds from the
// coordinator side of the protocol: broadcasting DkgBegin/NonceRequest/
// SignShareRequest and collecting the signers' responses off the relay.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"

	"github.com/frost-relay/frostrelay/internal/obslog"
	"github.com/frost-relay/frostrelay/primitives"
	"github.com/frost-relay/frostrelay/protocol"
	"github.com/frost-relay/frostrelay/relay/client"
)

// Coordinator runs DKG and signing rounds. It owns no network loop of its
// own: it reads from a Poller a caller already has running and writes
// through a Sender, exactly the single-threaded worker shape signer.Runner
// also follows.
type Coordinator struct {
	dir    *protocol.Directory
	sender *client.Sender
	poller *client.Poller
	log    obslog.Logger

	totalSigners  uint32
	totalKeys     uint32
	threshold     uint32
	roundDeadline time.Duration

	currentDkgID    uint64
	currentSignID   uint64
	correlationSeq  uint64
	dkgPublicShares map[uint32][]primitives.Point
	lastDkgReport   map[uint32]protocol.DkgStatus
	aggregateKey    primitives.Point
}

// New builds a coordinator for a fixed signer/key-id universe.
func New(dir *protocol.Directory, sender *client.Sender, poller *client.Poller, totalSigners, totalKeys, threshold uint32, roundDeadline time.Duration) *Coordinator {
	return &Coordinator{
		dir:             dir,
		sender:          sender,
		poller:          poller,
		log:             obslog.Default().Named("coordinator"),
		totalSigners:    totalSigners,
		totalKeys:       totalKeys,
		threshold:       threshold,
		roundDeadline:   roundDeadline,
		dkgPublicShares: make(map[uint32][]primitives.Point),
		lastDkgReport:   make(map[uint32]protocol.DkgStatus),
		aggregateKey:    primitives.IdentityPoint(),
	}
}

// RunDKG starts a fresh DKG round, broadcasts DkgBegin, and waits for
// every signer to report a DkgEnd (success or failure) before computing
// the round's aggregate public key from the gathered commitments.
func (c *Coordinator) RunDKG(ctx context.Context) error {
	c.currentDkgID++
	c.dkgPublicShares = make(map[uint32][]primitives.Point, c.totalKeys)
	c.lastDkgReport = make(map[uint32]protocol.DkgStatus, c.totalSigners)

	roundCtx, cancel := context.WithTimeout(ctx, c.roundDeadline)
	defer cancel()

	c.log.Info("starting dkg round", "dkg_id", c.currentDkgID)
	if err := c.sender.Send(roundCtx, protocol.DkgBegin{DkgID: c.currentDkgID}); err != nil {
		return fmt.Errorf("coordinator: broadcast dkg begin: %w", err)
	}

	publicEnds := make(map[uint32]bool, c.totalSigners)
	privateBeginSent := false

	for uint32(len(c.lastDkgReport)) < c.totalSigners {
		select {
		case env, ok := <-c.poller.Envelopes():
			if !ok {
				return fmt.Errorf("coordinator: relay poller closed mid-round")
			}
			switch m := env.Payload.(type) {
			case protocol.DkgPublicShare:
				if m.DkgID == c.currentDkgID {
					c.dkgPublicShares[m.PartyID] = m.Commitment
				}
			case protocol.DkgPublicEnd:
				if m.DkgID != c.currentDkgID || !m.Status.IsSuccess() {
					continue
				}
				publicEnds[m.SignerID] = true
				// Every signer has gathered every key id's commitment;
				// tell them all to move on to private-share distribution.
				// Nothing in this round's wire protocol has the signers
				// trigger this transition on their own.
				if !privateBeginSent && uint32(len(publicEnds)) == c.totalSigners {
					privateBeginSent = true
					if err := c.sender.Send(roundCtx, protocol.DkgPrivateBegin{DkgID: c.currentDkgID}); err != nil {
						return fmt.Errorf("coordinator: broadcast dkg private begin: %w", err)
					}
				}
			case protocol.DkgEnd:
				if m.DkgID == c.currentDkgID {
					c.lastDkgReport[m.SignerID] = m.Status
					c.log.Info("dkg end received", "dkg_id", m.DkgID, "signer_id", m.SignerID, "status", m.Status.String())
				}
			}
		case err := <-c.poller.Errors():
			c.log.Warn("poller error during dkg round", "err", err)
		case <-roundCtx.Done():
			return missingSignerIDsErr(c.totalSigners, c.lastDkgReport)
		}
	}

	c.aggregateKey = c.calculateAggregatePublicKey()
	c.log.Info("dkg round finished", "dkg_id", c.currentDkgID, "group_key", c.aggregateKey.String())
	return nil
}

// missingSignerIDsErr wraps ErrTimeout with one nested error per signer
// id in [1, total] absent from reported, so a caller logging the
// failure sees exactly which signers never responded instead of just
// "timed out".
func missingSignerIDsErr[V any](total uint32, reported map[uint32]V) error {
	var result *multierror.Error
	result = multierror.Append(result, ErrTimeout)
	for id := uint32(1); id <= total; id++ {
		if _, ok := reported[id]; !ok {
			result = multierror.Append(result, fmt.Errorf("signer %d never reported", id))
		}
	}
	return result
}

// missingKeyIDsErr is missingSignerIDsErr's key-id-keyed counterpart,
// used when a round times out waiting on per-key-id responses rather
// than one response per signer.
func missingKeyIDsErr[V any](total uint32, reported map[uint32]V) error {
	var result *multierror.Error
	result = multierror.Append(result, ErrTimeout)
	for id := uint32(1); id <= total; id++ {
		if _, ok := reported[id]; !ok {
			result = multierror.Append(result, fmt.Errorf("key id %d never reported", id))
		}
	}
	return result
}

func (c *Coordinator) calculateAggregatePublicKey() primitives.Point {
	out := primitives.IdentityPoint()
	ids := make([]uint32, 0, len(c.dkgPublicShares))
	for id := range c.dkgPublicShares {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		commitment := c.dkgPublicShares[id]
		if len(commitment) == 0 {
			continue
		}
		out = out.Add(commitment[0])
	}
	return out
}

// AggregatePublicKey returns the group public key computed by the last
// successful DKG round.
func (c *Coordinator) AggregatePublicKey() (primitives.Point, error) {
	if c.aggregateKey.IsIdentity() {
		return primitives.Point{}, ErrNoAggregatePublicKey
	}
	return c.aggregateKey, nil
}

// LastDkgReport returns a copy of every signer's reported outcome from the
// most recent DKG round, so an operator can see which signers failed.
func (c *Coordinator) LastDkgReport() map[uint32]protocol.DkgStatus {
	out := make(map[uint32]protocol.DkgStatus, len(c.lastDkgReport))
	for k, v := range c.lastDkgReport {
		out[k] = v
	}
	return out
}

// Sign runs one signing round over an already-established group key:
// requesting nonces, gathering them, broadcasting a signature-share
// request, and aggregating the returned shares into a signature.
func (c *Coordinator) Sign(ctx context.Context, message []byte) (*primitives.Signature, error) {
	if c.aggregateKey.IsIdentity() {
		return nil, ErrNoAggregatePublicKey
	}

	roundCtx, cancel := context.WithTimeout(ctx, c.roundDeadline)
	defer cancel()

	c.currentSignID++
	signID := c.currentSignID

	if err := c.sender.Send(roundCtx, protocol.NonceRequest{DkgID: c.currentDkgID, SignID: signID, SignNonceID: 1}); err != nil {
		return nil, fmt.Errorf("coordinator: broadcast nonce request: %w", err)
	}

	responses := make(map[uint32]protocol.NonceResponse)
	seenKeyIDs := make(map[uint32]bool, c.totalKeys)
	for uint32(len(seenKeyIDs)) < c.totalKeys {
		select {
		case env, ok := <-c.poller.Envelopes():
			if !ok {
				return nil, fmt.Errorf("coordinator: relay poller closed mid-round")
			}
			nr, ok := env.Payload.(protocol.NonceResponse)
			if !ok || nr.SignID != signID {
				continue
			}
			responses[nr.SignerID] = nr
			for _, k := range nr.KeyIDs {
				seenKeyIDs[k] = true
			}
		case err := <-c.poller.Errors():
			c.log.Warn("poller error during nonce gather", "err", err)
		case <-roundCtx.Done():
			return nil, missingKeyIDsErr(c.totalKeys, seenKeyIDs)
		}
	}

	signerIDs := make([]uint32, 0, len(responses))
	for id := range responses {
		signerIDs = append(signerIDs, id)
	}
	slices.Sort(signerIDs)
	nonceResponses := make([]protocol.NonceResponse, 0, len(signerIDs))
	for _, id := range signerIDs {
		nonceResponses = append(nonceResponses, responses[id])
	}

	c.correlationSeq++
	req := protocol.SignShareRequest{
		DkgID:          c.currentDkgID,
		SignID:         signID,
		CorrelationID:  c.correlationSeq,
		NonceResponses: nonceResponses,
		Message:        message,
	}
	if err := c.sender.Send(roundCtx, req); err != nil {
		return nil, fmt.Errorf("coordinator: broadcast signature share request: %w", err)
	}

	shares := make(map[uint32]primitives.Scalar)
	for uint32(len(shares)) < c.totalKeys {
		select {
		case env, ok := <-c.poller.Envelopes():
			if !ok {
				return nil, fmt.Errorf("coordinator: relay poller closed mid-round")
			}
			sr, ok := env.Payload.(protocol.SignShareResponse)
			if !ok || sr.SignID != signID {
				continue
			}
			scalars, err := sr.Scalars()
			if err != nil {
				c.log.Warn("invalid signature share", "signer_id", sr.SignerID, "err", err)
				continue
			}
			for k, v := range scalars {
				shares[k] = v
			}
		case err := <-c.poller.Errors():
			c.log.Warn("poller error during signature share gather", "err", err)
		case <-roundCtx.Done():
			return nil, missingKeyIDsErr(c.totalKeys, shares)
		}
	}

	var commitments []primitives.NonceCommitment
	for _, nr := range nonceResponses {
		commitments = append(commitments, nr.Nonces...)
	}
	agg, err := primitives.NewAggregator(c.aggregateKey, message, commitments)
	if err != nil {
		return nil, fmt.Errorf("coordinator: build aggregator: %w", err)
	}
	sig, err := agg.Sign(shares)
	if err != nil {
		return nil, fmt.Errorf("coordinator: aggregate signature: %w", err)
	}
	return sig, nil
}

// DkgSign runs a fresh DKG round followed by one signing round over its
// resulting group key, the combined operation the dkg-sign CLI
// subcommand exposes.
func (c *Coordinator) DkgSign(ctx context.Context, message []byte) (*primitives.Signature, error) {
	if err := c.RunDKG(ctx); err != nil {
		return nil, err
	}
	return c.Sign(ctx, message)
}
