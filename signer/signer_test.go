package signer

import (
	"testing"

	"github.com/frost-relay/frostrelay/primitives"
	"github.com/frost-relay/frostrelay/protocol"
)

func testHarness(t *testing.T) ([]*Signer, *protocol.Directory) {
	t.Helper()
	const total = 3
	const threshold = 2

	coordKey, err := primitives.GenerateSigningKey()
	if err != nil {
		t.Fatalf("generate coordinator key: %v", err)
	}

	netKeys := make(map[uint32]*primitives.SigningKey, total)
	keyIDKeys := make(map[uint32][33]byte, total)
	signerKeys := make(map[uint32][33]byte, total)
	for id := uint32(1); id <= total; id++ {
		k, err := primitives.GenerateSigningKey()
		if err != nil {
			t.Fatalf("generate signer key %d: %v", id, err)
		}
		netKeys[id] = k
		keyIDKeys[id] = k.PublicKey()
		signerKeys[id] = k.PublicKey()
	}

	dir := protocol.NewDirectory(coordKey.PublicKey(), signerKeys, keyIDKeys)

	signers := make([]*Signer, 0, total)
	for id := uint32(1); id <= total; id++ {
		signers = append(signers, New(id, []uint32{id}, threshold, total, dir, netKeys[id]))
	}
	return signers, dir
}

// runDkg drives every signer through a full DKG round, relaying each
// emitted payload to every signer (including its own author) the way the
// shared relay queue would, and returns the observed DkgEnd statuses.
func runDkg(t *testing.T, signers []*Signer, dkgID uint64) []protocol.DkgEnd {
	t.Helper()
	broadcast := func(payloads []protocol.Payload) []protocol.Payload {
		var next []protocol.Payload
		for _, p := range payloads {
			for _, s := range signers {
				out, err := s.Process(p)
				if err != nil {
					t.Fatalf("process %s: %v", p.Kind(), err)
				}
				next = append(next, out...)
			}
		}
		return next
	}

	pending := []protocol.Payload{protocol.DkgBegin{DkgID: dkgID}}
	var ends []protocol.DkgEnd
	for i := 0; i < 10 && len(pending) > 0; i++ {
		next := broadcast(pending)
		var filtered []protocol.Payload
		for _, p := range next {
			if end, ok := p.(protocol.DkgEnd); ok {
				ends = append(ends, end)
				continue
			}
			if p.Kind() == protocol.KindDkgPublicEnd {
				continue
			}
			filtered = append(filtered, p)
		}
		// once every signer has reported DkgPublicEnd, the test harness
		// plays the coordinator's role and issues DkgPrivateBegin.
		if len(ends) == 0 && containsKind(next, protocol.KindDkgPublicEnd, len(signers)) {
			filtered = append(filtered, protocol.DkgPrivateBegin{DkgID: dkgID})
		}
		pending = filtered
	}
	return ends
}

func containsKind(payloads []protocol.Payload, k protocol.Kind, want int) bool {
	n := 0
	for _, p := range payloads {
		if p.Kind() == k {
			n++
		}
	}
	return n >= want
}

func TestSignerDkgRoundSucceeds(t *testing.T) {
	signers, _ := testHarness(t)
	ends := runDkg(t, signers, 1)
	if len(ends) != len(signers) {
		t.Fatalf("expected %d DkgEnd, got %d", len(signers), len(ends))
	}
	for _, e := range ends {
		if !e.Status.IsSuccess() {
			t.Fatalf("signer %d reported failure: %s", e.SignerID, e.Status)
		}
	}
	for _, s := range signers {
		if s.State() != StateIdle {
			t.Fatalf("signer %d left in state %s, want Idle", s.signerID, s.State())
		}
	}

	groupKeys := make(map[string]bool)
	for _, s := range signers {
		groupKeys[s.GroupPublicKey().String()] = true
	}
	if len(groupKeys) != 1 {
		t.Fatalf("signers disagree on group public key: %v", groupKeys)
	}
}

func TestSignerSignRoundProducesVerifiableSignature(t *testing.T) {
	signers, _ := testHarness(t)
	runDkg(t, signers, 1)

	message := []byte("settle the invoice")
	nr := protocol.NonceRequest{DkgID: 1, SignID: 7, SignNonceID: 1}

	var responses []protocol.NonceResponse
	for _, s := range signers {
		out, err := s.Process(nr)
		if err != nil {
			t.Fatalf("nonce request: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected one nonce response, got %d", len(out))
		}
		responses = append(responses, out[0].(protocol.NonceResponse))
	}

	req := protocol.SignShareRequest{
		DkgID:          1,
		SignID:         7,
		CorrelationID:  42,
		NonceResponses: responses,
		Message:        message,
	}

	agg, err := primitives.NewAggregator(signers[0].GroupPublicKey(), message, flattenNonces(responses))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}

	shares := make(map[uint32]primitives.Scalar)
	for _, s := range signers {
		out, err := s.Process(req)
		if err != nil {
			t.Fatalf("sign share request: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected one sign share response, got %d", len(out))
		}
		resp := out[0].(protocol.SignShareResponse)
		scalars, err := resp.Scalars()
		if err != nil {
			t.Fatalf("decode scalars: %v", err)
		}
		for k, v := range scalars {
			shares[k] = v
		}
		if s.State() != StateIdle {
			t.Fatalf("signer %d left in state %s after signing, want Idle", s.signerID, s.State())
		}
	}

	sig, err := agg.Sign(shares)
	if err != nil {
		t.Fatalf("aggregate signature: %v", err)
	}
	if !primitives.Verify(signers[0].GroupPublicKey(), message, sig) {
		t.Fatalf("aggregated signature did not verify")
	}
}

func flattenNonces(responses []protocol.NonceResponse) []primitives.NonceCommitment {
	var out []primitives.NonceCommitment
	for _, r := range responses {
		out = append(out, r.Nonces...)
	}
	return out
}

func TestSignerRefusesSignAfterObservedDkgFailure(t *testing.T) {
	signers, _ := testHarness(t)
	runDkg(t, signers, 1)

	// Simulate another signer in the round reporting failure; every other
	// signer observes it over the shared relay and must refuse to sign.
	failure := protocol.DkgEnd{DkgID: 1, SignerID: signers[1].signerID, Status: protocol.DkgFailure()}
	for _, s := range signers {
		if _, err := s.Process(failure); err != nil {
			t.Fatalf("observe dkg end: %v", err)
		}
	}

	nr := protocol.NonceRequest{DkgID: 1, SignID: 9, SignNonceID: 1}
	for _, s := range signers {
		if _, err := s.Process(nr); err == nil {
			t.Fatalf("signer %d expected to refuse nonce generation after failed dkg", s.signerID)
		}
	}
}

func TestBadStateChangeRejected(t *testing.T) {
	signers, _ := testHarness(t)
	s := signers[0]
	if err := s.move(StateSigned); err == nil {
		t.Fatalf("expected Idle -> Signed to be rejected")
	}
	var bad *BadStateChangeError
	if err := s.move(StateDkgPrivateGather); err == nil {
		t.Fatalf("expected Idle -> DkgPrivateGather to be rejected")
	} else if !errorsAs(err, &bad) {
		t.Fatalf("expected *BadStateChangeError, got %T", err)
	}
}

func errorsAs(err error, target **BadStateChangeError) bool {
	if e, ok := err.(*BadStateChangeError); ok {
		*target = e
		return true
	}
	return false
}
