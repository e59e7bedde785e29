package primitives

import (
	"crypto/rand"
	"fmt"
	"io"
)

// PartySigner holds one signer's long-lived secret share plus the
// per-round nonce state needed to produce a signature share. It is the
// adapter surface the signer state machine drives: one PartySigner is
// created per local key id and reused across DKG rounds and signing
// rounds, but never across processes.
type PartySigner struct {
	keyID      uint32
	poly       Polynomial
	secretKey  Scalar
	groupKey   Point
	hidingNonce  Scalar
	bindingNonce Scalar
}

// NewPartySigner constructs a signer for the given key id that has not yet
// generated a secret polynomial.
func NewPartySigner(keyID uint32) *PartySigner {
	return &PartySigner{keyID: keyID}
}

// KeyID returns the party's 1-based key id.
func (p *PartySigner) KeyID() uint32 {
	return p.keyID
}

// ResetPolys draws a fresh secret-sharing polynomial of the given
// threshold, discarding any prior DKG round's polynomial. Called at the
// start of every DkgBegin.
func (p *PartySigner) ResetPolys(threshold uint32, rnd io.Reader) error {
	secret, err := RandScalar(rnd)
	if err != nil {
		return fmt.Errorf("primitives: reset polynomial: %w", err)
	}
	poly, err := GeneratePolynomial(threshold, secret, rnd)
	if err != nil {
		return fmt.Errorf("primitives: reset polynomial: %w", err)
	}
	p.poly = poly
	return nil
}

// PolyCommitments returns this party's Feldman VSS commitment vector,
// broadcast during DkgPublicShare.
func (p *PartySigner) PolyCommitments() []Point {
	return p.poly.Commitments()
}

// SharesFor computes the private share f(dst) owed to every destination
// key id in dstKeyIDs, keyed by destination key id.
func (p *PartySigner) SharesFor(dstKeyIDs []uint32) map[uint32]Scalar {
	out := make(map[uint32]Scalar, len(dstKeyIDs))
	for _, dst := range dstKeyIDs {
		out[dst] = p.poly.EvaluateAt(dst)
	}
	return out
}

// ComputeSecret sums the received shares (one per contributing party, each
// already verified against that party's published commitments) into this
// party's final secret key share, and folds the corresponding commitments'
// constant terms into the group public key.
func (p *PartySigner) ComputeSecret(shares map[uint32]Scalar, commitments map[uint32][]Point) {
	secret := ZeroScalar()
	group := IdentityPoint()
	for _, s := range shares {
		secret = secret.Add(s)
	}
	for _, c := range commitments {
		if len(c) == 0 {
			continue
		}
		group = group.Add(c[0])
	}
	p.secretKey = secret
	p.groupKey = group
}

// SecretKeyShare returns the party's final additive secret key share,
// valid only after ComputeSecret has run.
func (p *PartySigner) SecretKeyShare() Scalar {
	return p.secretKey
}

// GroupPublicKey returns the aggregate public key this party has computed.
func (p *PartySigner) GroupPublicKey() Point {
	return p.groupKey
}

// NonceCommitment is the pair of hiding/binding commitments a party
// publishes at the start of a signing round, before the message or group
// of participants is finalized.
type NonceCommitment struct {
	KeyID   uint32
	Hiding  Point
	Binding Point
}

// GenNonces draws fresh hiding and binding nonces and returns the
// corresponding public commitment. Nonces MUST NOT be reused across
// signing rounds; calling GenNonces again discards the previous pair.
func (p *PartySigner) GenNonces(rnd io.Reader) (NonceCommitment, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	hiding, err := RandScalar(rnd)
	if err != nil {
		return NonceCommitment{}, fmt.Errorf("primitives: generate hiding nonce: %w", err)
	}
	binding, err := RandScalar(rnd)
	if err != nil {
		return NonceCommitment{}, fmt.Errorf("primitives: generate binding nonce: %w", err)
	}
	p.hidingNonce = hiding
	p.bindingNonce = binding
	return NonceCommitment{
		KeyID:   p.keyID,
		Hiding:  ScalarBaseMul(hiding),
		Binding: ScalarBaseMul(binding),
	}, nil
}

// Sign produces this party's signature share given the message, the full
// ordered set of nonce commitments gathered by the coordinator for this
// round, and the set of key ids participating in the round (used to
// derive this party's Lagrange coefficient).
//
// sig_share = hiding_nonce + binding_nonce*binding_factor + lambda_i*sk_i*challenge
func (p *PartySigner) Sign(message []byte, commitments []NonceCommitment, participantKeyIDs []uint32) (Scalar, error) {
	groupCommitment, bindingFactor, err := computeGroupCommitment(message, commitments, p.groupKey, p.keyID)
	if err != nil {
		return Scalar{}, err
	}
	challenge := computeChallenge(groupCommitment, p.groupKey, message)
	lambda := LagrangeCoefficient(p.keyID, participantKeyIDs)

	share := p.hidingNonce.
		Add(p.bindingNonce.Mul(bindingFactor)).
		Add(lambda.Mul(p.secretKey).Mul(challenge))
	return share, nil
}
