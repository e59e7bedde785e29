package primitives

import "fmt"

// Signature is a Schnorr signature (R, z) over the group commitment point
// R and the aggregated response scalar z.
type Signature struct {
	R Point
	Z Scalar
}

// Aggregator combines signature shares gathered from participating
// PartySigners into a single group Schnorr signature. It is constructed
// fresh for each signing round, once the coordinator knows the message
// and the full set of nonce commitments for that round.
type Aggregator struct {
	groupKey    Point
	message     []byte
	commitments []NonceCommitment
	keyIDs      []uint32
}

// NewAggregator prepares an aggregator for one signing round.
func NewAggregator(groupKey Point, message []byte, commitments []NonceCommitment) (*Aggregator, error) {
	if len(commitments) == 0 {
		return nil, fmt.Errorf("primitives: aggregator requires at least one nonce commitment")
	}
	keyIDs := make([]uint32, len(commitments))
	for i, c := range commitments {
		keyIDs[i] = c.KeyID
	}
	return &Aggregator{
		groupKey:    groupKey,
		message:     message,
		commitments: sortedCommitments(commitments),
		keyIDs:      keyIDs,
	}, nil
}

// Sign aggregates per-party signature shares (keyed by key id) into a
// final Schnorr signature and verifies the result against the group
// public key before returning it, so a bad share never escapes as a
// plausible-looking signature.
func (a *Aggregator) Sign(shares map[uint32]Scalar) (*Signature, error) {
	for _, id := range a.keyIDs {
		if _, ok := shares[id]; !ok {
			return nil, fmt.Errorf("primitives: missing signature share from key id %d", id)
		}
	}

	groupCommitment, _, err := computeGroupCommitment(a.message, a.commitments, a.groupKey, a.keyIDs[0])
	if err != nil {
		return nil, err
	}

	z := ZeroScalar()
	for _, id := range a.keyIDs {
		z = z.Add(shares[id])
	}

	sig := &Signature{R: groupCommitment, Z: z}
	if !Verify(a.groupKey, a.message, sig) {
		return nil, fmt.Errorf("primitives: aggregated signature failed verification")
	}
	return sig, nil
}

// Bytes serializes a signature as compressed-R (33 bytes) followed by the
// big-endian response scalar z (32 bytes).
func (s *Signature) Bytes() []byte {
	r := s.R.Compress()
	z := s.Z.Bytes()
	out := make([]byte, 0, len(r)+len(z))
	out = append(out, r[:]...)
	out = append(out, z[:]...)
	return out
}

// Verify checks a Schnorr signature (R, z) against a group public key and
// message: z*G =? R + challenge*groupKey.
func Verify(groupKey Point, message []byte, sig *Signature) bool {
	if sig == nil {
		return false
	}
	challenge := computeChallenge(sig.R, groupKey, message)
	lhs := ScalarBaseMul(sig.Z)
	rhs := sig.R.Add(ScalarMul(groupKey, challenge))
	return lhs.Equal(rhs)
}
