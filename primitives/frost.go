package primitives

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
)

// contextString domain-separates every hash used in this adapter from any
// other SHA-256-based protocol sharing the same transcript.
var contextString = []byte("FROST-secp256k1-SHA256-v1")

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func hashToScalar(dst []byte, msg ...[]byte) Scalar {
	h := sha256.New()
	h.Write(dst)
	for _, m := range msg {
		h.Write(m)
	}
	sum := h.Sum(nil)
	s, _ := ScalarFromBytes(sum)
	return s
}

// bindingFactorHash is H1 in the FROST binding-factor computation.
func bindingFactorHash(msg ...[]byte) Scalar {
	return hashToScalar(concat(contextString, []byte("rho")), msg...)
}

// challengeHash is H2, the signature challenge hash.
func challengeHash(msg ...[]byte) Scalar {
	return hashToScalar(concat(contextString, []byte("chal")), msg...)
}

// msgHash is H4, hashing the message to be signed before it enters the
// binding-factor transcript.
func msgHash(msg []byte) []byte {
	h := sha256.Sum256(concat(contextString, []byte("msg"), msg))
	return h[:]
}

// commitmentHash is H5, hashing the encoded commitment list before it
// enters the binding-factor transcript.
func commitmentHash(encoded []byte) []byte {
	h := sha256.Sum256(concat(contextString, []byte("com"), encoded))
	return h[:]
}

// encodeCommitmentList serializes the (sorted) commitment list the way
// every binding-factor and group-commitment computation expects: key id,
// then both compressed nonce points, concatenated in ascending key id
// order.
func encodeCommitmentList(commitments []NonceCommitment) []byte {
	sorted := sortedCommitments(commitments)
	out := make([]byte, 0, len(sorted)*(4+33+33))
	for _, c := range sorted {
		var idBuf [4]byte
		binary.BigEndian.PutUint32(idBuf[:], c.KeyID)
		hc := c.Hiding.Compress()
		bc := c.Binding.Compress()
		out = append(out, idBuf[:]...)
		out = append(out, hc[:]...)
		out = append(out, bc[:]...)
	}
	return out
}

func sortedCommitments(commitments []NonceCommitment) []NonceCommitment {
	out := make([]NonceCommitment, len(commitments))
	copy(out, commitments)
	sort.Slice(out, func(i, j int) bool { return out[i].KeyID < out[j].KeyID })
	return out
}

// bindingFactorsFor computes, for each party in the commitment list, the
// scalar rho_i binding its nonce pair to this message and commitment
// transcript, per FROST's binding-factors computation.
func bindingFactorsFor(message []byte, groupKey Point, commitments []NonceCommitment) map[uint32]Scalar {
	groupKeyEnc := groupKey.Compress()
	msgDigest := msgHash(message)
	comDigest := commitmentHash(encodeCommitmentList(commitments))
	prefix := concat(groupKeyEnc[:], msgDigest, comDigest)

	out := make(map[uint32]Scalar, len(commitments))
	for _, c := range commitments {
		var idBuf [4]byte
		binary.BigEndian.PutUint32(idBuf[:], c.KeyID)
		out[c.KeyID] = bindingFactorHash(prefix, idBuf[:])
	}
	return out
}

// computeGroupCommitment folds every party's hiding and binding-scaled
// nonce commitments into the single group commitment R used in the
// signature challenge, and returns the binding factor belonging to
// selfKeyID so the caller can fold it into its own signature share.
func computeGroupCommitment(message []byte, commitments []NonceCommitment, groupKey Point, selfKeyID uint32) (Point, Scalar, error) {
	if len(commitments) == 0 {
		return Point{}, Scalar{}, fmt.Errorf("primitives: no nonce commitments for signing round")
	}
	factors := bindingFactorsFor(message, groupKey, commitments)

	acc := IdentityPoint()
	for _, c := range commitments {
		rho := factors[c.KeyID]
		acc = acc.Add(c.Hiding).Add(ScalarMul(c.Binding, rho))
	}

	self, ok := factors[selfKeyID]
	if !ok {
		return Point{}, Scalar{}, fmt.Errorf("primitives: key id %d not present in commitment list", selfKeyID)
	}
	return acc, self, nil
}

// computeChallenge is H2 applied to the transcript group_commitment ||
// group_public_key || message, producing the Schnorr challenge scalar.
func computeChallenge(groupCommitment, groupKey Point, message []byte) Scalar {
	rc := groupCommitment.Compress()
	gc := groupKey.Compress()
	return challengeHash(rc[:], gc[:], message)
}
