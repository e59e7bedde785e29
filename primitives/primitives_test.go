package primitives

import (
	"testing"
)

func TestScalarArithmetic(t *testing.T) {
	a := ScalarFromUint64(5)
	b := ScalarFromUint64(7)
	if !a.Add(b).Equal(ScalarFromUint64(12)) {
		t.Fatalf("5+7 should be 12")
	}
	if !a.Mul(b).Equal(ScalarFromUint64(35)) {
		t.Fatalf("5*7 should be 35")
	}
	inv := b.Inverse()
	if !b.Mul(inv).Equal(ScalarFromUint64(1)) {
		t.Fatalf("b * b^-1 should be 1")
	}
}

func TestPointCompressRoundTrip(t *testing.T) {
	s := ScalarFromUint64(42)
	p := ScalarBaseMul(s)
	c := p.Compress()
	got, err := DecompressPoint(c[:])
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !p.Equal(got) {
		t.Fatalf("round trip mismatch: want %s, got %s", p, got)
	}
}

func TestIdentityPointCompress(t *testing.T) {
	id := IdentityPoint()
	if !id.IsIdentity() {
		t.Fatalf("identity point should report IsIdentity")
	}
	c := id.Compress()
	for _, b := range c {
		if b != 0 {
			t.Fatalf("expected all-zero compressed identity encoding")
		}
	}
}

func TestPolynomialEvaluateAndCommit(t *testing.T) {
	secret := ScalarFromUint64(100)
	poly, err := GeneratePolynomial(3, secret, nil)
	if err != nil {
		t.Fatalf("generate polynomial: %v", err)
	}
	if !poly.Constant().Equal(secret) {
		t.Fatalf("constant term should equal secret")
	}
	commitments := poly.Commitments()
	for _, keyID := range []uint32{1, 2, 3, 4} {
		share := poly.EvaluateAt(keyID)
		if !VerifyShare(commitments, keyID, share) {
			t.Fatalf("share for key id %d should verify against commitments", keyID)
		}
	}
}

func TestLagrangeReconstructsSecret(t *testing.T) {
	secret := ScalarFromUint64(777)
	poly, err := GeneratePolynomial(3, secret, nil)
	if err != nil {
		t.Fatalf("generate polynomial: %v", err)
	}
	keyIDs := []uint32{1, 2, 3}
	recovered := ZeroScalar()
	for _, id := range keyIDs {
		share := poly.EvaluateAt(id)
		lambda := LagrangeCoefficient(id, keyIDs)
		recovered = recovered.Add(share.Mul(lambda))
	}
	if !recovered.Equal(secret) {
		t.Fatalf("lagrange reconstruction mismatch: want %v got %v", secret.Bytes(), recovered.Bytes())
	}
}

// threeOfThreeDKG simulates the full distributed key generation handshake
// for three parties with a threshold of two, the minimum group size that
// exercises real interpolation rather than a degenerate single-share case.
func threeOfThreeDKG(t *testing.T) (parties map[uint32]*PartySigner, groupKey Point) {
	t.Helper()
	keyIDs := []uint32{1, 2, 3}
	parties = make(map[uint32]*PartySigner, 3)
	for _, id := range keyIDs {
		p := NewPartySigner(id)
		if err := p.ResetPolys(2, nil); err != nil {
			t.Fatalf("reset polys for %d: %v", id, err)
		}
		parties[id] = p
	}

	commitments := make(map[uint32][]Point, 3)
	sharesToEveryone := make(map[uint32]map[uint32]Scalar, 3)
	for id, p := range parties {
		commitments[id] = p.PolyCommitments()
		sharesToEveryone[id] = p.SharesFor(keyIDs)
	}

	for _, dst := range keyIDs {
		received := make(map[uint32]Scalar, 3)
		for src := range parties {
			received[src] = sharesToEveryone[src][dst]
		}
		parties[dst].ComputeSecret(received, commitments)
	}

	groupKey = parties[1].GroupPublicKey()
	return parties, groupKey
}

func TestDKGAllPartiesAgreeOnGroupKey(t *testing.T) {
	parties, groupKey := threeOfThreeDKG(t)
	for id, p := range parties {
		if !p.GroupPublicKey().Equal(groupKey) {
			t.Fatalf("party %d disagrees on group public key", id)
		}
	}
}

func TestSignAndAggregateEndToEnd(t *testing.T) {
	parties, groupKey := threeOfThreeDKG(t)
	message := []byte("roast test message")

	participating := []uint32{1, 2}
	commitments := make([]NonceCommitment, 0, len(participating))
	for _, id := range participating {
		c, err := parties[id].GenNonces(nil)
		if err != nil {
			t.Fatalf("gen nonces for %d: %v", id, err)
		}
		commitments = append(commitments, c)
	}

	shares := make(map[uint32]Scalar, len(participating))
	for _, id := range participating {
		share, err := parties[id].Sign(message, commitments, participating)
		if err != nil {
			t.Fatalf("sign for %d: %v", id, err)
		}
		shares[id] = share
	}

	agg, err := NewAggregator(groupKey, message, commitments)
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	sig, err := agg.Sign(shares)
	if err != nil {
		t.Fatalf("aggregate sign: %v", err)
	}
	if !Verify(groupKey, message, sig) {
		t.Fatalf("aggregated signature failed verification")
	}
	if Verify(groupKey, []byte("tampered message"), sig) {
		t.Fatalf("signature should not verify against a different message")
	}
}

func TestAggregatorRejectsMissingShare(t *testing.T) {
	parties, groupKey := threeOfThreeDKG(t)
	message := []byte("incomplete round")

	participating := []uint32{1, 2}
	commitments := make([]NonceCommitment, 0, len(participating))
	for _, id := range participating {
		c, err := parties[id].GenNonces(nil)
		if err != nil {
			t.Fatalf("gen nonces for %d: %v", id, err)
		}
		commitments = append(commitments, c)
	}

	agg, err := NewAggregator(groupKey, message, commitments)
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	share1, err := parties[1].Sign(message, commitments, participating)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := agg.Sign(map[uint32]Scalar{1: share1}); err == nil {
		t.Fatalf("expected error aggregating with a missing share")
	}
}

func TestSharedKeyRoundTrip(t *testing.T) {
	aPriv, err := RandScalar(nil)
	if err != nil {
		t.Fatalf("rand scalar: %v", err)
	}
	bPriv, err := RandScalar(nil)
	if err != nil {
		t.Fatalf("rand scalar: %v", err)
	}
	aPub := ScalarBaseMul(aPriv)
	bPub := ScalarBaseMul(bPriv)

	aKey, err := DeriveSharedKey(aPriv, bPub, "dkg-private-share")
	if err != nil {
		t.Fatalf("derive a side: %v", err)
	}
	bKey, err := DeriveSharedKey(bPriv, aPub, "dkg-private-share")
	if err != nil {
		t.Fatalf("derive b side: %v", err)
	}

	plaintext := []byte("shamir share bytes")
	ciphertext, err := aKey.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	decrypted, err := bKey.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Fatalf("round trip mismatch")
	}
}

func TestSharedKeyRejectsTamperedCiphertext(t *testing.T) {
	aPriv, _ := RandScalar(nil)
	bPriv, _ := RandScalar(nil)
	bPub := ScalarBaseMul(bPriv)

	aKey, err := DeriveSharedKey(aPriv, bPub, "dkg-private-share")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	ciphertext, err := aKey.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF

	aPub := ScalarBaseMul(aPriv)
	bKey, err := DeriveSharedKey(bPriv, aPub, "dkg-private-share")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if _, err := bKey.Decrypt(ciphertext); err == nil {
		t.Fatalf("expected decryption failure on tampered ciphertext")
	}
}

func TestSigningKeySignAndVerify(t *testing.T) {
	key, err := GenerateSigningKey()
	if err != nil {
		t.Fatalf("generate signing key: %v", err)
	}
	digest := [32]byte{1, 2, 3}
	sig := key.Sign(digest)
	ok, err := VerifyEnvelopeSignature(key.PublicKey(), digest, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}

	otherDigest := [32]byte{4, 5, 6}
	ok, err = VerifyEnvelopeSignature(key.PublicKey(), otherDigest, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatalf("signature should not verify against a different digest")
	}
}
