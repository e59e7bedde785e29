package protocol

import (
	"fmt"
	"testing"

	"github.com/frost-relay/frostrelay/primitives"
)

func testDirectory(t *testing.T) (*Directory, *primitives.SigningKey, map[uint32]*primitives.SigningKey) {
	t.Helper()
	coordKey, err := primitives.GenerateSigningKey()
	if err != nil {
		t.Fatalf("generate coordinator key: %v", err)
	}
	signerKeys := make(map[uint32]*primitives.SigningKey, 3)
	signerPub := make(map[uint32][33]byte, 3)
	for _, id := range []uint32{1, 2, 3} {
		k, err := primitives.GenerateSigningKey()
		if err != nil {
			t.Fatalf("generate signer key %d: %v", id, err)
		}
		signerKeys[id] = k
		signerPub[id] = k.PublicKey()
	}
	dir := NewDirectory(coordKey.PublicKey(), signerPub, signerPub)
	return dir, coordKey, signerKeys
}

func TestCanonicalHashDeterministic(t *testing.T) {
	m := DkgBegin{DkgID: 7}
	if m.CanonicalHash() != m.CanonicalHash() {
		t.Fatalf("canonical hash must be deterministic")
	}
	other := DkgBegin{DkgID: 8}
	if m.CanonicalHash() == other.CanonicalHash() {
		t.Fatalf("different payloads should hash differently")
	}
}

func TestDkgPrivateSharesHashIndependentOfMapOrder(t *testing.T) {
	a := DkgPrivateShares{
		DkgID:    1,
		SrcKeyID: 0,
		Ciphertexts: map[uint32][]byte{
			1: []byte("one"),
			2: []byte("two"),
			3: []byte("three"),
		},
	}
	b := DkgPrivateShares{
		DkgID:    1,
		SrcKeyID: 0,
		Ciphertexts: map[uint32][]byte{
			3: []byte("three"),
			2: []byte("two"),
			1: []byte("one"),
		},
	}
	if a.CanonicalHash() != b.CanonicalHash() {
		t.Fatalf("canonical hash must not depend on map iteration order")
	}
}

func TestEnvelopeSignVerify(t *testing.T) {
	dir, coordKey, _ := testDirectory(t)
	payload := DkgBegin{DkgID: 1}
	env := Sign(payload, coordKey)
	if err := env.Verify(dir); err != nil {
		t.Fatalf("expected envelope to verify: %v", err)
	}
}

func TestEnvelopeRejectsWrongSigner(t *testing.T) {
	dir, _, signerKeys := testDirectory(t)
	payload := DkgBegin{DkgID: 1}
	env := Sign(payload, signerKeys[1])
	if err := env.Verify(dir); err == nil {
		t.Fatalf("expected verification failure for coordinator-only message signed by a signer")
	}
}

func TestDkgPrivateSharesAuthorizingKeyOffByOne(t *testing.T) {
	dir, _, signerKeys := testDirectory(t)
	payload := DkgPrivateShares{DkgID: 1, SrcKeyID: 0, Ciphertexts: map[uint32][]byte{1: []byte("x")}}
	env := Sign(payload, signerKeys[1])
	if err := env.Verify(dir); err != nil {
		t.Fatalf("src_key_id=0 should authenticate as key id 1: %v", err)
	}

	wrong := Sign(payload, signerKeys[2])
	if err := wrong.Verify(dir); err == nil {
		t.Fatalf("src_key_id=0 should not authenticate as key id 2")
	}
}

func TestEnvelopeMarshalRoundTrip(t *testing.T) {
	dir, _, signerKeys := testDirectory(t)
	payload := DkgEnd{DkgID: 3, SignerID: 1, Status: DkgFailure(fmt.Errorf("bad share from 2"))}
	env := Sign(payload, signerKeys[1])

	b, err := Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := got.Verify(dir); err != nil {
		t.Fatalf("round-tripped envelope should still verify: %v", err)
	}
	gotEnd, ok := got.Payload.(DkgEnd)
	if !ok {
		t.Fatalf("expected DkgEnd payload after round trip, got %T", got.Payload)
	}
	if gotEnd.Status.IsSuccess() {
		t.Fatalf("expected failure status to survive round trip")
	}
}

func TestDkgStatusCanonicalBytesStable(t *testing.T) {
	s1 := DkgFailure(fmt.Errorf("a"), fmt.Errorf("b"))
	s2 := DkgFailure(fmt.Errorf("b"), fmt.Errorf("a"))
	var h1, h2 [32]byte
	copy(h1[:], s1.canonicalBytes())
	copy(h2[:], s2.canonicalBytes())
	if string(s1.canonicalBytes()) != string(s2.canonicalBytes()) {
		t.Fatalf("canonical bytes should be stable regardless of reason insertion order")
	}
}
