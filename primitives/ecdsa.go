package primitives

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// SigningKey is a long-term secp256k1 key pair used to authenticate
// envelopes on the wire. It is distinct from the per-round secret share a
// PartySigner holds: the signing key identifies a signer process to its
// peers, the secret share is the Schnorr signing material.
type SigningKey struct {
	priv *btcec.PrivateKey
}

// GenerateSigningKey draws a fresh long-term key pair.
func GenerateSigningKey() (*SigningKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("primitives: generate signing key: %w", err)
	}
	return &SigningKey{priv: priv}, nil
}

// SigningKeyFromScalar builds a signing key from an existing scalar,
// letting a signer reuse one secret across restarts instead of minting a
// fresh identity every time.
func SigningKeyFromScalar(s Scalar) *SigningKey {
	b := s.Bytes()
	priv := btcec.PrivKeyFromBytes(b[:])
	return &SigningKey{priv: priv}
}

// PrivateScalar exposes the key's underlying scalar, used to derive an
// ECDH shared secret with a peer's public key for DKG private-share
// encryption. Envelope signing and share encryption intentionally share
// one long-term key pair per participant rather than minting a second
// identity just for ECDH.
func (k *SigningKey) PrivateScalar() Scalar {
	s, _ := ScalarFromBytes(k.priv.Serialize())
	return s
}

// PublicKey returns the compressed public key identifying this signer.
func (k *SigningKey) PublicKey() [33]byte {
	var out [33]byte
	copy(out[:], k.priv.PubKey().SerializeCompressed())
	return out
}

// Sign produces a DER-encoded ECDSA signature over a 32-byte digest.
func (k *SigningKey) Sign(digest [32]byte) []byte {
	sig := ecdsa.Sign(k.priv, digest[:])
	return sig.Serialize()
}

// VerifyEnvelopeSignature checks a DER-encoded ECDSA signature over digest
// against a compressed public key.
func VerifyEnvelopeSignature(pubKeyCompressed [33]byte, digest [32]byte, sigDER []byte) (bool, error) {
	pub, err := btcec.ParsePubKey(pubKeyCompressed[:])
	if err != nil {
		return false, fmt.Errorf("primitives: parse authorizing key: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(sigDER)
	if err != nil {
		return false, fmt.Errorf("primitives: parse envelope signature: %w", err)
	}
	return sig.Verify(digest[:], pub), nil
}
