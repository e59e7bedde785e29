package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// box is an AES-256-GCM authenticated symmetric cipher keyed by a 32-byte
// secret. Every call to seal draws a fresh nonce, so ciphertexts for the
// same plaintext are never repeated.
type box struct {
	aead cipher.AEAD
}

func newBox(key [32]byte) (*box, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("primitives: new aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("primitives: new gcm: %w", err)
	}
	return &box{aead: aead}, nil
}

// seal encrypts plaintext, prefixing the returned ciphertext with the
// random nonce used to produce it.
func (b *box) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("primitives: generate nonce: %w", err)
	}
	return b.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts a ciphertext produced by seal.
func (b *box) open(ciphertext []byte) ([]byte, error) {
	n := b.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, fmt.Errorf("symmetric key decryption failed")
	}
	nonce, sealed := ciphertext[:n], ciphertext[n:]
	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("symmetric key decryption failed")
	}
	return plaintext, nil
}

// SharedKey is a symmetric key derived from an ECDH exchange between two
// parties' long-term curve key pairs. Used to wrap DKG private shares so
// the relay (or any passive observer of it) never sees them in the clear.
type SharedKey struct {
	b *box
}

// DeriveSharedKey computes scalar*point on the curve to obtain an ECDH
// shared point, then stretches its 33-byte compressed encoding through
// HKDF-SHA256 to obtain the AES-256 key. HKDF (rather than the bare
// sha256.Sum256 of the shared point used for plain ECDH elsewhere) adds a
// domain-separated, uniformly random key even when the shared point's
// entropy is imperfect.
func DeriveSharedKey(privateScalar Scalar, peerPublic Point, info string) (*SharedKey, error) {
	shared := ScalarMul(peerPublic, privateScalar)
	if shared.IsIdentity() {
		return nil, fmt.Errorf("primitives: ecdh produced identity point")
	}
	compressed := shared.Compress()

	h := hkdf.New(sha256.New, compressed[:], nil, []byte(info))
	var key [32]byte
	if _, err := io.ReadFull(h, key[:]); err != nil {
		return nil, fmt.Errorf("primitives: derive shared key: %w", err)
	}

	b, err := newBox(key)
	if err != nil {
		return nil, err
	}
	return &SharedKey{b: b}, nil
}

// Encrypt seals plaintext under the derived shared key.
func (k *SharedKey) Encrypt(plaintext []byte) ([]byte, error) {
	return k.b.seal(plaintext)
}

// Decrypt opens a ciphertext produced by the peer's matching SharedKey.
func (k *SharedKey) Decrypt(ciphertext []byte) ([]byte, error) {
	return k.b.open(ciphertext)
}
