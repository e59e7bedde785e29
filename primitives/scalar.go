// Package primitives adapts the external secp256k1 group (via btcec) and
// AES-GCM/ECDH primitives into the capability set the coordinator/signer
// core depends on: Scalar, Point, PartySigner and Aggregator. Nothing
// outside this package should import btcec directly.
package primitives

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Curve is the group every Scalar and Point in this package belongs to.
func Curve() *btcec.KoblitzCurve {
	return btcec.S256()
}

// Scalar is an element of the secp256k1 scalar field, always held reduced
// modulo the group order.
type Scalar struct {
	v *big.Int
}

// ZeroScalar returns the additive identity.
func ZeroScalar() Scalar {
	return Scalar{v: new(big.Int)}
}

// RandScalar draws a uniform non-zero scalar.
func RandScalar(rnd io.Reader) (Scalar, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	n := Curve().N
	for {
		b := make([]byte, 32)
		if _, err := io.ReadFull(rnd, b); err != nil {
			return Scalar{}, fmt.Errorf("primitives: read random scalar: %w", err)
		}
		x := new(big.Int).SetBytes(b)
		if x.Sign() != 0 && x.Cmp(n) < 0 {
			return Scalar{v: x}, nil
		}
	}
}

// ScalarFromUint64 embeds a small integer as a scalar, used for key-id
// indices during Lagrange interpolation and polynomial evaluation.
func ScalarFromUint64(x uint64) Scalar {
	return Scalar{v: new(big.Int).SetUint64(x)}
}

// ScalarFromBytes reduces a big-endian byte string modulo the group order.
// It is the inverse of Scalar.Bytes for values produced by this package.
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) == 0 {
		return Scalar{}, fmt.Errorf("primitives: empty scalar encoding")
	}
	x := new(big.Int).SetBytes(b)
	x.Mod(x, Curve().N)
	return Scalar{v: x}, nil
}

// Bytes returns the scalar as a fixed 32-byte big-endian encoding.
func (s Scalar) Bytes() [32]byte {
	var out [32]byte
	v := s.v
	if v == nil {
		v = new(big.Int)
	}
	v.FillBytes(out[:])
	return out
}

func (s Scalar) bigInt() *big.Int {
	if s.v == nil {
		return new(big.Int)
	}
	return s.v
}

// Add returns s + o mod N.
func (s Scalar) Add(o Scalar) Scalar {
	r := new(big.Int).Add(s.bigInt(), o.bigInt())
	r.Mod(r, Curve().N)
	return Scalar{v: r}
}

// Sub returns s - o mod N.
func (s Scalar) Sub(o Scalar) Scalar {
	r := new(big.Int).Sub(s.bigInt(), o.bigInt())
	r.Mod(r, Curve().N)
	return Scalar{v: r}
}

// Mul returns s * o mod N.
func (s Scalar) Mul(o Scalar) Scalar {
	r := new(big.Int).Mul(s.bigInt(), o.bigInt())
	r.Mod(r, Curve().N)
	return Scalar{v: r}
}

// Inverse returns the multiplicative inverse of s mod N. Panics if s is zero.
func (s Scalar) Inverse() Scalar {
	if s.IsZero() {
		panic("primitives: inverse of zero scalar")
	}
	r := new(big.Int).ModInverse(s.bigInt(), Curve().N)
	return Scalar{v: r}
}

// Equal reports whether s and o are the same field element.
func (s Scalar) Equal(o Scalar) bool {
	return s.bigInt().Cmp(o.bigInt()) == 0
}

// IsZero reports whether s is the additive identity.
func (s Scalar) IsZero() bool {
	return s.bigInt().Sign() == 0
}
