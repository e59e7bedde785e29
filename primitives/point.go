package primitives

import (
	"fmt"
	"math/big"
)

// Point is an affine element of the secp256k1 group. The identity is
// represented as (0, 0), matching the convention every curve example in
// the retrieval pack uses for crypto/elliptic-style affine arithmetic.
type Point struct {
	X, Y *big.Int
}

// IdentityPoint returns the group's identity element.
func IdentityPoint() Point {
	return Point{X: new(big.Int), Y: new(big.Int)}
}

// IsIdentity reports whether p is the identity element.
func (p Point) IsIdentity() bool {
	return p.X == nil || p.Y == nil || (p.X.Sign() == 0 && p.Y.Sign() == 0)
}

// Add returns p + o.
func (p Point) Add(o Point) Point {
	if p.IsIdentity() {
		return o
	}
	if o.IsIdentity() {
		return p
	}
	x, y := Curve().Add(p.X, p.Y, o.X, o.Y)
	return Point{X: x, Y: y}
}

// ScalarBaseMul returns s*G.
func ScalarBaseMul(s Scalar) Point {
	b := s.Bytes()
	x, y := Curve().ScalarBaseMult(b[:])
	return Point{X: x, Y: y}
}

// ScalarMul returns s*P.
func ScalarMul(p Point, s Scalar) Point {
	if p.IsIdentity() || s.IsZero() {
		return IdentityPoint()
	}
	b := s.Bytes()
	x, y := Curve().ScalarMult(p.X, p.Y, b[:])
	return Point{X: x, Y: y}
}

// hasEvenY reports whether p's Y coordinate is even, the parity bit used
// by both SEC1 point compression and BIP-340 x-only public keys.
func hasEvenY(y *big.Int) bool {
	return y.Bit(0) == 0
}

// Compress returns the 33-byte SEC1 compressed encoding of p: a one-byte
// parity prefix (0x02 even, 0x03 odd) followed by the 32-byte X coordinate.
func (p Point) Compress() [33]byte {
	var out [33]byte
	if p.IsIdentity() {
		return out
	}
	if hasEvenY(p.Y) {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	p.X.FillBytes(out[1:])
	return out
}

// DecompressPoint parses a 33-byte SEC1 compressed encoding, recovering Y
// via the curve equation y^2 = x^3 + 7 (secp256k1's b=7, a=0) and a modular
// square root, since p = 3 mod 4 for the secp256k1 field prime.
func DecompressPoint(b []byte) (Point, error) {
	if len(b) != 33 || (b[0] != 0x02 && b[0] != 0x03) {
		return Point{}, fmt.Errorf("primitives: malformed compressed point")
	}
	curve := Curve()
	x := new(big.Int).SetBytes(b[1:])
	if x.Cmp(curve.P) >= 0 {
		return Point{}, fmt.Errorf("primitives: point x exceeds field size")
	}

	// y^2 = x^3 + 7 mod p
	ySq := new(big.Int).Exp(x, big.NewInt(3), curve.P)
	ySq.Add(ySq, big.NewInt(7))
	ySq.Mod(ySq, curve.P)

	// p = 3 mod 4, so sqrt(a) = a^((p+1)/4) mod p
	exp := new(big.Int).Add(curve.P, big.NewInt(1))
	exp.Div(exp, big.NewInt(4))
	y := new(big.Int).Exp(ySq, exp, curve.P)

	check := new(big.Int).Exp(y, big.NewInt(2), curve.P)
	if check.Cmp(ySq) != 0 {
		return Point{}, fmt.Errorf("primitives: no curve point for given x")
	}

	wantOdd := b[0] == 0x03
	if hasEvenY(y) == wantOdd {
		y.Sub(curve.P, y)
	}
	return Point{X: x, Y: y}, nil
}

// Equal reports whether p and o denote the same point.
func (p Point) Equal(o Point) bool {
	if p.IsIdentity() || o.IsIdentity() {
		return p.IsIdentity() == o.IsIdentity()
	}
	return p.X.Cmp(o.X) == 0 && p.Y.Cmp(o.Y) == 0
}

func (p Point) String() string {
	if p.IsIdentity() {
		return "Point(identity)"
	}
	c := p.Compress()
	return fmt.Sprintf("Point(%x)", c)
}
