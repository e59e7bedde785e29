package primitives

import (
	"fmt"
	"io"
)

// Polynomial is a secret-sharing polynomial over the scalar field, held as
// coefficients in ascending order: coeffs[0] is the constant term (the
// shared secret), coeffs[threshold-1] the leading term.
type Polynomial struct {
	coeffs []Scalar
}

// GeneratePolynomial draws a random degree (threshold-1) polynomial whose
// constant term is secret. threshold is the number of shares required to
// reconstruct secret via Lagrange interpolation.
func GeneratePolynomial(threshold uint32, secret Scalar, rnd io.Reader) (Polynomial, error) {
	if threshold == 0 {
		return Polynomial{}, fmt.Errorf("primitives: threshold must be positive")
	}
	coeffs := make([]Scalar, threshold)
	coeffs[0] = secret
	for i := uint32(1); i < threshold; i++ {
		c, err := RandScalar(rnd)
		if err != nil {
			return Polynomial{}, fmt.Errorf("primitives: generate polynomial: %w", err)
		}
		coeffs[i] = c
	}
	return Polynomial{coeffs: coeffs}, nil
}

// Threshold returns the number of coefficients, i.e. the number of shares
// required to reconstruct the polynomial's constant term.
func (p Polynomial) Threshold() uint32 {
	return uint32(len(p.coeffs))
}

// Evaluate computes p(x) using Horner's method, walking the coefficients
// from the highest degree down to the constant term.
func (p Polynomial) Evaluate(x Scalar) Scalar {
	if len(p.coeffs) == 0 {
		return ZeroScalar()
	}
	acc := p.coeffs[len(p.coeffs)-1]
	for i := len(p.coeffs) - 2; i >= 0; i-- {
		acc = acc.Mul(x).Add(p.coeffs[i])
	}
	return acc
}

// EvaluateAt is a convenience wrapper evaluating the polynomial at a
// positive integer key id.
func (p Polynomial) EvaluateAt(keyID uint32) Scalar {
	return p.Evaluate(ScalarFromUint64(uint64(keyID)))
}

// Commitments returns the Feldman VSS commitment vector A_0..A_{t-1},
// A_i = coeffs[i]*G, published so other parties can verify their shares
// without learning the polynomial itself.
func (p Polynomial) Commitments() []Point {
	out := make([]Point, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = ScalarBaseMul(c)
	}
	return out
}

// Constant returns the polynomial's secret constant term, p(0).
func (p Polynomial) Constant() Scalar {
	if len(p.coeffs) == 0 {
		return ZeroScalar()
	}
	return p.coeffs[0]
}

// VerifyShare checks that share = f(keyID) is consistent with the published
// commitment vector by re-deriving share*G from the commitments:
//
//	share*G =? sum_{i=0}^{t-1} keyID^i * A_i
func VerifyShare(commitments []Point, keyID uint32, share Scalar) bool {
	if len(commitments) == 0 {
		return false
	}
	x := ScalarFromUint64(uint64(keyID))
	acc := IdentityPoint()
	xPow := ScalarFromUint64(1)
	for _, a := range commitments {
		acc = acc.Add(ScalarMul(a, xPow))
		xPow = xPow.Mul(x)
	}
	return ScalarBaseMul(share).Equal(acc)
}

// LagrangeCoefficient computes the Lagrange basis coefficient for key id x
// within the given set of participating key ids, evaluated at 0. This is
// the weight applied to party x's share during secret reconstruction or
// signature aggregation.
func LagrangeCoefficient(x uint32, keyIDs []uint32) Scalar {
	xs := ScalarFromUint64(uint64(x))
	num := ScalarFromUint64(1)
	den := ScalarFromUint64(1)
	for _, other := range keyIDs {
		if other == x {
			continue
		}
		os := ScalarFromUint64(uint64(other))
		num = num.Mul(os)
		den = den.Mul(os.Sub(xs))
	}
	return num.Mul(den.Inverse())
}
