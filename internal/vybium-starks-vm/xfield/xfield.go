// Package xfield implements the degree-3 extension field X = B[x]/(x^3 - x + 1)
// of the VM's base field B. Running-evaluation challenges and the Hash
// Table's constraint circuits are defined over X.
package xfield

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Element is a0 + a1*x + a2*x^2 modulo the irreducible x^3 - x + 1.
type Element struct {
	c0, c1, c2 field.Element
}

// New builds an extension element from its three base-field coefficients.
func New(c0, c1, c2 field.Element) Element {
	return Element{c0: c0, c1: c1, c2: c2}
}

// FromBase lifts a base-field element into X via the trivial embedding.
func FromBase(b field.Element) Element {
	return Element{c0: b, c1: field.Zero, c2: field.Zero}
}

// RingZero is the additive identity of X.
func RingZero() Element {
	return Element{c0: field.Zero, c1: field.Zero, c2: field.Zero}
}

// RingOne is the multiplicative identity of X.
func RingOne() Element {
	return Element{c0: field.One, c1: field.Zero, c2: field.Zero}
}

// Coefficients returns (c0, c1, c2).
func (e Element) Coefficients() (field.Element, field.Element, field.Element) {
	return e.c0, e.c1, e.c2
}

func (e Element) Add(o Element) Element {
	return Element{e.c0.Add(o.c0), e.c1.Add(o.c1), e.c2.Add(o.c2)}
}

func (e Element) Sub(o Element) Element {
	return Element{e.c0.Sub(o.c0), e.c1.Sub(o.c1), e.c2.Sub(o.c2)}
}

func (e Element) Neg() Element {
	return RingZero().Sub(e)
}

// Mul multiplies two extension elements modulo x^3 = x - 1.
func (e Element) Mul(o Element) Element {
	a0, a1, a2 := e.c0, e.c1, e.c2
	b0, b1, b2 := o.c0, o.c1, o.c2

	d0 := a0.Mul(b0)
	d1 := a0.Mul(b1).Add(a1.Mul(b0))
	d2 := a0.Mul(b2).Add(a1.Mul(b1)).Add(a2.Mul(b0))
	d3 := a1.Mul(b2).Add(a2.Mul(b1))
	d4 := a2.Mul(b2)

	r0 := d0.Sub(d3)
	r1 := d1.Add(d3).Sub(d4)
	r2 := d2.Add(d4)
	return Element{r0, r1, r2}
}

// MulBase multiplies an extension element by a base-field scalar.
func (e Element) MulBase(s field.Element) Element {
	return Element{e.c0.Mul(s), e.c1.Mul(s), e.c2.Mul(s)}
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.c0.IsZero() && e.c1.IsZero() && e.c2.IsZero()
}

// IsOne reports whether e is the multiplicative identity.
func (e Element) IsOne() bool {
	return e.c0.IsOne() && e.c1.IsZero() && e.c2.IsZero()
}

// Equal reports field-element-wise equality.
func (e Element) Equal(o Element) bool {
	return e.c0.Equal(o.c0) && e.c1.Equal(o.c1) && e.c2.Equal(o.c2)
}

// Inv computes the multiplicative inverse via the cofactor expansion of the
// linear map b -> e*b over B (e is invertible iff its "multiplication
// matrix" over B is, i.e. iff e != 0 since X is a field).
func (e Element) Inv() (Element, error) {
	if e.IsZero() {
		return Element{}, fmt.Errorf("xfield: cannot invert zero element")
	}

	a0, a1, a2 := e.c0, e.c1, e.c2
	s := a0.Add(a2)
	d := a1.Sub(a2)

	minor00 := s.Mul(s).Sub(a1.Mul(d))
	minor01 := a1.Mul(s).Sub(d.Mul(a2))
	minor02 := a1.Mul(a1).Sub(s.Mul(a2))

	det := a0.Mul(minor00).Add(a2.Mul(minor01)).Sub(a1.Mul(minor02))
	detInv, err := det.Inv()
	if err != nil {
		return Element{}, fmt.Errorf("xfield: singular multiplication matrix: %w", err)
	}

	return Element{
		c0: minor00.Mul(detInv),
		c1: minor01.Neg().Mul(detInv),
		c2: minor02.Mul(detInv),
	}, nil
}

// ModPow raises e to a non-negative integer power by repeated squaring.
func (e Element) ModPow(exp uint64) Element {
	result := RingOne()
	base := e
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		exp >>= 1
	}
	return result
}

func (e Element) String() string {
	return fmt.Sprintf("(%s + %s*x + %s*x^2)", e.c0.String(), e.c1.String(), e.c2.String())
}
