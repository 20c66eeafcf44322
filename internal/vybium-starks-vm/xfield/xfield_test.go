package xfield

import (
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func elem(c0, c1, c2 uint64) Element {
	return New(field.New(c0), field.New(c1), field.New(c2))
}

func TestAddSubRoundTrip(t *testing.T) {
	a := elem(1, 2, 3)
	b := elem(4, 5, 6)
	if !a.Add(b).Sub(b).Equal(a) {
		t.Fatalf("(a+b)-b != a")
	}
}

func TestMulIdentity(t *testing.T) {
	a := elem(7, 8, 9)
	if !a.Mul(RingOne()).Equal(a) {
		t.Fatalf("a*1 != a")
	}
}

func TestInverseRoundTrip(t *testing.T) {
	cases := []Element{elem(1, 0, 0), elem(0, 1, 0), elem(3, 5, 7), elem(1, 1, 1)}
	for _, a := range cases {
		inv, err := a.Inv()
		if err != nil {
			t.Fatalf("Inv() error: %v", err)
		}
		if !a.Mul(inv).IsOne() {
			t.Fatalf("a * a^-1 != 1 for %s", a)
		}
	}
}

func TestInverseOfZeroFails(t *testing.T) {
	if _, err := RingZero().Inv(); err == nil {
		t.Fatalf("expected error inverting zero")
	}
}

func TestBatchInverseMatchesIndividual(t *testing.T) {
	elements := []Element{elem(1, 2, 3), elem(4, 0, 1), elem(9, 9, 9), elem(2, 1, 5)}
	inverted, err := BatchInverse(elements)
	if err != nil {
		t.Fatalf("BatchInverse error: %v", err)
	}
	for i, e := range elements {
		want, err := e.Inv()
		if err != nil {
			t.Fatalf("Inv() error: %v", err)
		}
		if !inverted[i].Equal(want) {
			t.Fatalf("batch inverse mismatch at %d", i)
		}
		if !inverted[i].Mul(e).IsOne() {
			t.Fatalf("Zinv[%d]*Z[%d] != 1", i, i)
		}
	}
}

func TestBatchInverseRejectsZero(t *testing.T) {
	elements := []Element{elem(1, 0, 0), RingZero()}
	if _, err := BatchInverse(elements); err == nil {
		t.Fatalf("expected error for zero element in batch")
	}
}

func TestBatchInverseEmpty(t *testing.T) {
	out, err := BatchInverse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result")
	}
}

func TestModPow(t *testing.T) {
	a := elem(2, 0, 0)
	got := a.ModPow(5)
	want := a.Mul(a).Mul(a).Mul(a).Mul(a)
	if !got.Equal(want) {
		t.Fatalf("ModPow mismatch: got %s want %s", got, want)
	}
}
