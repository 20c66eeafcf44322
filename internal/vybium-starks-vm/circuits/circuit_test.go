package circuits

import (
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestSingleRowEvaluatesBooleanGate(t *testing.T) {
	b := NewBuilder()
	// bit * (bit - 1) must be zero for bit in {0, 1}.
	bit := b.BaseRow(0)
	one := b.BConstant(field.One)
	expr := bit.Mul(bit.Sub(one))
	circuit, err := b.ConsumeSingleRow("bit_is_boolean", expr)
	if err != nil {
		t.Fatalf("ConsumeSingleRow: %v", err)
	}

	for _, v := range []uint64{0, 1} {
		row := []field.Element{field.New(v)}
		got, err := circuit.EvaluateSingleRow(row, nil, NewChallengeBundle(nil))
		if err != nil {
			t.Fatalf("EvaluateSingleRow: %v", err)
		}
		if !got.IsZero() {
			t.Fatalf("expected zero for bit=%d, got %s", v, got)
		}
	}

	row := []field.Element{field.New(2)}
	got, err := circuit.EvaluateSingleRow(row, nil, NewChallengeBundle(nil))
	if err != nil {
		t.Fatalf("EvaluateSingleRow: %v", err)
	}
	if got.IsZero() {
		t.Fatalf("expected non-zero for bit=2")
	}
}

func TestDualRowIndicatorRejectedInSingleRowCircuit(t *testing.T) {
	b := NewBuilder()
	expr := b.NextBaseRow(0).Sub(b.BaseRow(0))
	if _, err := b.ConsumeSingleRow("bad", expr); err == nil {
		t.Fatalf("expected construction-time error mixing dual-row indicator into single-row circuit")
	}
}

func TestSingleRowIndicatorRejectedInDualRowCircuit(t *testing.T) {
	b := NewBuilder()
	expr := b.BaseRow(0).Sub(b.CurrentBaseRow(0))
	if _, err := b.ConsumeDualRow("bad", expr); err == nil {
		t.Fatalf("expected construction-time error mixing single-row indicator into dual-row circuit")
	}
}

func TestTransitionClockIncrements(t *testing.T) {
	b := NewBuilder()
	expr := b.NextBaseRow(0).Sub(b.CurrentBaseRow(0)).Sub(b.BConstant(field.One))
	circuit, err := b.ConsumeDualRow("clock_increments", expr)
	if err != nil {
		t.Fatalf("ConsumeDualRow: %v", err)
	}
	cur := []field.Element{field.New(5)}
	next := []field.Element{field.New(6)}
	got, err := circuit.EvaluateDualRow(cur, next, nil, nil, NewChallengeBundle(nil))
	if err != nil {
		t.Fatalf("EvaluateDualRow: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestChallengeLookupMissingIsAuthoringError(t *testing.T) {
	b := NewBuilder()
	expr := b.BaseRow(0).Mul(b.Challenge(ChallengeID(7)))
	circuit, err := b.ConsumeSingleRow("uses_challenge", expr)
	if err != nil {
		t.Fatalf("ConsumeSingleRow: %v", err)
	}
	row := []field.Element{field.One}
	if _, err := circuit.EvaluateSingleRow(row, nil, NewChallengeBundle(nil)); err == nil {
		t.Fatalf("expected missing-challenge error")
	}
}

func TestSymbolicDegreeBoundOfRescueLikeExpression(t *testing.T) {
	b := NewBuilder()
	s := b.BaseRow(0)
	// s^7, the Rescue-XLIX S-box, built by repeated squaring-ish
	// multiplication: degree should be 7 * degree(s).
	s2 := s.Mul(s)
	s4 := s2.Mul(s2)
	s6 := s4.Mul(s2)
	s7 := s6.Mul(s)
	circuit, err := b.ConsumeSingleRow("sbox", s7)
	if err != nil {
		t.Fatalf("ConsumeSingleRow: %v", err)
	}
	bound := func(kind IndicatorKind, col int) int { return 3 }
	if got := circuit.SymbolicDegreeBound(bound); got != 21 {
		t.Fatalf("expected degree 21, got %d", got)
	}
}

func TestSharedSubexpressionReused(t *testing.T) {
	b := NewBuilder()
	a := b.BaseRow(0)
	left := a.Mul(a)
	right := a.Mul(a)
	if left.id != right.id {
		t.Fatalf("expected identical subexpressions to share a node id")
	}
}
