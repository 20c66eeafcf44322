package quotient

import (
	"context"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/circuits"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

// fakeTable is a minimal quotient.Table used to exercise the engine without
// pulling in a real coprocessor table.
type fakeTable struct {
	name         string
	paddedHeight int
	omicron      field.Element
	initial      []*circuits.Circuit
	consistency  []*circuits.Circuit
	transition   []*circuits.Circuit
	terminal     []*circuits.Circuit
}

func (t *fakeTable) Name() string                { return t.name }
func (t *fakeTable) PaddedHeight() int           { return t.paddedHeight }
func (t *fakeTable) Omicron() field.Element      { return t.omicron }
func (t *fakeTable) CreateInitialConstraints() ([]*circuits.Circuit, error) {
	return t.initial, nil
}
func (t *fakeTable) CreateConsistencyConstraints() ([]*circuits.Circuit, error) {
	return t.consistency, nil
}
func (t *fakeTable) CreateTransitionConstraints() ([]*circuits.Circuit, error) {
	return t.transition, nil
}
func (t *fakeTable) CreateTerminalConstraints() ([]*circuits.Circuit, error) {
	return t.terminal, nil
}

// col0Circuit builds the single-row circuit "column 0's raw value", used
// throughout this file as a stand-in AIR constraint simple enough that its
// per-index quotient value can be recomputed independently in the test.
func col0Circuit(t *testing.T, name string) *circuits.Circuit {
	t.Helper()
	b := circuits.NewBuilder()
	c, err := b.ConsumeSingleRow(name, b.BaseRow(0))
	if err != nil {
		t.Fatalf("ConsumeSingleRow(%s): %v", name, err)
	}
	return c
}

func col0TransitionCircuit(t *testing.T, name string) *circuits.Circuit {
	t.Helper()
	b := circuits.NewBuilder()
	c, err := b.ConsumeDualRow(name, b.CurrentBaseRow(0))
	if err != nil {
		t.Fatalf("ConsumeDualRow(%s): %v", name, err)
	}
	return c
}

// testDomain is a length-8 coset offset away from any root of unity of
// order dividing 8, so the boundary/consistency/terminal zerofiers built
// against a padded height of 4 never hit an exact zero on this domain;
// mirrors how a real FRI domain is chosen disjoint from the trace subgroup.
func testDomain(t *testing.T) *protocols.ArithmeticDomain {
	t.Helper()
	dom, err := protocols.NewArithmeticDomain(8)
	if err != nil {
		t.Fatalf("NewArithmeticDomain: %v", err)
	}
	return dom.WithOffset(field.New(7))
}

func testCodewords(n int) Codewords {
	base := make([]field.Element, n)
	for j := 0; j < n; j++ {
		base[j] = field.New(uint64(j + 1))
	}
	return Codewords{Base: [][]field.Element{base}}
}

func TestBatchInverseFieldRoundTrips(t *testing.T) {
	elements := []field.Element{field.New(2), field.New(3), field.New(5), field.New(7), field.New(11)}
	inverses, err := batchInverseField(elements)
	if err != nil {
		t.Fatalf("batchInverseField: %v", err)
	}
	if len(inverses) != len(elements) {
		t.Fatalf("got %d inverses, want %d", len(inverses), len(elements))
	}
	for i, e := range elements {
		got := e.Mul(inverses[i])
		if !got.Equal(field.One) {
			t.Fatalf("element %d: e*inv = %s, want 1", i, got)
		}
	}
}

func TestBatchInverseFieldRejectsZero(t *testing.T) {
	elements := []field.Element{field.New(2), field.Zero, field.New(5)}
	if _, err := batchInverseField(elements); err == nil {
		t.Fatalf("expected error batch-inverting a slice containing zero")
	}
}

func TestBatchInverseFieldSingleElement(t *testing.T) {
	inverses, err := batchInverseField([]field.Element{field.New(9)})
	if err != nil {
		t.Fatalf("batchInverseField: %v", err)
	}
	if got := field.New(9).Mul(inverses[0]); !got.Equal(field.One) {
		t.Fatalf("e*inv = %s, want 1", got)
	}
}

func TestZerofierInverseSkipsDivisionOnDegenerateHeight(t *testing.T) {
	zerofier := []field.Element{field.Zero, field.Zero, field.Zero, field.Zero}
	got, err := zerofierInverse(zerofier, 0)
	if err != nil {
		t.Fatalf("zerofierInverse: %v", err)
	}
	for i, v := range got {
		if !v.IsZero() {
			t.Fatalf("index %d: expected the untouched zero zerofier to be returned, got %s", i, v)
		}
	}
}

func TestSubgroupZerofierVanishesOnTraceSubgroupItself(t *testing.T) {
	// A domain whose own length equals the subgroup order is, by
	// construction, exactly that subgroup: every element raised to that
	// order is 1, so the zerofier v^H - 1 is identically zero.
	dom, err := protocols.NewArithmeticDomain(4)
	if err != nil {
		t.Fatalf("NewArithmeticDomain: %v", err)
	}
	z := subgroupZerofier(dom.Elements(), 4)
	for j, v := range z {
		if !v.IsZero() {
			t.Fatalf("index %d: subgroup zerofier = %s, want 0", j, v)
		}
	}
}

func TestBoundaryQuotientsMatchPerIndexFormula(t *testing.T) {
	dom := testDomain(t)
	cw := testCodewords(dom.Length)
	table := &fakeTable{
		name:         "Fake",
		paddedHeight: 4,
		omicron:      field.PrimitiveRootOfUnity(4),
		initial:      []*circuits.Circuit{col0Circuit(t, "col0")},
	}
	engine := NewEngine(dom)
	quotients, err := engine.BoundaryQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("BoundaryQuotients: %v", err)
	}
	if len(quotients) != 1 {
		t.Fatalf("got %d quotient codewords, want 1", len(quotients))
	}

	domainValues := dom.Elements()
	zerofier := make([]field.Element, len(domainValues))
	for j, v := range domainValues {
		zerofier[j] = v.Sub(field.One)
	}
	zinv, err := batchInverseField(zerofier)
	if err != nil {
		t.Fatalf("independent batchInverseField: %v", err)
	}
	for j := range domainValues {
		want := xfield.FromBase(cw.Base[0][j].Mul(zinv[j]))
		if got := quotients[0][j]; !got.Equal(want) {
			t.Fatalf("index %d: boundary quotient = %s, want %s", j, got, want)
		}
	}
}

func TestConsistencyQuotientsMatchPerIndexFormula(t *testing.T) {
	dom := testDomain(t)
	cw := testCodewords(dom.Length)
	table := &fakeTable{
		name:         "Fake",
		paddedHeight: 4,
		omicron:      field.PrimitiveRootOfUnity(4),
		consistency:  []*circuits.Circuit{col0Circuit(t, "col0")},
	}
	engine := NewEngine(dom)
	quotients, err := engine.ConsistencyQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("ConsistencyQuotients: %v", err)
	}

	zerofier := subgroupZerofier(dom.Elements(), 4)
	zinv, err := batchInverseField(zerofier)
	if err != nil {
		t.Fatalf("independent batchInverseField: %v", err)
	}
	for j := range dom.Elements() {
		want := xfield.FromBase(cw.Base[0][j].Mul(zinv[j]))
		if got := quotients[0][j]; !got.Equal(want) {
			t.Fatalf("index %d: consistency quotient = %s, want %s", j, got, want)
		}
	}
}

func TestTerminalQuotientsMatchPerIndexFormula(t *testing.T) {
	dom := testDomain(t)
	cw := testCodewords(dom.Length)
	omicron := field.PrimitiveRootOfUnity(4)
	table := &fakeTable{
		name:         "Fake",
		paddedHeight: 4,
		omicron:      omicron,
		terminal:     []*circuits.Circuit{col0Circuit(t, "col0")},
	}
	engine := NewEngine(dom)
	quotients, err := engine.TerminalQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("TerminalQuotients: %v", err)
	}

	omicronInv, err := omicron.Inv()
	if err != nil {
		t.Fatalf("omicron.Inv: %v", err)
	}
	domainValues := dom.Elements()
	zerofier := make([]field.Element, len(domainValues))
	for j, v := range domainValues {
		zerofier[j] = v.Sub(omicronInv)
	}
	zinv, err := batchInverseField(zerofier)
	if err != nil {
		t.Fatalf("independent batchInverseField: %v", err)
	}
	for j := range domainValues {
		want := xfield.FromBase(cw.Base[0][j].Mul(zinv[j]))
		if got := quotients[0][j]; !got.Equal(want) {
			t.Fatalf("index %d: terminal quotient = %s, want %s", j, got, want)
		}
	}
}

// TestTransitionQuotientsUseUnitDistanceSuccessor checks each transition
// quotient against the current row's value times (v - ω⁻¹)/(v^H - 1), and
// that the unit distance N/H is 2 for this domain. The circuit reads only the
// current row, so the successor row at j+d is not exercised.
func TestTransitionQuotientsUseUnitDistanceSuccessor(t *testing.T) {
	dom := testDomain(t)
	cw := testCodewords(dom.Length)
	omicron := field.PrimitiveRootOfUnity(4)
	table := &fakeTable{
		name:         "Fake",
		paddedHeight: 4,
		omicron:      omicron,
		transition:   []*circuits.Circuit{col0TransitionCircuit(t, "col0")},
	}
	engine := NewEngine(dom)
	quotients, err := engine.TransitionQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("TransitionQuotients: %v", err)
	}

	omicronInv, err := omicron.Inv()
	if err != nil {
		t.Fatalf("omicron.Inv: %v", err)
	}
	domainValues := dom.Elements()
	subZ := subgroupZerofier(domainValues, 4)
	subZinv, err := batchInverseField(subZ)
	if err != nil {
		t.Fatalf("independent batchInverseField: %v", err)
	}
	n := len(domainValues)
	unitDistance := n / 4
	for j := range domainValues {
		zinv := domainValues[j].Sub(omicronInv).Mul(subZinv[j])
		// col0TransitionCircuit reads CurrentBaseRow(0), so the dividend is
		// the current row's value, independent of unitDistance; this test
		// only needs unitDistance to divide the domain length evenly.
		want := xfield.FromBase(cw.Base[0][j].Mul(zinv))
		if got := quotients[0][j]; !got.Equal(want) {
			t.Fatalf("index %d: transition quotient = %s, want %s", j, got, want)
		}
	}
	if unitDistance != 2 {
		t.Fatalf("unit distance = %d, want 2 (N=%d, H=4)", unitDistance, n)
	}
}

func TestAllQuotientsConcatenatesInBoundaryTransitionConsistencyTerminalOrder(t *testing.T) {
	dom := testDomain(t)
	cw := testCodewords(dom.Length)
	omicron := field.PrimitiveRootOfUnity(4)
	table := &fakeTable{
		name:         "Fake",
		paddedHeight: 4,
		omicron:      omicron,
		initial:      []*circuits.Circuit{col0Circuit(t, "boundary0")},
		transition:   []*circuits.Circuit{col0TransitionCircuit(t, "transition0"), col0TransitionCircuit(t, "transition1")},
		consistency:  []*circuits.Circuit{col0Circuit(t, "consistency0")},
		terminal:     []*circuits.Circuit{col0Circuit(t, "terminal0"), col0Circuit(t, "terminal1"), col0Circuit(t, "terminal2")},
	}
	engine := NewEngine(dom)
	all, err := engine.AllQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("AllQuotients: %v", err)
	}

	boundary, err := engine.BoundaryQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("BoundaryQuotients: %v", err)
	}
	transition, err := engine.TransitionQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("TransitionQuotients: %v", err)
	}
	consistency, err := engine.ConsistencyQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("ConsistencyQuotients: %v", err)
	}
	terminal, err := engine.TerminalQuotients(context.Background(), table, cw, emptyChallenges())
	if err != nil {
		t.Fatalf("TerminalQuotients: %v", err)
	}

	want := len(boundary) + len(transition) + len(consistency) + len(terminal)
	if len(all) != want {
		t.Fatalf("got %d total quotient codewords, want %d", len(all), want)
	}
	if want != 1+2+1+3 {
		t.Fatalf("test setup sanity check failed: want %d, got %d", 1+2+1+3, want)
	}

	offset := 0
	checkSegment := func(label string, segment [][]xfield.Element) {
		for i, codeword := range segment {
			for j, v := range codeword {
				if !v.Equal(all[offset+i][j]) {
					t.Fatalf("%s segment mismatch at constraint %d, index %d", label, i, j)
				}
			}
		}
		offset += len(segment)
	}
	checkSegment("boundary", boundary)
	checkSegment("transition", transition)
	checkSegment("consistency", consistency)
	checkSegment("terminal", terminal)
}

func TestMaxDegreeWithOriginDefaultsWhenNoTransitionConstraints(t *testing.T) {
	table := &fakeTable{name: "Empty", paddedHeight: 4, omicron: field.PrimitiveRootOfUnity(4)}
	got, err := MaxDegreeWithOrigin(table)
	if err != nil {
		t.Fatalf("MaxDegreeWithOrigin: %v", err)
	}
	want := DegreeWithOrigin{Degree: -1, OriginTableName: "NoTable", OriginIndex: -1, OriginAirDegree: -1, OriginTableHeight: 0}
	if got != want {
		t.Fatalf("MaxDegreeWithOrigin = %+v, want %+v", got, want)
	}
}

func TestMaxDegreeWithOriginPicksLargestTransitionDegree(t *testing.T) {
	table := &fakeTable{
		name:         "Fake",
		paddedHeight: 4,
		omicron:      field.PrimitiveRootOfUnity(4),
		transition:   []*circuits.Circuit{col0TransitionCircuit(t, "linear")},
	}
	got, err := MaxDegreeWithOrigin(table)
	if err != nil {
		t.Fatalf("MaxDegreeWithOrigin: %v", err)
	}
	if got.OriginTableName != "Fake" {
		t.Fatalf("OriginTableName = %s, want Fake", got.OriginTableName)
	}
	if got.OriginIndex != 0 {
		t.Fatalf("OriginIndex = %d, want 0", got.OriginIndex)
	}
	if got.OriginTableHeight != 4 {
		t.Fatalf("OriginTableHeight = %d, want 4", got.OriginTableHeight)
	}
	// col0TransitionCircuit is a bare degree-1 indicator read, so its raw
	// AIR degree is 1 and its interpolant-bound degree equals the
	// interpolant degree itself (paddedHeight-1), giving a folded Degree of
	// (paddedHeight-1) - paddedHeight + 1 = 0.
	if got.OriginAirDegree != 1 {
		t.Fatalf("OriginAirDegree = %d, want 1", got.OriginAirDegree)
	}
	if got.Degree != 0 {
		t.Fatalf("Degree = %d, want 0", got.Degree)
	}
}

func emptyChallenges() circuits.ChallengeBundle {
	return circuits.NewChallengeBundle(map[circuits.ChallengeID]xfield.Element{})
}
