package vm

import (
	"fmt"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/circuits"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

func blankRow(roundNumber uint64, ci Instruction) []field.Element {
	row := make([]field.Element, HashTableBaseWidth)
	row[HTRoundNumber] = field.New(roundNumber)
	row[HTCI] = field.New(uint64(ci))
	return row
}

func allChallenges() circuits.ChallengeBundle {
	values := make(map[circuits.ChallengeID]xfield.Element)
	values[ChallengeHashInputEvalIndeterminate] = xfield.FromBase(field.New(2))
	values[ChallengeHashDigestEvalIndeterminate] = xfield.FromBase(field.New(2))
	values[ChallengeSpongeEvalIndeterminate] = xfield.FromBase(field.New(1))
	values[ChallengeCIWeight] = xfield.FromBase(field.New(1))
	for i := 0; i < RescueStateSize; i++ {
		values[ChallengeHashStateWeight(i)] = xfield.FromBase(field.New(1))
	}
	return circuits.NewChallengeBundle(values)
}

func TestPadAppendsHashOpcodePaddingRows(t *testing.T) {
	ht := NewHashTable()
	if err := ht.FillTrace(HashSubTraces{SpongeTrace: [][]field.Element{blankRow(0, Hash)}}); err != nil {
		t.Fatalf("FillTrace: %v", err)
	}
	if err := ht.Pad(4); err != nil {
		t.Fatalf("Pad: %v", err)
	}
	if ht.GetHeight() != 1 {
		t.Fatalf("expected real height 1, got %d", ht.GetHeight())
	}
	if ht.GetPaddedHeight() != 4 {
		t.Fatalf("expected padded height 4, got %d", ht.GetPaddedHeight())
	}
	for i := 1; i < 4; i++ {
		row := ht.Row(i)
		if !row[HTCI].Equal(field.New(uint64(Hash))) {
			t.Fatalf("padding row %d: CI = %s, want opcode(Hash)", i, row[HTCI])
		}
		if !row[HTRoundNumber].IsZero() {
			t.Fatalf("padding row %d: round_number = %s, want zero", i, row[HTRoundNumber])
		}
		for j := 0; j < RescueStateSize; j++ {
			if !row[htState(j)].IsZero() {
				t.Fatalf("padding row %d: state[%d] not zero", i, j)
			}
		}
	}
}

func TestPadIsIdempotent(t *testing.T) {
	ht := NewHashTable()
	if err := ht.FillTrace(HashSubTraces{SpongeTrace: [][]field.Element{blankRow(0, Hash)}}); err != nil {
		t.Fatalf("FillTrace: %v", err)
	}
	if err := ht.Pad(4); err != nil {
		t.Fatalf("Pad: %v", err)
	}
	before := ht.Row(3)
	if err := ht.Pad(4); err != nil {
		t.Fatalf("second Pad: %v", err)
	}
	after := ht.Row(3)
	for i := range before {
		if !before[i].Equal(after[i]) {
			t.Fatalf("Pad was not idempotent at column %d", i)
		}
	}
}

func TestPadRejectsShrinking(t *testing.T) {
	ht := NewHashTable()
	if err := ht.FillTrace(HashSubTraces{SpongeTrace: [][]field.Element{blankRow(0, Hash), blankRow(1, Hash)}}); err != nil {
		t.Fatalf("FillTrace: %v", err)
	}
	if err := ht.Pad(1); err == nil {
		t.Fatalf("expected error padding below current height")
	}
}

func TestFillTraceRejectsWrongWidth(t *testing.T) {
	ht := NewHashTable()
	err := ht.FillTrace(HashSubTraces{SpongeTrace: [][]field.Element{{field.Zero, field.Zero}}})
	if err == nil {
		t.Fatalf("expected error for undersized row")
	}
}

// TestExtendHashDigestRunningEvaluationScenario mirrors spec §8's worked
// example: with indeterminate alpha=2 and digest weights all 1, a
// round_number=9, CI=Hash row with STATE0..4=(1,2,3,4,5) updates an
// incoming hash-digest accumulator of 7 to 7*2+15=29.
func TestExtendHashDigestRunningEvaluationScenario(t *testing.T) {
	ht := NewHashTable()
	seed := blankRow(9, Hash)
	seed[htState(0)] = field.New(5) // 1*2 + 5 = 7, the "incoming" value
	target := blankRow(9, Hash)
	target[htState(0)] = field.New(1)
	target[htState(1)] = field.New(2)
	target[htState(2)] = field.New(3)
	target[htState(3)] = field.New(4)
	target[htState(4)] = field.New(5)

	if err := ht.FillTrace(HashSubTraces{SpongeTrace: [][]field.Element{seed, target}}); err != nil {
		t.Fatalf("FillTrace: %v", err)
	}
	if err := ht.Extend(allChallenges()); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	got := ht.hashDigestEval[1]
	want := xfield.FromBase(field.New(29))
	if !got.Equal(want) {
		t.Fatalf("hash digest running evaluation = %s, want %s", got, want)
	}
}

// TestExtendSpongeRunningEvaluationAbsorbScenario mirrors spec §8's worked
// absorb-difference example, with vybium's real SpongeAbsorb opcode (34)
// substituted for the spec's illustrative opcode value: row 0 carries the
// "previous rate" (all ones) at round_number 0, so it never touches the
// sponge accumulator and leaves it at default_initial=1; row 1 is the
// absorb row itself (round_number=1, rate 2..11), so sponge updates to
// 1*1 + opcode(Absorb) + sum(cur_i - prev_i) = 1 + 34 + 55 = 90.
func TestExtendSpongeRunningEvaluationAbsorbScenario(t *testing.T) {
	ht := NewHashTable()
	prev := blankRow(0, Hash)
	for i := 0; i < RescueRate; i++ {
		prev[htState(i)] = field.One
	}
	cur := blankRow(1, SpongeAbsorb)
	for i := 0; i < RescueRate; i++ {
		cur[htState(i)] = field.New(uint64(2 + i))
	}

	if err := ht.FillTrace(HashSubTraces{SpongeTrace: [][]field.Element{prev, cur}}); err != nil {
		t.Fatalf("FillTrace: %v", err)
	}
	if err := ht.Extend(allChallenges()); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if got, want := ht.spongeEval[0], xfield.RingOne(); !got.Equal(want) {
		t.Fatalf("sponge running evaluation before absorb = %s, want default_initial", got)
	}
	got := ht.spongeEval[1]
	want := xfield.FromBase(field.New(90))
	if !got.Equal(want) {
		t.Fatalf("sponge running evaluation = %s, want %s", got, want)
	}
}

func TestExtendSpongeStaysDefaultWithoutMatchingRows(t *testing.T) {
	ht := NewHashTable()
	rows := [][]field.Element{blankRow(9, Hash), blankRow(0, Hash)}
	if err := ht.FillTrace(HashSubTraces{SpongeTrace: rows}); err != nil {
		t.Fatalf("FillTrace: %v", err)
	}
	if err := ht.Extend(allChallenges()); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	for i, v := range ht.spongeEval {
		if !v.Equal(xfield.RingOne()) {
			t.Fatalf("row %d: sponge running evaluation = %s, want default_initial", i, v)
		}
	}
}

func evaluateAllSingleRow(t *testing.T, cs []*circuits.Circuit, row []field.Element, ext []xfield.Element, ch circuits.ChallengeBundle) {
	t.Helper()
	for _, c := range cs {
		got, err := c.EvaluateSingleRow(row, ext, ch)
		if err != nil {
			t.Fatalf("%s: EvaluateSingleRow: %v", c.Name(), err)
		}
		if !got.IsZero() {
			t.Fatalf("%s: expected zero on this row, got %s", c.Name(), got)
		}
	}
}

func evaluateAllDualRow(t *testing.T, cs []*circuits.Circuit, cur, next []field.Element, curExt, nextExt []xfield.Element, ch circuits.ChallengeBundle) {
	t.Helper()
	for _, c := range cs {
		got, err := c.EvaluateDualRow(cur, next, curExt, nextExt, ch)
		if err != nil {
			t.Fatalf("%s: EvaluateDualRow: %v", c.Name(), err)
		}
		if !got.IsZero() {
			t.Fatalf("%s: expected zero on this row pair, got %s", c.Name(), got)
		}
	}
}

// TestPaddingRowsSatisfyConsistencyAndTransitionConstraints is a smoke
// test that a row generated by Pad (round_number=0, CI=Hash, all other
// columns zero) passes every consistency circuit, and that a pair of such
// rows (with unchanged running-evaluation columns, as Extend actually
// produces across padding) passes every transition circuit.
func TestPaddingRowsSatisfyConsistencyAndTransitionConstraints(t *testing.T) {
	ch := allChallenges()
	paddingRow := blankRow(0, Hash)
	paddingExt := []xfield.Element{xfield.RingOne(), xfield.RingOne(), xfield.RingOne()}

	consistency, err := buildHashTableConsistencyCircuits()
	if err != nil {
		t.Fatalf("buildHashTableConsistencyCircuits: %v", err)
	}
	evaluateAllSingleRow(t, consistency, paddingRow, paddingExt, ch)

	transition, err := buildHashTableTransitionCircuits()
	if err != nil {
		t.Fatalf("buildHashTableTransitionCircuits: %v", err)
	}
	evaluateAllDualRow(t, transition, paddingRow, paddingRow, paddingExt, paddingExt, ch)
}

func TestInitialConstraintsAcceptRoundZeroHashRow(t *testing.T) {
	ch := allChallenges()
	row := blankRow(0, Hash)
	ext := []xfield.Element{xfield.RingOne(), xfield.RingOne(), xfield.RingOne()}

	initial, err := buildHashTableInitialCircuits()
	if err != nil {
		t.Fatalf("buildHashTableInitialCircuits: %v", err)
	}
	evaluateAllSingleRow(t, initial, row, ext, ch)
}

func TestTerminalConstraintsAreEmpty(t *testing.T) {
	ht := NewHashTable()
	cs, err := ht.CreateTerminalConstraints()
	if err != nil {
		t.Fatalf("CreateTerminalConstraints: %v", err)
	}
	if len(cs) != 0 {
		t.Fatalf("expected zero terminal constraints, got %d", len(cs))
	}
}

func findCircuit(t *testing.T, cs []*circuits.Circuit, name string) *circuits.Circuit {
	t.Helper()
	for _, c := range cs {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("no circuit named %s", name)
	return nil
}

// TestConsistencyCIOpcodeGateAllowsAnyCIAtRoundZero locks in spec §4.2.3's
// "on round 0, CI may be anything" clause: a round_number=0 row whose CI is
// not one of the four sponge opcodes must still satisfy
// hash_table_ci_is_a_sponge_opcode, since the constraint is gated by
// round_number and so vanishes identically at round 0.
func TestConsistencyCIOpcodeGateAllowsAnyCIAtRoundZero(t *testing.T) {
	consistency, err := buildHashTableConsistencyCircuits()
	if err != nil {
		t.Fatalf("buildHashTableConsistencyCircuits: %v", err)
	}
	gate := findCircuit(t, consistency, "hash_table_ci_is_a_sponge_opcode")

	row := blankRow(0, Instruction(99)) // not one of the four sponge opcodes
	ext := []xfield.Element{xfield.RingOne(), xfield.RingOne(), xfield.RingOne()}
	got, err := gate.EvaluateSingleRow(row, ext, allChallenges())
	if err != nil {
		t.Fatalf("EvaluateSingleRow: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("round 0 with non-sponge CI: expected the gate to vanish, got %s", got)
	}
}

// TestConsistencyCIOpcodeGateRejectsNonSpongeOpcodeAtRoundNonzero is the
// complementary half of spec §4.2.3: at round_number >= 1, CI must be one
// of the four sponge opcodes.
func TestConsistencyCIOpcodeGateRejectsNonSpongeOpcodeAtRoundNonzero(t *testing.T) {
	consistency, err := buildHashTableConsistencyCircuits()
	if err != nil {
		t.Fatalf("buildHashTableConsistencyCircuits: %v", err)
	}
	gate := findCircuit(t, consistency, "hash_table_ci_is_a_sponge_opcode")

	row := blankRow(1, Instruction(99))
	ext := []xfield.Element{xfield.RingOne(), xfield.RingOne(), xfield.RingOne()}
	got, err := gate.EvaluateSingleRow(row, ext, allChallenges())
	if err != nil {
		t.Fatalf("EvaluateSingleRow: %v", err)
	}
	if got.IsZero() {
		t.Fatalf("round 1 with non-sponge CI: expected the gate to reject, got zero")
	}

	validRow := blankRow(1, SpongeSqueeze)
	got, err = gate.EvaluateSingleRow(validRow, ext, allChallenges())
	if err != nil {
		t.Fatalf("EvaluateSingleRow: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("round 1 with a genuine sponge opcode: expected the gate to vanish, got %s", got)
	}
}

// rescueLaneCircuits pulls the sixteen hash_table_rescue_round_lane_%d
// circuits out of the full transition set, indexed by lane.
func rescueLaneCircuits(t *testing.T, cs []*circuits.Circuit) [RescueStateSize]*circuits.Circuit {
	t.Helper()
	var lanes [RescueStateSize]*circuits.Circuit
	for i := 0; i < RescueStateSize; i++ {
		lanes[i] = findCircuit(t, cs, fmtRescueLaneName(i))
	}
	return lanes
}

func fmtRescueLaneName(i int) string {
	return fmt.Sprintf("hash_table_rescue_round_lane_%d", i)
}

// buildGenuineRescueRound constructs a real forward-and-back-substituted
// Rescue-XLIX round: given an arbitrary current state S and an arbitrary
// post-inverse-sbox intermediate state w, it derives round constants A, B
// and a next state S' such that
//
//	v = MDS*sbox(S) + A
//	x = sbox(w)
//	S' = MDS*w + B
//
// satisfies v == x in every lane by construction (A absorbs exactly the
// difference between sbox(w) and MDS*sbox(S)), without needing to compute
// the Rescue-XLIX inverse S-box. This exercises the real forward/backward
// MDS and S-box wiring of hash_table_rescue_round_lane_%d, unlike the
// all-zero padding row pair where round_number*(round_number-9) already
// vanishes and every lane constraint is trivially satisfied regardless of
// whether the MDS/S-box wiring is correct.
func buildGenuineRescueRound(t *testing.T, roundNumber uint64) (cur, next []field.Element) {
	t.Helper()
	var state, w [RescueStateSize]field.Element
	for i := 0; i < RescueStateSize; i++ {
		state[i] = field.New(uint64(3*i + 5))
		w[i] = field.New(uint64(100 + 7*i))
	}

	u := [RescueStateSize]field.Element{}
	for i := 0; i < RescueStateSize; i++ {
		u[i] = sbox(state[i])
	}
	v := mdsApply(RescueMDS, u)
	x := [RescueStateSize]field.Element{}
	for i := 0; i < RescueStateSize; i++ {
		x[i] = sbox(w[i])
	}

	var constA, constB [RescueStateSize]field.Element
	for i := 0; i < RescueStateSize; i++ {
		constA[i] = x[i].Sub(v[i])
		constB[i] = field.New(uint64(200 + 11*i))
	}
	nextState := mdsApply(RescueMDS, w)
	for i := 0; i < RescueStateSize; i++ {
		nextState[i] = nextState[i].Add(constB[i])
	}

	cur = blankRow(roundNumber, Hash)
	next = blankRow(roundNumber+1, Hash)
	for i := 0; i < RescueStateSize; i++ {
		cur[htState(i)] = state[i]
		cur[htConstantA(i)] = constA[i]
		cur[htConstantB(i)] = constB[i]
		next[htState(i)] = nextState[i]
	}
	return cur, next
}

// TestRescueRoundLaneConstraintsVanishOnGenuineRound exercises
// hash_table_rescue_round_lane_%d against a real interior round
// (round_number=3, neither 0 nor 9), checking that every lane's forward
// S-box/MDS computation matches its backward MDS_INV/S-box computation of
// the next row. Unlike the all-zero padding-row smoke test, this would
// fail if the MDS matrix, its inverse, the S-box exponent, or the round
// constant wiring were wrong.
func TestRescueRoundLaneConstraintsVanishOnGenuineRound(t *testing.T) {
	transition, err := buildHashTableTransitionCircuits()
	if err != nil {
		t.Fatalf("buildHashTableTransitionCircuits: %v", err)
	}
	lanes := rescueLaneCircuits(t, transition)

	cur, next := buildGenuineRescueRound(t, 3)
	ext := []xfield.Element{xfield.RingOne(), xfield.RingOne(), xfield.RingOne()}
	ch := allChallenges()

	for i, c := range lanes {
		got, err := c.EvaluateDualRow(cur, next, ext, ext, ch)
		if err != nil {
			t.Fatalf("lane %d: EvaluateDualRow: %v", i, err)
		}
		if !got.IsZero() {
			t.Fatalf("lane %d: expected zero on a genuine round, got %s", i, got)
		}
	}
}

// TestRescueRoundLaneConstraintsRejectCorruptedNextState perturbs a single
// lane of the next row's state and checks that at least one lane
// constraint catches it. Because MDS_INV mixes every output lane across
// all sixteen inputs, corrupting one coordinate of the next state
// generically breaks every lane's constraint, not just the corrupted one.
func TestRescueRoundLaneConstraintsRejectCorruptedNextState(t *testing.T) {
	transition, err := buildHashTableTransitionCircuits()
	if err != nil {
		t.Fatalf("buildHashTableTransitionCircuits: %v", err)
	}
	lanes := rescueLaneCircuits(t, transition)

	cur, next := buildGenuineRescueRound(t, 3)
	next[htState(5)] = next[htState(5)].Add(field.One)
	ext := []xfield.Element{xfield.RingOne(), xfield.RingOne(), xfield.RingOne()}
	ch := allChallenges()

	anyNonzero := false
	for i, c := range lanes {
		got, err := c.EvaluateDualRow(cur, next, ext, ext, ch)
		if err != nil {
			t.Fatalf("lane %d: EvaluateDualRow: %v", i, err)
		}
		if !got.IsZero() {
			anyNonzero = true
		}
	}
	if !anyNonzero {
		t.Fatalf("expected corrupting next-row state to break at least one rescue round lane constraint")
	}
}
