package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/circuits"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

// Challenge IDs closed over by the Hash Table's circuits. Three
// indeterminates drive the three running-evaluation accumulators; CIWeight
// and the sixteen per-lane HashStateWeights compress a row's instruction
// and state into a single randomized field element, the same
// random-linear-combination technique cross_table_arguments.go uses for
// every other table's running evaluations.
const (
	ChallengeHashInputEvalIndeterminate circuits.ChallengeID = iota
	ChallengeHashDigestEvalIndeterminate
	ChallengeSpongeEvalIndeterminate
	ChallengeCIWeight
	challengeHashStateWeightBase
)

// ChallengeHashStateWeight returns the challenge id for state lane i's
// random weight, i in [0, RescueStateSize).
func ChallengeHashStateWeight(i int) circuits.ChallengeID {
	return challengeHashStateWeightBase + circuits.ChallengeID(i)
}

var roundNumberDomain = []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

var spongeOpcodes = []Instruction{Hash, SpongeInit, SpongeAbsorb, SpongeSqueeze}

var initialCIDomain = []Instruction{Hash, SpongeInit}

// roundNumberDeselector builds a polynomial in roundNumber that vanishes at
// every legal round number except k, where it evaluates to a generically
// nonzero constant. Multiplying an equality check by this factor confines
// that check to the single row where round_number == k.
func roundNumberDeselector(b *circuits.Builder, roundNumber *circuits.Expr, k uint64) *circuits.Expr {
	factors := make([]*circuits.Expr, 0, len(roundNumberDomain)-1)
	for _, j := range roundNumberDomain {
		if j == k {
			continue
		}
		factors = append(factors, roundNumber.Sub(b.BConstant(field.New(j))))
	}
	return circuits.Product(b, factors)
}

// scalarIndicator builds a true 0/1 indicator for node == target, given
// that node is known (by an already-enforced constraint) to range only
// over the integers in domain. It is the Lagrange basis polynomial for
// target over domain, the same construction protocols/air.go's
// computeLagrangeBasis uses to interpolate a polynomial through chosen
// points, here evaluated symbolically instead of numerically.
func scalarIndicator(b *circuits.Builder, node *circuits.Expr, target uint64, domain []uint64) *circuits.Expr {
	targetVal := field.New(target)
	factors := make([]*circuits.Expr, 0, len(domain)-1)
	denom := field.One
	for _, d := range domain {
		if d == target {
			continue
		}
		dVal := field.New(d)
		factors = append(factors, node.Sub(b.BConstant(dVal)))
		denom = denom.Mul(targetVal.Sub(dVal))
	}
	denomInv, err := denom.Inv()
	if err != nil {
		panic("vm: scalarIndicator domain contains a duplicate value")
	}
	return circuits.Product(b, factors).Mul(b.BConstant(denomInv))
}

// opcodeIndicator is scalarIndicator specialized to Instruction-valued
// domains: a true 0/1 indicator for ci == target given that ci is known to
// range only over domain.
func opcodeIndicator(b *circuits.Builder, ci *circuits.Expr, target Instruction, domain []Instruction) *circuits.Expr {
	domainVals := make([]uint64, len(domain))
	for i, inst := range domain {
		domainVals[i] = uint64(inst)
	}
	return scalarIndicator(b, ci, uint64(target), domainVals)
}

func opcodeConstant(b *circuits.Builder, inst Instruction) *circuits.Expr {
	return b.BConstant(field.New(uint64(inst)))
}

// compressedState builds sum_{i in [lo, hi)} weight_i * stateExpr(i), the
// randomized linear combination used to fold a span of state lanes into
// one extension-field element for the running-evaluation updates.
func compressedState(b *circuits.Builder, stateExpr func(i int) *circuits.Expr, weight func(i int) circuits.ChallengeID, lo, hi int) *circuits.Expr {
	terms := make([]*circuits.Expr, 0, hi-lo)
	for i := lo; i < hi; i++ {
		terms = append(terms, stateExpr(i).Mul(b.Challenge(weight(i))))
	}
	return circuits.Sum(b, terms)
}

// gatedEquality returns active*(lhs-rhsActive) + (1-active)*(lhs-rhsInactive),
// where active is a true 0/1 indicator. This forces lhs=rhsActive on rows
// where active=1 and lhs=rhsInactive on rows where active=0, regardless of
// any other scaling, because active is exactly 0 or exactly 1.
func gatedEquality(one, active, lhs, rhsActive, rhsInactive *circuits.Expr) *circuits.Expr {
	notActive := one.Sub(active)
	return active.Mul(lhs.Sub(rhsActive)).Add(notActive.Mul(lhs.Sub(rhsInactive)))
}

// buildHashTableInitialCircuits implements spec §4.2.2.
func buildHashTableInitialCircuits() ([]*circuits.Circuit, error) {
	b := circuits.NewBuilder()
	one := b.BConstant(field.One)

	roundNumber := b.BaseRow(HTRoundNumber)
	ci := b.BaseRow(HTCI)

	var out []*circuits.Circuit
	consume := func(name string, expr *circuits.Expr) error {
		c, err := b.ConsumeSingleRow(name, expr)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	}

	roundNumberBoolean := roundNumber.Mul(roundNumber.Sub(one))
	if err := consume("hash_table_round_number_is_0_or_1_initially", roundNumberBoolean); err != nil {
		return nil, err
	}

	ciIsHashOrAbsorbInit := ci.Sub(opcodeConstant(b, Hash)).Mul(ci.Sub(opcodeConstant(b, SpongeInit)))
	if err := consume("hash_table_ci_is_hash_or_absorb_init_initially", ciIsHashOrAbsorbInit); err != nil {
		return nil, err
	}

	// Both round_number (boolean, per the constraint above) and a two-way
	// opcode indicator over {Hash, AbsorbInit} (per the constraint above)
	// are already exact 0/1 values on any row satisfying this circuit
	// family, so their product is an exact 0/1 "is this the accumulating
	// row" indicator.
	ciIsHash := opcodeIndicator(b, ci, Hash, initialCIDomain)
	ciIsAbsorbInit := opcodeIndicator(b, ci, SpongeInit, initialCIDomain)

	defaultInitial := b.XConstant(xfield.RingOne())
	hashInIndet := b.Challenge(ChallengeHashInputEvalIndeterminate)
	spongeIndet := b.Challenge(ChallengeSpongeEvalIndeterminate)
	ciWeight := b.Challenge(ChallengeCIWeight)

	rateExpr := func(i int) *circuits.Expr { return b.BaseRow(htState(i)) }
	compressedRate := compressedState(b, rateExpr, ChallengeHashStateWeight, 0, RescueRate)

	hashInputEval := b.ExtRow(HTHashInputRunningEvaluation)
	activeHashInput := roundNumber.Mul(ciIsHash)
	accumulatedHashInput := defaultInitial.Mul(hashInIndet).Add(compressedRate)
	hashInputEq := gatedEquality(one, activeHashInput, hashInputEval, accumulatedHashInput, defaultInitial)
	if err := consume("hash_table_hash_input_running_evaluation_initializes", hashInputEq); err != nil {
		return nil, err
	}

	// round_number never reaches 9 on the circuit's single row (it ranges
	// only over {0,1} here), so hash-digest always starts at default.
	hashDigestEval := b.ExtRow(HTHashDigestRunningEvaluation)
	if err := consume("hash_table_hash_digest_running_evaluation_initializes", hashDigestEval.Sub(defaultInitial)); err != nil {
		return nil, err
	}

	spongeEval := b.ExtRow(HTSpongeRunningEvaluation)
	activeSponge := roundNumber.Mul(ciIsAbsorbInit)
	accumulatedSponge := defaultInitial.Mul(spongeIndet).Add(ciWeight.Mul(ci)).Add(compressedRate)
	spongeEq := gatedEquality(one, activeSponge, spongeEval, accumulatedSponge, defaultInitial)
	if err := consume("hash_table_sponge_running_evaluation_initializes", spongeEq); err != nil {
		return nil, err
	}

	return out, nil
}

// buildHashTableConsistencyCircuits implements spec §4.2.3.
func buildHashTableConsistencyCircuits() ([]*circuits.Circuit, error) {
	b := circuits.NewBuilder()

	roundNumber := b.BaseRow(HTRoundNumber)
	ci := b.BaseRow(HTCI)

	var out []*circuits.Circuit
	consume := func(name string, expr *circuits.Expr) error {
		c, err := b.ConsumeSingleRow(name, expr)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	}

	// On round 0 (padding), CI may be anything. On round >= 1, CI must be
	// one of the four sponge opcodes; gated by round_number itself, which
	// is exactly zero at round 0 and nonzero at every other legal round
	// number, so the product vanishes identically on round-0 rows instead
	// of constraining them.
	ciFactors := make([]*circuits.Expr, len(spongeOpcodes))
	for i, op := range spongeOpcodes {
		ciFactors[i] = ci.Sub(opcodeConstant(b, op))
	}
	ciIsSpongeOpcode := roundNumber.Mul(circuits.Product(b, ciFactors))
	if err := consume("hash_table_ci_is_a_sponge_opcode", ciIsSpongeOpcode); err != nil {
		return nil, err
	}

	// Round-constant injection: at round i in [1, NUM_ROUNDS], every
	// constant column must equal the public table's entry for round i.
	// Unconstrained at round_number=0 (padding, and the row right before a
	// sponge call starts).
	for col := 0; col < RescueStateSize; col++ {
		constA := b.BaseRow(htConstantA(col))
		constB := b.BaseRow(htConstantB(col))
		var terms []*circuits.Expr
		for i := 1; i <= RescueNumRounds; i++ {
			deselector := roundNumberDeselector(b, roundNumber, uint64(i))
			wantA := RescueRoundConstants[RescueNumRoundConsts*(i-1)+col]
			wantB := RescueRoundConstants[RescueNumRoundConsts*(i-1)+RescueStateSize+col]
			terms = append(terms, deselector.Mul(constA.Sub(b.BConstant(wantA))))
			terms = append(terms, deselector.Mul(constB.Sub(b.BConstant(wantB))))
		}
		name := fmt.Sprintf("hash_table_round_constant_%d_injected", col)
		if err := consume(name, circuits.Sum(b, terms)); err != nil {
			return nil, err
		}
	}

	// Capacity initialization at round_number=1: CI=AbsorbInit resets the
	// capacity to (1,0,0,0,0,0); CI=Hash zeroes it. Absorb/Squeeze leave it
	// unconstrained here (their capacity already carries state from a
	// prior permutation).
	ciIsAbsorbInit := opcodeIndicator(b, ci, SpongeInit, spongeOpcodes)
	ciIsHash := opcodeIndicator(b, ci, Hash, spongeOpcodes)
	roundIs1 := roundNumberDeselector(b, roundNumber, 1)
	for lane := RescueRate; lane < RescueStateSize; lane++ {
		stateLane := b.BaseRow(htState(lane))
		wantAbsorbInit := field.Zero
		if lane == RescueRate {
			wantAbsorbInit = field.One
		}
		absorbInitEq := ciIsAbsorbInit.Mul(stateLane.Sub(b.BConstant(wantAbsorbInit)))
		hashEq := ciIsHash.Mul(stateLane.Sub(b.BConstant(field.Zero)))
		expr := roundIs1.Mul(absorbInitEq.Add(hashEq))
		name := fmt.Sprintf("hash_table_capacity_lane_%d_initializes", lane)
		if err := consume(name, expr); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// buildHashTableTransitionCircuits implements spec §4.2.4.
func buildHashTableTransitionCircuits() ([]*circuits.Circuit, error) {
	b := circuits.NewBuilder()
	one := b.BConstant(field.One)
	nine := b.BConstant(field.New(uint64(RescueNumRounds)))

	roundNumber := b.CurrentBaseRow(HTRoundNumber)
	nextRoundNumber := b.NextBaseRow(HTRoundNumber)
	ci := b.CurrentBaseRow(HTCI)
	nextCI := b.NextBaseRow(HTCI)

	var out []*circuits.Circuit
	add := func(name string, expr *circuits.Expr) error {
		c, err := b.ConsumeDualRow(name, expr)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	}

	// (a) round_number in {1..9} or round_number_next = 0.
	if err := add("hash_table_round_number_evolution_a",
		roundNumberDeselector(b, roundNumber, 0).Mul(nextRoundNumber)); err != nil {
		return nil, err
	}
	// (b) round_number != 9 or round_number_next in {0,1}.
	if err := add("hash_table_round_number_evolution_b",
		roundNumberDeselector(b, roundNumber, uint64(RescueNumRounds)).Mul(nextRoundNumber).Mul(nextRoundNumber.Sub(one))); err != nil {
		return nil, err
	}
	// (c) round_number in {0,9} or round_number_next = round_number + 1.
	activeInterior := roundNumber.Mul(roundNumber.Sub(nine))
	if err := add("hash_table_round_number_evolution_c",
		activeInterior.Mul(nextRoundNumber.Sub(roundNumber).Sub(one))); err != nil {
		return nil, err
	}

	// Instruction persistence: CI never changes once it is Hash (a
	// permutation call runs to completion), and CI never changes at all
	// except possibly at a round_number=9 boundary, the only row where a
	// fresh sponge call may begin.
	ciIsHashCur := opcodeIndicator(b, ci, Hash, spongeOpcodes)
	ciIsHashNext := opcodeIndicator(b, nextCI, Hash, spongeOpcodes)
	if err := add("hash_table_ci_is_hash_persists",
		ciIsHashCur.Mul(one.Sub(ciIsHashNext))); err != nil {
		return nil, err
	}
	if err := add("hash_table_ci_is_constant_except_at_round_9",
		roundNumber.Sub(nine).Mul(nextCI.Sub(ci))); err != nil {
		return nil, err
	}

	// Rescue-XLIX round function, enforced on interior rounds only
	// (round_number not in {0,9}), scaled by round_number*(round_number-9).
	var curState, nextState [RescueStateSize]*circuits.Expr
	var constA, constB [RescueStateSize]*circuits.Expr
	for i := 0; i < RescueStateSize; i++ {
		curState[i] = b.CurrentBaseRow(htState(i))
		nextState[i] = b.NextBaseRow(htState(i))
		constA[i] = b.CurrentBaseRow(htConstantA(i))
		constB[i] = b.CurrentBaseRow(htConstantB(i))
	}

	sboxOf := func(x *circuits.Expr) *circuits.Expr {
		x2 := x.Mul(x)
		x4 := x2.Mul(x2)
		x6 := x4.Mul(x2)
		return x6.Mul(x)
	}

	var u [RescueStateSize]*circuits.Expr
	var beforeInverseMDS [RescueStateSize]*circuits.Expr
	for i := 0; i < RescueStateSize; i++ {
		u[i] = sboxOf(curState[i])
		beforeInverseMDS[i] = nextState[i].Sub(constB[i])
	}

	var w [RescueStateSize]*circuits.Expr
	for i := 0; i < RescueStateSize; i++ {
		terms := make([]*circuits.Expr, RescueStateSize)
		for j := 0; j < RescueStateSize; j++ {
			terms[j] = beforeInverseMDS[j].Mul(b.BConstant(RescueMDSInv[i][j]))
		}
		w[i] = circuits.Sum(b, terms)
	}

	for i := 0; i < RescueStateSize; i++ {
		vTerms := make([]*circuits.Expr, RescueStateSize)
		for j := 0; j < RescueStateSize; j++ {
			vTerms[j] = u[j].Mul(b.BConstant(RescueMDS[i][j]))
		}
		v := circuits.Sum(b, vTerms).Add(constA[i])
		x := sboxOf(w[i])
		expr := activeInterior.Mul(v.Sub(x))
		name := fmt.Sprintf("hash_table_rescue_round_lane_%d", i)
		if err := add(name, expr); err != nil {
			return nil, err
		}
	}

	// Sponge cross-row rules, active when round_number_next = 1.
	isRoundNext1 := scalarIndicator(b, nextRoundNumber, 1, roundNumberDomain)
	isRoundNext9 := scalarIndicator(b, nextRoundNumber, uint64(RescueNumRounds), roundNumberDomain)
	nextCIIsAbsorbInit := opcodeIndicator(b, nextCI, SpongeInit, spongeOpcodes)
	nextCIIsAbsorb := opcodeIndicator(b, nextCI, SpongeAbsorb, spongeOpcodes)
	nextCIIsSqueeze := opcodeIndicator(b, nextCI, SpongeSqueeze, spongeOpcodes)
	nextCIIsHash := opcodeIndicator(b, nextCI, Hash, spongeOpcodes)

	// Capacity copy: on an Absorb continuation, capacity lanes [10,16)
	// carry over unchanged.
	capacityTerms := make([]*circuits.Expr, 0, RescueCapacity)
	for lane := RescueRate; lane < RescueStateSize; lane++ {
		diff := nextState[lane].Sub(curState[lane])
		capacityTerms = append(capacityTerms, diff.Mul(b.Challenge(ChallengeHashStateWeight(lane))))
	}
	capacityCopy := isRoundNext1.Mul(nextCIIsAbsorb).Mul(circuits.Sum(b, capacityTerms))
	if err := add("hash_table_absorb_preserves_capacity", capacityCopy); err != nil {
		return nil, err
	}

	// State copy: on a Squeeze continuation, the whole state carries over
	// unchanged (squeeze reads the rate without touching the permutation).
	stateTerms := make([]*circuits.Expr, 0, RescueStateSize)
	for lane := 0; lane < RescueStateSize; lane++ {
		diff := nextState[lane].Sub(curState[lane])
		stateTerms = append(stateTerms, diff.Mul(b.Challenge(ChallengeHashStateWeight(lane))))
	}
	stateCopy := isRoundNext1.Mul(nextCIIsSqueeze).Mul(circuits.Sum(b, stateTerms))
	if err := add("hash_table_squeeze_preserves_state", stateCopy); err != nil {
		return nil, err
	}

	// Running-evaluation updates.
	hashInputCur := b.CurrentExtRow(HTHashInputRunningEvaluation)
	hashInputNext := b.NextExtRow(HTHashInputRunningEvaluation)
	hashDigestCur := b.CurrentExtRow(HTHashDigestRunningEvaluation)
	hashDigestNext := b.NextExtRow(HTHashDigestRunningEvaluation)
	spongeCur := b.CurrentExtRow(HTSpongeRunningEvaluation)
	spongeNext := b.NextExtRow(HTSpongeRunningEvaluation)

	hashInIndet := b.Challenge(ChallengeHashInputEvalIndeterminate)
	hashDigIndet := b.Challenge(ChallengeHashDigestEvalIndeterminate)
	spongeIndet := b.Challenge(ChallengeSpongeEvalIndeterminate)
	ciWeight := b.Challenge(ChallengeCIWeight)

	nextRateExpr := func(i int) *circuits.Expr { return nextState[i] }
	curRateExpr := func(i int) *circuits.Expr { return curState[i] }
	compressedNextRate := compressedState(b, nextRateExpr, ChallengeHashStateWeight, 0, RescueRate)
	compressedNextDigest := compressedState(b, nextRateExpr, ChallengeHashStateWeight, 0, RescueDigestLength)
	compressedAbsorbDiff := compressedState(b, func(i int) *circuits.Expr {
		return nextRateExpr(i).Sub(curRateExpr(i))
	}, ChallengeHashStateWeight, 0, RescueRate)

	hashInputActive := isRoundNext1.Mul(nextCIIsHash)
	hashInputUpdate := hashInputCur.Mul(hashInIndet).Add(compressedNextRate)
	hashInputEq := gatedEquality(one, hashInputActive, hashInputNext, hashInputUpdate, hashInputCur)
	if err := add("hash_table_hash_input_running_evaluation_updates", hashInputEq); err != nil {
		return nil, err
	}

	digestActive := isRoundNext9.Mul(nextCIIsHash)
	digestUpdate := hashDigestCur.Mul(hashDigIndet).Add(compressedNextDigest)
	digestEq := gatedEquality(one, digestActive, hashDigestNext, digestUpdate, hashDigestCur)
	if err := add("hash_table_hash_digest_running_evaluation_updates", digestEq); err != nil {
		return nil, err
	}

	spongeActiveAbsorbInitOrSqueeze := isRoundNext1.Mul(nextCIIsAbsorbInit.Add(nextCIIsSqueeze))
	spongeUpdateAbsorbInitOrSqueeze := spongeCur.Mul(spongeIndet).Add(ciWeight.Mul(nextCI)).Add(compressedNextRate)
	spongeActiveAbsorb := isRoundNext1.Mul(nextCIIsAbsorb)
	spongeUpdateAbsorb := spongeCur.Mul(spongeIndet).Add(ciWeight.Mul(nextCI)).Add(compressedAbsorbDiff)
	spongeActiveTotal := spongeActiveAbsorbInitOrSqueeze.Add(spongeActiveAbsorb)
	notSpongeActive := one.Sub(spongeActiveTotal)
	spongeEq := spongeActiveAbsorbInitOrSqueeze.Mul(spongeNext.Sub(spongeUpdateAbsorbInitOrSqueeze)).
		Add(spongeActiveAbsorb.Mul(spongeNext.Sub(spongeUpdateAbsorb))).
		Add(notSpongeActive.Mul(spongeNext.Sub(spongeCur)))
	if err := add("hash_table_sponge_running_evaluation_updates", spongeEq); err != nil {
		return nil, err
	}

	return out, nil
}
