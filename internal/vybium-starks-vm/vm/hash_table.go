// Package vm implements the Hash Table, the coprocessor table that proves
// correct execution of Rescue-XLIX sponge calls (hash, sponge-init,
// sponge-absorb, sponge-squeeze) invoked by the processor.
package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/circuits"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

// Base column layout. ROUNDNUMBER and CI are single columns; STATE0..15
// hold the Rescue-XLIX permutation state; CONSTANT0A..15A/CONSTANT0B..15B
// hold the two round-constant vectors injected on either side of the
// S-box/MDS round (see rescue.go).
const (
	HTRoundNumber   = 0
	HTCI            = 1
	htStateBase     = 2
	htConstantABase = htStateBase + RescueStateSize
	htConstantBBase = htConstantABase + RescueStateSize

	// HashTableBaseWidth is the declared base width: ROUNDNUMBER, CI, 16
	// state lanes, and 32 round-constant columns (16 "a" + 16 "b").
	HashTableBaseWidth = htConstantBBase + RescueStateSize
)

func htState(i int) int      { return htStateBase + i }
func htConstantA(i int) int  { return htConstantABase + i }
func htConstantB(i int) int  { return htConstantBBase + i }

// Extension column layout: the three running-evaluation accumulators.
const (
	HTHashInputRunningEvaluation = iota
	HTHashDigestRunningEvaluation
	HTSpongeRunningEvaluation

	HashTableExtWidth
)

// HashTableImpl implements the Hash Table's base and extension columns,
// its four constraint-circuit vectors, its trace filler, and its
// extension filler.
type HashTableImpl struct {
	roundNumber []field.Element
	ci          []field.Element
	state       [RescueStateSize][]field.Element
	constantsA  [RescueStateSize][]field.Element
	constantsB  [RescueStateSize][]field.Element

	hashInputEval  []xfield.Element
	hashDigestEval []xfield.Element
	spongeEval     []xfield.Element

	realHeight   int
	paddedHeight int
}

// NewHashTable creates an empty Hash Table.
func NewHashTable() *HashTableImpl {
	return &HashTableImpl{}
}

// GetID returns the table's identifier.
func (ht *HashTableImpl) GetID() TableID { return HashTable }

// GetHeight returns the number of rows written by FillTrace, before
// padding.
func (ht *HashTableImpl) GetHeight() int { return ht.realHeight }

// GetPaddedHeight returns the height after Pad.
func (ht *HashTableImpl) GetPaddedHeight() int { return ht.paddedHeight }

// Name identifies the table for quotient.Engine's error messages and
// degree-with-origin reports.
func (ht *HashTableImpl) Name() string { return ht.GetID().String() }

// PaddedHeight satisfies quotient.Table; it is the same value as
// GetPaddedHeight, named to match the upstream engine's interface.
func (ht *HashTableImpl) PaddedHeight() int { return ht.paddedHeight }

// Omicron returns the generator of the order-paddedHeight multiplicative
// subgroup that is the table's trace domain. A padded height of 0 or 1
// has no meaningful subgroup generator of that order; field.One is
// returned instead, since those heights are already guarded out of real
// division by quotient.Engine's degenerate-height handling.
func (ht *HashTableImpl) Omicron() field.Element {
	if ht.paddedHeight <= 1 {
		return field.One
	}
	return field.PrimitiveRootOfUnity(uint64(ht.paddedHeight))
}

// GetMainColumns returns the HashTableBaseWidth base columns in declared
// column order.
func (ht *HashTableImpl) GetMainColumns() [][]field.Element {
	cols := make([][]field.Element, 0, HashTableBaseWidth)
	cols = append(cols, ht.roundNumber, ht.ci)
	for i := 0; i < RescueStateSize; i++ {
		cols = append(cols, ht.state[i])
	}
	for i := 0; i < RescueStateSize; i++ {
		cols = append(cols, ht.constantsA[i])
	}
	for i := 0; i < RescueStateSize; i++ {
		cols = append(cols, ht.constantsB[i])
	}
	return cols
}

// GetExtensionColumns returns the three running-evaluation columns. Unlike
// vm.ExecutionTable.GetAuxiliaryColumns (which is typed over the base
// field for tables whose cross-table arguments stay in B), the Hash
// Table's running evaluations live in the degree-3 extension field X, so
// this is exposed as its own method rather than shoehorned into the
// narrower legacy interface.
func (ht *HashTableImpl) GetExtensionColumns() [][]xfield.Element {
	return [][]xfield.Element{ht.hashInputEval, ht.hashDigestEval, ht.spongeEval}
}

// Row returns base row i as a flat, column-ordered slice.
func (ht *HashTableImpl) Row(i int) []field.Element {
	row := make([]field.Element, HashTableBaseWidth)
	row[HTRoundNumber] = ht.roundNumber[i]
	row[HTCI] = ht.ci[i]
	for j := 0; j < RescueStateSize; j++ {
		row[htState(j)] = ht.state[j][i]
		row[htConstantA(j)] = ht.constantsA[j][i]
		row[htConstantB(j)] = ht.constantsB[j][i]
	}
	return row
}

// ExtRow returns extension row i as a flat, column-ordered slice.
func (ht *HashTableImpl) ExtRow(i int) []xfield.Element {
	return []xfield.Element{ht.hashInputEval[i], ht.hashDigestEval[i], ht.spongeEval[i]}
}

func (ht *HashTableImpl) appendRow(row []field.Element) error {
	if len(row) != HashTableBaseWidth {
		return fmt.Errorf("vm: hash table row width %d != declared width %d", len(row), HashTableBaseWidth)
	}
	ht.roundNumber = append(ht.roundNumber, row[HTRoundNumber])
	ht.ci = append(ht.ci, row[HTCI])
	for i := 0; i < RescueStateSize; i++ {
		ht.state[i] = append(ht.state[i], row[htState(i)])
		ht.constantsA[i] = append(ht.constantsA[i], row[htConstantA(i)])
		ht.constantsB[i] = append(ht.constantsB[i], row[htConstantB(i)])
	}
	ht.realHeight++
	ht.paddedHeight = ht.realHeight
	return nil
}

// HashSubTraces bundles the VM's sponge and hash sub-matrices, both
// already laid out in the Hash Table's column order (spec §6, "VM
// trace").
type HashSubTraces struct {
	SpongeTrace [][]field.Element
	HashTrace   [][]field.Element
}

// FillTrace copies sponge_trace into rows [0, len(sponge_trace)) and
// hash_trace into the rows immediately following.
func (ht *HashTableImpl) FillTrace(traces HashSubTraces) error {
	for i, row := range traces.SpongeTrace {
		if err := ht.appendRow(row); err != nil {
			return fmt.Errorf("vm: hash table fill (sponge_trace row %d): %w", i, err)
		}
	}
	for i, row := range traces.HashTrace {
		if err := ht.appendRow(row); err != nil {
			return fmt.Errorf("vm: hash table fill (hash_trace row %d): %w", i, err)
		}
	}
	return nil
}

// Pad fills rows [current, targetHeight) as padding: CI is set to
// opcode(Hash) and every other column stays zero, producing
// round-number-0 rows that pass every consistency check. Pad is
// idempotent: calling it again with a targetHeight already reached is a
// no-op, leaving the matrix byte-identical.
func (ht *HashTableImpl) Pad(targetHeight int) error {
	current := len(ht.roundNumber)
	if targetHeight < current {
		return fmt.Errorf("vm: hash table target height %d is less than current stored height %d", targetHeight, current)
	}
	hashOpcode := field.New(uint64(Hash))
	for current < targetHeight {
		ht.roundNumber = append(ht.roundNumber, field.Zero)
		ht.ci = append(ht.ci, hashOpcode)
		for i := 0; i < RescueStateSize; i++ {
			ht.state[i] = append(ht.state[i], field.Zero)
			ht.constantsA[i] = append(ht.constantsA[i], field.Zero)
			ht.constantsB[i] = append(ht.constantsB[i], field.Zero)
		}
		current++
	}
	ht.paddedHeight = targetHeight
	return nil
}

// CreateInitialConstraints builds the row-0 constraint circuits (§4.2.2).
func (ht *HashTableImpl) CreateInitialConstraints() ([]*circuits.Circuit, error) {
	return buildHashTableInitialCircuits()
}

// CreateConsistencyConstraints builds the every-row constraint circuits
// (§4.2.3).
func (ht *HashTableImpl) CreateConsistencyConstraints() ([]*circuits.Circuit, error) {
	return buildHashTableConsistencyCircuits()
}

// CreateTransitionConstraints builds the row-pair constraint circuits
// (§4.2.4).
func (ht *HashTableImpl) CreateTransitionConstraints() ([]*circuits.Circuit, error) {
	return buildHashTableTransitionCircuits()
}

// CreateTerminalConstraints is empty for the Hash Table (§4.2.5).
func (ht *HashTableImpl) CreateTerminalConstraints() ([]*circuits.Circuit, error) {
	return nil, nil
}

// Extend walks the filled base table top-to-bottom, accumulating the
// three running-evaluation columns (§4.4).
func (ht *HashTableImpl) Extend(challenges circuits.ChallengeBundle) error {
	n := len(ht.roundNumber)
	ht.hashInputEval = make([]xfield.Element, n)
	ht.hashDigestEval = make([]xfield.Element, n)
	ht.spongeEval = make([]xfield.Element, n)

	hashInIndet, err := challenges.Get(ChallengeHashInputEvalIndeterminate)
	if err != nil {
		return err
	}
	hashDigIndet, err := challenges.Get(ChallengeHashDigestEvalIndeterminate)
	if err != nil {
		return err
	}
	spongeIndet, err := challenges.Get(ChallengeSpongeEvalIndeterminate)
	if err != nil {
		return err
	}
	ciWeight, err := challenges.Get(ChallengeCIWeight)
	if err != nil {
		return err
	}
	var weights [RescueStateSize]xfield.Element
	for i := 0; i < RescueStateSize; i++ {
		weights[i], err = challenges.Get(ChallengeHashStateWeight(i))
		if err != nil {
			return err
		}
	}

	hashOp := field.New(uint64(Hash))
	absorbInitOp := field.New(uint64(SpongeInit))
	absorbOp := field.New(uint64(SpongeAbsorb))
	squeezeOp := field.New(uint64(SpongeSqueeze))
	lastRoundVal := field.New(uint64(RescueNumRounds))

	hashInput := xfield.RingOne()
	hashDigest := xfield.RingOne()
	sponge := xfield.RingOne()

	prevRate := make([]field.Element, RescueRate)
	for i := range prevRate {
		prevRate[i] = field.Zero
	}

	for row := 0; row < n; row++ {
		rate := make([]field.Element, RescueRate)
		for i := 0; i < RescueRate; i++ {
			rate[i] = ht.state[i][row]
		}

		rn := ht.roundNumber[row]
		ci := ht.ci[row]

		if rn.Equal(lastRoundVal) && ci.Equal(hashOp) {
			compressed := xfield.RingZero()
			for i := 0; i < RescueDigestLength; i++ {
				compressed = compressed.Add(weights[i].MulBase(rate[i]))
			}
			hashDigest = hashDigest.Mul(hashDigIndet).Add(compressed)
		}

		if rn.Equal(field.One) {
			var elements []field.Element
			switch {
			case ci.Equal(hashOp), ci.Equal(absorbInitOp), ci.Equal(squeezeOp):
				elements = rate
			case ci.Equal(absorbOp):
				elements = make([]field.Element, RescueRate)
				for i := 0; i < RescueRate; i++ {
					elements[i] = rate[i].Sub(prevRate[i])
				}
			default:
				return fmt.Errorf("vm: hash table row %d: opcode must be hash, absorb_init, absorb, or squeeze", row)
			}

			compressed := xfield.RingZero()
			for i := 0; i < RescueRate; i++ {
				compressed = compressed.Add(weights[i].MulBase(elements[i]))
			}

			if ci.Equal(hashOp) {
				hashInput = hashInput.Mul(hashInIndet).Add(compressed)
			} else {
				sponge = sponge.Mul(spongeIndet).Add(ciWeight.MulBase(ci)).Add(compressed)
			}
		}

		ht.hashInputEval[row] = hashInput
		ht.hashDigestEval[row] = hashDigest
		ht.spongeEval[row] = sponge

		prevRate = rate
	}

	return nil
}
