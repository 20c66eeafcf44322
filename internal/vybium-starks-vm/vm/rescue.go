package vm

import (
	"errors"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

var errSingularMatrix = errors.New("vm: matrix is not invertible")

// Rescue-XLIX parameters, per spec §6's external-interface contract:
// STATE_SIZE=16, RATE=10 (hence CAPACITY=6), NUM_ROUNDS=9, α=7, DIGEST_LENGTH=5.
const (
	RescueStateSize        = 16
	RescueRate             = 10
	RescueCapacity         = RescueStateSize - RescueRate
	RescueNumRounds        = 9
	RescueAlpha            = 7
	RescueDigestLength     = 5
	RescueNumRoundConsts   = RescueStateSize * 2 // one "a" and one "b" vector per round
	RescueTotalRoundConsts = RescueNumRoundConsts * RescueNumRounds
)

// RescueMDS and RescueMDSInv are the forward and inverse MDS matrices of
// the Rescue-XLIX round function. They are generated once at package
// init time as a Cauchy matrix (guaranteed MDS for distinct evaluation
// points) rather than hardcoded, since this module specifies the shape of
// the constraint system, not a soundness argument for a concrete
// parameter set (spec.md §1 Non-goals: "no cryptographic soundness
// argument").
var (
	RescueMDS    [RescueStateSize][RescueStateSize]field.Element
	RescueMDSInv [RescueStateSize][RescueStateSize]field.Element

	// RescueRoundConstants holds NUM_ROUNDS*32 constants; round i's (1-indexed)
	// 32 constants occupy RescueRoundConstants[32*(i-1) : 32*i].
	RescueRoundConstants [RescueTotalRoundConsts]field.Element
)

func init() {
	RescueMDS = generateCauchyMDS()
	inv, err := invertMatrix16(RescueMDS)
	if err != nil {
		panic("vm: Rescue-XLIX MDS matrix is not invertible: " + err.Error())
	}
	RescueMDSInv = inv
	RescueRoundConstants = generateRoundConstants()
}

// generateCauchyMDS builds M[i][j] = 1/(x_i - y_j) for distinct points
// x_i = i, y_j = STATE_SIZE + j, which is always invertible (Cauchy
// matrices are MDS whenever all x_i, y_j are pairwise distinct).
func generateCauchyMDS() [RescueStateSize][RescueStateSize]field.Element {
	var m [RescueStateSize][RescueStateSize]field.Element
	for i := 0; i < RescueStateSize; i++ {
		x := field.New(uint64(i))
		for j := 0; j < RescueStateSize; j++ {
			y := field.New(uint64(RescueStateSize + j))
			diff := x.Sub(y)
			inv, err := diff.Inv()
			if err != nil {
				panic("vm: degenerate Cauchy matrix point collision")
			}
			m[i][j] = inv
		}
	}
	return m
}

// sbox applies the Rescue-XLIX forward S-box x -> x^alpha.
func sbox(x field.Element) field.Element {
	return x.ModPow(RescueAlpha)
}

// mdsApply computes m * v for the 16x16 MDS (or MDS_INV) matrix.
func mdsApply(m [RescueStateSize][RescueStateSize]field.Element, v [RescueStateSize]field.Element) [RescueStateSize]field.Element {
	var out [RescueStateSize]field.Element
	for i := 0; i < RescueStateSize; i++ {
		acc := field.Zero
		for j := 0; j < RescueStateSize; j++ {
			acc = acc.Add(m[i][j].Mul(v[j]))
		}
		out[i] = acc
	}
	return out
}

// generateRoundConstants deterministically derives NUM_ROUNDS*32 round
// constants from a fixed seed via repeated field exponentiation, playing
// the role of the public Rescue-XLIX round-constant table referenced by
// spec §6. Any fixed, public, deterministic sequence satisfies the AIR's
// shape; this module does not specify (and spec.md explicitly excludes) a
// soundness argument for the concrete constants.
func generateRoundConstants() [RescueTotalRoundConsts]field.Element {
	var constants [RescueTotalRoundConsts]field.Element
	seed := field.New(0x5265736375655855) // "RescueXU" read as bytes, arbitrary fixed seed
	acc := seed
	step := field.New(7919) // a fixed odd constant to keep the sequence non-degenerate
	for i := range constants {
		acc = acc.Mul(acc).Add(step)
		constants[i] = acc
	}
	return constants
}

// invertMatrix16 inverts a 16x16 matrix over the base field via
// Gauss-Jordan elimination with partial pivoting.
func invertMatrix16(m [RescueStateSize][RescueStateSize]field.Element) ([RescueStateSize][RescueStateSize]field.Element, error) {
	const n = RescueStateSize
	var a [n][2 * n]field.Element
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a[i][j] = m[i][j]
		}
		a[i][n+i] = field.One
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for row := col; row < n; row++ {
			if !a[row][col].IsZero() {
				pivot = row
				break
			}
		}
		if pivot == -1 {
			return [n][n]field.Element{}, errSingularMatrix
		}
		a[col], a[pivot] = a[pivot], a[col]

		inv, err := a[col][col].Inv()
		if err != nil {
			return [n][n]field.Element{}, errSingularMatrix
		}
		for j := 0; j < 2*n; j++ {
			a[col][j] = a[col][j].Mul(inv)
		}

		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			factor := a[row][col]
			if factor.IsZero() {
				continue
			}
			for j := 0; j < 2*n; j++ {
				a[row][j] = a[row][j].Sub(factor.Mul(a[col][j]))
			}
		}
	}

	var out [n][n]field.Element
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = a[i][n+j]
		}
	}
	return out, nil
}
