// Package circuits implements the constraint-circuit DSL shared by every
// table's AIR: a DAG of multivariate polynomial expressions over
// (base-row, next-base-row, ext-row, next-ext-row, challenges) that
// supports both symbolic degree analysis and numeric evaluation, with
// common-subexpression sharing so large expressions (the Rescue-XLIX round
// function expands many multiplications across 16 state lanes) are not
// evaluated exponentially.
package circuits

import (
	"fmt"

	vybiumstarksvm "github.com/vybium/vybium-starks-vm/pkg/vybium-starks-vm"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

// IndicatorKind tags which row-slot an Input leaf reads from. BaseRow and
// ExtRow are the single-row forms used by initial, consistency, and
// terminal circuits; the Current*/Next* forms are the dual-row forms used
// by transition circuits only.
type IndicatorKind int

const (
	BaseRow IndicatorKind = iota
	ExtRow
	CurrentBaseRow
	NextBaseRow
	CurrentExtRow
	NextExtRow
)

func (k IndicatorKind) isDualRow() bool {
	switch k {
	case CurrentBaseRow, NextBaseRow, CurrentExtRow, NextExtRow:
		return true
	default:
		return false
	}
}

// ChallengeID names one element of the challenge bundle a circuit closes
// over.
type ChallengeID int

// ChallengeBundle is the immutable set of named X values supplied by the
// verifier that every constraint circuit may reference.
type ChallengeBundle struct {
	values map[ChallengeID]xfield.Element
}

// NewChallengeBundle builds a bundle from a name->value map.
func NewChallengeBundle(values map[ChallengeID]xfield.Element) ChallengeBundle {
	cp := make(map[ChallengeID]xfield.Element, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return ChallengeBundle{values: cp}
}

// Get returns the named challenge, or an authoring error if it was never
// supplied.
func (c ChallengeBundle) Get(id ChallengeID) (xfield.Element, error) {
	v, ok := c.values[id]
	if !ok {
		return xfield.Element{}, &vybiumstarksvm.VMError{
			Code:    vybiumstarksvm.ErrCircuitConstruction,
			Message: fmt.Sprintf("missing challenge id %d", id),
		}
	}
	return v, nil
}

type opKind int

const (
	opBConstant opKind = iota
	opXConstant
	opChallenge
	opInput
	opAdd
	opSub
	opMul
)

type node struct {
	op          opKind
	bConst      field.Element
	xConst      xfield.Element
	challengeID ChallengeID
	indicator   IndicatorKind
	col         int
	left, right int // node ids, -1 when unused
}

// internKey identifies a node for common-subexpression sharing: same
// operator applied to the same operand ids (or the same leaf payload)
// always reuses the existing node id.
type internKey struct {
	op          opKind
	bConst      string
	xConst      string
	challengeID ChallengeID
	indicator   IndicatorKind
	col         int
	left, right int
}

// Builder accumulates a shared arena of nodes. Expressions built from the
// same Builder automatically share identical subexpressions.
type Builder struct {
	nodes  []node
	intern map[internKey]int
}

// NewBuilder creates an empty expression arena.
func NewBuilder() *Builder {
	return &Builder{intern: make(map[internKey]int)}
}

// Expr is a handle to a node in a Builder's arena.
type Expr struct {
	b  *Builder
	id int
}

func (b *Builder) intern_(n node, key internKey) *Expr {
	if id, ok := b.intern[key]; ok {
		return &Expr{b: b, id: id}
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, n)
	b.intern[key] = id
	return &Expr{b: b, id: id}
}

// BConstant lifts a base-field constant into the DAG.
func (b *Builder) BConstant(v field.Element) *Expr {
	n := node{op: opBConstant, bConst: v, left: -1, right: -1}
	return b.intern_(n, internKey{op: opBConstant, bConst: v.String(), left: -1, right: -1})
}

// XConstant lifts an extension-field constant into the DAG.
func (b *Builder) XConstant(v xfield.Element) *Expr {
	n := node{op: opXConstant, xConst: v, left: -1, right: -1}
	return b.intern_(n, internKey{op: opXConstant, xConst: v.String(), left: -1, right: -1})
}

// Challenge references a named challenge.
func (b *Builder) Challenge(id ChallengeID) *Expr {
	n := node{op: opChallenge, challengeID: id, left: -1, right: -1}
	return b.intern_(n, internKey{op: opChallenge, challengeID: id, left: -1, right: -1})
}

func (b *Builder) input(kind IndicatorKind, col int) *Expr {
	n := node{op: opInput, indicator: kind, col: col, left: -1, right: -1}
	return b.intern_(n, internKey{op: opInput, indicator: kind, col: col, left: -1, right: -1})
}

// BaseRow reads a base-table column in single-row position.
func (b *Builder) BaseRow(col int) *Expr { return b.input(BaseRow, col) }

// ExtRow reads an extension-table column in single-row position.
func (b *Builder) ExtRow(col int) *Expr { return b.input(ExtRow, col) }

// CurrentBaseRow reads a base-table column of the current row of a
// transition pair.
func (b *Builder) CurrentBaseRow(col int) *Expr { return b.input(CurrentBaseRow, col) }

// NextBaseRow reads a base-table column of the next row of a transition
// pair.
func (b *Builder) NextBaseRow(col int) *Expr { return b.input(NextBaseRow, col) }

// CurrentExtRow reads an extension-table column of the current row of a
// transition pair.
func (b *Builder) CurrentExtRow(col int) *Expr { return b.input(CurrentExtRow, col) }

// NextExtRow reads an extension-table column of the next row of a
// transition pair.
func (b *Builder) NextExtRow(col int) *Expr { return b.input(NextExtRow, col) }

func (e *Expr) binary(op opKind, o *Expr) *Expr {
	if e.b != o.b {
		panic("circuits: cannot combine expressions from different builders")
	}
	n := node{op: op, left: e.id, right: o.id}
	return e.b.intern_(n, internKey{op: op, left: e.id, right: o.id})
}

// Add returns e + o, sharing the node if an identical sum already exists.
func (e *Expr) Add(o *Expr) *Expr { return e.binary(opAdd, o) }

// Sub returns e - o.
func (e *Expr) Sub(o *Expr) *Expr { return e.binary(opSub, o) }

// Mul returns e * o.
func (e *Expr) Mul(o *Expr) *Expr { return e.binary(opMul, o) }

// Sum folds a slice of expressions built on the same builder with Add,
// returning the builder's zero constant for an empty slice.
func Sum(b *Builder, terms []*Expr) *Expr {
	if len(terms) == 0 {
		return b.XConstant(xfield.RingZero())
	}
	acc := terms[0]
	for _, t := range terms[1:] {
		acc = acc.Add(t)
	}
	return acc
}

// Product folds a slice of expressions with Mul, returning the builder's
// one constant for an empty slice.
func Product(b *Builder, factors []*Expr) *Expr {
	if len(factors) == 0 {
		return b.XConstant(xfield.RingOne())
	}
	acc := factors[0]
	for _, f := range factors[1:] {
		acc = acc.Mul(f)
	}
	return acc
}
