package circuits

import (
	"fmt"

	vybiumstarksvm "github.com/vybium/vybium-starks-vm/pkg/vybium-starks-vm"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

// RowShape distinguishes single-row circuits (initial, consistency,
// terminal) from dual-row circuits (transition).
type RowShape int

const (
	SingleRow RowShape = iota
	DualRow
)

// Circuit is an immutable, consumed expression: a root node id plus a
// read-only view of the arena it was built in. It is built once at
// startup and reused, by reference, for every proof.
type Circuit struct {
	name  string
	arena []node
	root  int
	shape RowShape
}

// Name returns the constraint's human-readable name, used in degree-bound
// diagnostics and panic messages.
func (c *Circuit) Name() string { return c.name }

// Shape returns whether this is a single-row or dual-row circuit.
func (c *Circuit) Shape() RowShape { return c.shape }

func checkShape(arena []node, root int, shape RowShape) error {
	visited := make(map[int]bool)
	var walk func(id int) error
	walk = func(id int) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		n := arena[id]
		if n.op == opInput {
			isDual := n.indicator.isDualRow()
			if shape == SingleRow && isDual {
				return fmt.Errorf("single-row circuit references dual-row indicator (kind %d, col %d)", n.indicator, n.col)
			}
			if shape == DualRow && !isDual {
				return fmt.Errorf("dual-row circuit references single-row indicator (kind %d, col %d)", n.indicator, n.col)
			}
		}
		if n.left >= 0 {
			if err := walk(n.left); err != nil {
				return err
			}
		}
		if n.right >= 0 {
			if err := walk(n.right); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

// ConsumeSingleRow finalizes root as an immutable single-row circuit
// (initial, consistency, or terminal). It fails loudly at construction
// time if root transitively references any dual-row indicator.
func (b *Builder) ConsumeSingleRow(name string, root *Expr) (*Circuit, error) {
	if root.b != b {
		return nil, fmt.Errorf("circuits: expression built on a different builder")
	}
	if err := checkShape(b.nodes, root.id, SingleRow); err != nil {
		return nil, &vybiumstarksvm.VMError{
			Code:    vybiumstarksvm.ErrCircuitConstruction,
			Message: fmt.Sprintf("%s: %v", name, err),
		}
	}
	return &Circuit{name: name, arena: b.nodes, root: root.id, shape: SingleRow}, nil
}

// ConsumeDualRow finalizes root as an immutable dual-row (transition)
// circuit. It fails loudly at construction time if root transitively
// references any single-row indicator.
func (b *Builder) ConsumeDualRow(name string, root *Expr) (*Circuit, error) {
	if root.b != b {
		return nil, fmt.Errorf("circuits: expression built on a different builder")
	}
	if err := checkShape(b.nodes, root.id, DualRow); err != nil {
		return nil, &vybiumstarksvm.VMError{
			Code:    vybiumstarksvm.ErrCircuitConstruction,
			Message: fmt.Sprintf("%s: %v", name, err),
		}
	}
	return &Circuit{name: name, arena: b.nodes, root: root.id, shape: DualRow}, nil
}

// evalContext supplies row data to the evaluator, already lifted into X;
// EvaluateSingleRow and EvaluateDualRow populate only the fields relevant
// to their shape.
type evalContext struct {
	baseRow, nextBaseRow []xfield.Element
	extRow, nextExtRow   []xfield.Element
	challenges           ChallengeBundle
}

func (c *Circuit) eval(id int, ctx *evalContext, memo map[int]xfield.Element) (xfield.Element, error) {
	if v, ok := memo[id]; ok {
		return v, nil
	}
	n := c.arena[id]
	var result xfield.Element
	switch n.op {
	case opBConstant:
		result = xfield.FromBase(n.bConst)
	case opXConstant:
		result = n.xConst
	case opChallenge:
		v, err := ctx.challenges.Get(n.challengeID)
		if err != nil {
			return xfield.Element{}, err
		}
		result = v
	case opInput:
		result = lookupIndicator(n.indicator, n.col, ctx)
	case opAdd, opSub, opMul:
		lhs, err := c.eval(n.left, ctx, memo)
		if err != nil {
			return xfield.Element{}, err
		}
		rhs, err := c.eval(n.right, ctx, memo)
		if err != nil {
			return xfield.Element{}, err
		}
		switch n.op {
		case opAdd:
			result = lhs.Add(rhs)
		case opSub:
			result = lhs.Sub(rhs)
		case opMul:
			result = lhs.Mul(rhs)
		}
	default:
		return xfield.Element{}, fmt.Errorf("circuits: unknown op %d", n.op)
	}
	memo[id] = result
	return result, nil
}

func lookupIndicator(kind IndicatorKind, col int, ctx *evalContext) xfield.Element {
	switch kind {
	case BaseRow:
		return ctx.baseRow[col]
	case ExtRow:
		return ctx.extRow[col]
	case CurrentBaseRow:
		return ctx.baseRow[col]
	case NextBaseRow:
		return ctx.nextBaseRow[col]
	case CurrentExtRow:
		return ctx.extRow[col]
	case NextExtRow:
		return ctx.nextExtRow[col]
	}
	panic("circuits: unreachable indicator kind")
}
