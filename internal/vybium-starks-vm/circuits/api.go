package circuits

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

func liftRow(row []field.Element) []xfield.Element {
	lifted := make([]xfield.Element, len(row))
	for i, b := range row {
		lifted[i] = xfield.FromBase(b)
	}
	return lifted
}

// EvaluateSingleRow evaluates an initial, consistency, or terminal
// constraint circuit on one row. The evaluation is a straightforward
// bottom-up fold over the DAG, memoized per node id so shared
// subexpressions are computed once.
func (c *Circuit) EvaluateSingleRow(baseRow []field.Element, extRow []xfield.Element, challenges ChallengeBundle) (xfield.Element, error) {
	if c.shape != SingleRow {
		return xfield.Element{}, fmt.Errorf("circuits: %s is a dual-row circuit, not single-row", c.name)
	}
	ctx := &evalContext{baseRow: liftRow(baseRow), extRow: extRow, challenges: challenges}
	return c.eval(c.root, ctx, make(map[int]xfield.Element))
}

// EvaluateDualRow evaluates a transition constraint circuit on an adjacent
// row pair.
func (c *Circuit) EvaluateDualRow(curBase, nextBase []field.Element, curExt, nextExt []xfield.Element, challenges ChallengeBundle) (xfield.Element, error) {
	if c.shape != DualRow {
		return xfield.Element{}, fmt.Errorf("circuits: %s is a single-row circuit, not dual-row", c.name)
	}
	ctx := &evalContext{
		baseRow:     liftRow(curBase),
		nextBaseRow: liftRow(nextBase),
		extRow:      curExt,
		nextExtRow:  nextExt,
		challenges:  challenges,
	}
	return c.eval(c.root, ctx, make(map[int]xfield.Element))
}

// DegreeBoundFn supplies the assumed symbolic degree of every column a
// circuit might read, given the indicator kind and column index. Callers
// sizing the FRI domain conventionally return the interpolant degree (H-1);
// SymbolicDegreeBound uses whatever value the function returns.
type DegreeBoundFn func(kind IndicatorKind, col int) int

// SymbolicDegreeBound computes the maximum total degree of the circuit,
// assuming each input variable has the degree reported by bound. This is
// a bottom-up fold exactly like numeric evaluation: constants and
// challenges have degree 0, an input has the degree of its column, sums
// take the max of their operands' degrees, and products sum their
// operands' degrees. Memoized per node id for the same reason numeric
// evaluation is: the Rescue-XLIX round function shares subexpressions
// across 16 state lanes and evaluating degree naively would be
// exponential in the round count.
func (c *Circuit) SymbolicDegreeBound(bound DegreeBoundFn) int {
	memo := make(map[int]int)
	var walk func(id int) int
	walk = func(id int) int {
		if d, ok := memo[id]; ok {
			return d
		}
		n := c.arena[id]
		var d int
		switch n.op {
		case opBConstant, opXConstant, opChallenge:
			d = 0
		case opInput:
			d = bound(n.indicator, n.col)
		case opAdd, opSub:
			l, r := walk(n.left), walk(n.right)
			if l > r {
				d = l
			} else {
				d = r
			}
		case opMul:
			d = walk(n.left) + walk(n.right)
		}
		memo[id] = d
		return d
	}
	return walk(c.root)
}
