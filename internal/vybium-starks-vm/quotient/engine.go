// Package quotient implements the generic quotient-codeword pipeline
// shared by every table's AIR: zerofier construction per constraint
// family, batch-inverted division, a parallel per-constraint map over the
// FRI domain, and the debug degree-bound check that catches unclean
// division.
package quotient

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/polynomial"
	vybiumstarksvm "github.com/vybium/vybium-starks-vm/pkg/vybium-starks-vm"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/circuits"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/xfield"
)

// Table is the surface a coprocessor table exposes to the quotient
// engine: its declared name, its padded height H, the generator of its
// order-H trace subgroup ("omicron"), and its four constraint-circuit
// vectors. Codewords are supplied separately, as Codewords, matching the
// upstream engine's "pass codewords in, not own them" shape.
type Table interface {
	Name() string
	PaddedHeight() int
	Omicron() field.Element
	CreateInitialConstraints() ([]*circuits.Circuit, error)
	CreateConsistencyConstraints() ([]*circuits.Circuit, error)
	CreateTransitionConstraints() ([]*circuits.Circuit, error)
	CreateTerminalConstraints() ([]*circuits.Circuit, error)
}

// Codewords bundles the low-degree-extended base and extension columns, in
// the table's own column order, already evaluated over the FRI domain.
// The circuits DSL keeps base and extension rows in separate typed slices
// (field.Element vs xfield.Element), so codewords are split the same way
// here rather than mirroring the Rust upstream's single XFieldElement
// column list.
type Codewords struct {
	Base [][]field.Element
	Ext  [][]xfield.Element
}

func (cw Codewords) row(j int) ([]field.Element, []xfield.Element) {
	base := make([]field.Element, len(cw.Base))
	for i, col := range cw.Base {
		base[i] = col[j]
	}
	ext := make([]xfield.Element, len(cw.Ext))
	for i, col := range cw.Ext {
		ext[i] = col[j]
	}
	return base, ext
}

// DebugConfig is a plain struct with no Validate method: a single switch
// read from the environment once, at engine construction.
type DebugConfig struct {
	Enabled bool
}

// DebugConfigFromEnv reads the DEBUG environment variable, matching
// spec §6's "single debug switch".
func DebugConfigFromEnv() DebugConfig {
	_, set := os.LookupEnv("DEBUG")
	return DebugConfig{Enabled: set}
}

// Engine computes quotient codewords for one constraint family at a time
// over a fixed FRI domain.
type Engine struct {
	domain *protocols.ArithmeticDomain
	debug  DebugConfig
}

// NewEngine builds an Engine over the given FRI domain, reading the debug
// switch from the environment.
func NewEngine(domain *protocols.ArithmeticDomain) *Engine {
	return &Engine{domain: domain, debug: DebugConfigFromEnv()}
}

// AllQuotients returns the concatenation of a table's boundary (initial),
// transition, consistency, and terminal quotient codewords, in that
// order — matching the upstream engine's declared concatenation order
// exactly, not the more obvious boundary/consistency/transition/terminal
// grouping.
func (e *Engine) AllQuotients(ctx context.Context, table Table, codewords Codewords, challenges circuits.ChallengeBundle) ([][]xfield.Element, error) {
	boundary, err := e.BoundaryQuotients(ctx, table, codewords, challenges)
	if err != nil {
		return nil, fmt.Errorf("quotient: boundary quotients for %s: %w", table.Name(), err)
	}
	transition, err := e.TransitionQuotients(ctx, table, codewords, challenges)
	if err != nil {
		return nil, fmt.Errorf("quotient: transition quotients for %s: %w", table.Name(), err)
	}
	consistency, err := e.ConsistencyQuotients(ctx, table, codewords, challenges)
	if err != nil {
		return nil, fmt.Errorf("quotient: consistency quotients for %s: %w", table.Name(), err)
	}
	terminal, err := e.TerminalQuotients(ctx, table, codewords, challenges)
	if err != nil {
		return nil, fmt.Errorf("quotient: terminal quotients for %s: %w", table.Name(), err)
	}

	out := make([][]xfield.Element, 0, len(boundary)+len(transition)+len(consistency)+len(terminal))
	out = append(out, boundary...)
	out = append(out, transition...)
	out = append(out, consistency...)
	out = append(out, terminal...)
	return out, nil
}

// BoundaryQuotients divides the initial-constraint evaluations by the
// zerofier v_j - 1 (vanishing at the domain's identity element, i.e. row
// 0 of the trace subgroup).
func (e *Engine) BoundaryQuotients(ctx context.Context, table Table, cw Codewords, ch circuits.ChallengeBundle) ([][]xfield.Element, error) {
	constraints, err := table.CreateInitialConstraints()
	if err != nil {
		return nil, err
	}
	domainValues := e.domain.Elements()
	zerofier := make([]field.Element, len(domainValues))
	for j, v := range domainValues {
		zerofier[j] = v.Sub(field.One)
	}
	quotients, err := e.singleRowQuotients(ctx, table, cw, ch, constraints, zerofier)
	if err != nil {
		return nil, err
	}
	e.debugCheck(table.Name(), "boundary", constraints, quotients)
	return quotients, nil
}

// ConsistencyQuotients divides by the subgroup zerofier v_j^H - 1, which
// vanishes at every trace row.
func (e *Engine) ConsistencyQuotients(ctx context.Context, table Table, cw Codewords, ch circuits.ChallengeBundle) ([][]xfield.Element, error) {
	constraints, err := table.CreateConsistencyConstraints()
	if err != nil {
		return nil, err
	}
	zerofier := subgroupZerofier(e.domain.Elements(), table.PaddedHeight())
	quotients, err := e.singleRowQuotients(ctx, table, cw, ch, constraints, zerofier)
	if err != nil {
		return nil, err
	}
	e.debugCheck(table.Name(), "consistency", constraints, quotients)
	return quotients, nil
}

// TerminalQuotients divides by v_j - omicron^{-1}, which vanishes at the
// trace subgroup's last element.
func (e *Engine) TerminalQuotients(ctx context.Context, table Table, cw Codewords, ch circuits.ChallengeBundle) ([][]xfield.Element, error) {
	constraints, err := table.CreateTerminalConstraints()
	if err != nil {
		return nil, err
	}
	omicronInv, err := omicronInverse(table.Omicron())
	if err != nil {
		return nil, fmt.Errorf("quotient: %s omicron inverse: %w", table.Name(), err)
	}
	domainValues := e.domain.Elements()
	zerofier := make([]field.Element, len(domainValues))
	for j, v := range domainValues {
		zerofier[j] = v.Sub(omicronInv)
	}
	quotients, err := e.singleRowQuotients(ctx, table, cw, ch, constraints, zerofier)
	if err != nil {
		return nil, err
	}
	e.debugCheck(table.Name(), "terminal", constraints, quotients)
	return quotients, nil
}

// TransitionQuotients divides the transition-constraint evaluations,
// taken over every row pair (j, j+d) with d the unit distance N/H, by the
// subgroup zerofier with its last root (the wraparound pair) removed:
// Zinv[j] = (v_j - omicron^{-1}) * subgroup_zerofier_inv[j].
func (e *Engine) TransitionQuotients(ctx context.Context, table Table, cw Codewords, ch circuits.ChallengeBundle) ([][]xfield.Element, error) {
	constraints, err := table.CreateTransitionConstraints()
	if err != nil {
		return nil, err
	}
	paddedHeight := table.PaddedHeight()
	domainValues := e.domain.Elements()
	n := len(domainValues)

	omicronInv, err := omicronInverse(table.Omicron())
	if err != nil {
		return nil, fmt.Errorf("quotient: %s omicron inverse: %w", table.Name(), err)
	}
	subgroupZerofierInv, err := zerofierInverse(subgroupZerofier(domainValues, paddedHeight), paddedHeight)
	if err != nil {
		return nil, fmt.Errorf("quotient: %s subgroup zerofier: %w", table.Name(), err)
	}
	zinv := make([]field.Element, n)
	for j, v := range domainValues {
		zinv[j] = v.Sub(omicronInv).Mul(subgroupZerofierInv[j])
	}

	unitDistance := 0
	if paddedHeight > 0 {
		unitDistance = n / paddedHeight
	}

	quotients := make([][]xfield.Element, len(constraints))
	g, gctx := errgroup.WithContext(ctx)
	for ci, constraint := range constraints {
		ci, constraint := ci, constraint
		g.Go(func() error {
			codeword := make([]xfield.Element, n)
			for j := 0; j < n; j++ {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				curBase, curExt := cw.row(j)
				nextIdx := (j + unitDistance) % n
				nextBase, nextExt := cw.row(nextIdx)
				evaluated, err := constraint.EvaluateDualRow(curBase, nextBase, curExt, nextExt, ch)
				if err != nil {
					return fmt.Errorf("constraint %s at index %d: %w", constraint.Name(), j, err)
				}
				codeword[j] = evaluated.MulBase(zinv[j])
			}
			quotients[ci] = codeword
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.debugCheck(table.Name(), "transition", constraints, quotients)
	return quotients, nil
}

// singleRowQuotients is the shared body of BoundaryQuotients,
// ConsistencyQuotients, and TerminalQuotients: invert the given zerofier
// once, then evaluate every constraint at every domain index in parallel.
func (e *Engine) singleRowQuotients(ctx context.Context, table Table, cw Codewords, ch circuits.ChallengeBundle, constraints []*circuits.Circuit, zerofier []field.Element) ([][]xfield.Element, error) {
	zinv, err := zerofierInverse(zerofier, table.PaddedHeight())
	if err != nil {
		return nil, fmt.Errorf("quotient: %s zerofier: %w", table.Name(), err)
	}
	n := len(zinv)

	quotients := make([][]xfield.Element, len(constraints))
	g, gctx := errgroup.WithContext(ctx)
	for ci, constraint := range constraints {
		ci, constraint := ci, constraint
		g.Go(func() error {
			codeword := make([]xfield.Element, n)
			for j := 0; j < n; j++ {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				base, ext := cw.row(j)
				evaluated, err := constraint.EvaluateSingleRow(base, ext, ch)
				if err != nil {
					return fmt.Errorf("constraint %s at index %d: %w", constraint.Name(), j, err)
				}
				codeword[j] = evaluated.MulBase(zinv[j])
			}
			quotients[ci] = codeword
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotients, nil
}

// subgroupZerofier computes v_j^H - 1 for every domain value v_j.
func subgroupZerofier(domainValues []field.Element, paddedHeight int) []field.Element {
	z := make([]field.Element, len(domainValues))
	for j, v := range domainValues {
		z[j] = v.ModPow(uint64(paddedHeight)).Sub(field.One)
	}
	return z
}

func omicronInverse(omicron field.Element) (field.Element, error) {
	return omicron.Inv()
}

// zerofierInverse batch-inverts zerofier, except for a degenerate
// (padded_height == 0) table: inverting an identically-zero zerofier
// would return an error, and a zero-height table is never actually consumed
// downstream, so the raw (uninverted) zerofier is returned unchanged —
// mirroring the upstream engine's own degenerate-height guard.
func zerofierInverse(zerofier []field.Element, paddedHeight int) ([]field.Element, error) {
	if paddedHeight == 0 {
		return zerofier, nil
	}
	return batchInverseField(zerofier)
}

// batchInverseField inverts every element of elements using Montgomery's
// trick, the field.Element analog of xfield.BatchInverse (zerofiers never
// need to leave the base field, so they get their own specialization
// instead of round-tripping through xfield.FromBase/Coefficients).
func batchInverseField(elements []field.Element) ([]field.Element, error) {
	n := len(elements)
	if n == 0 {
		return []field.Element{}, nil
	}
	if n == 1 {
		inv, err := elements[0].Inv()
		if err != nil {
			return nil, err
		}
		return []field.Element{inv}, nil
	}

	for i, e := range elements {
		if e.IsZero() {
			return nil, fmt.Errorf("quotient: cannot batch-invert zero element at index %d", i)
		}
	}

	acc := make([]field.Element, n)
	acc[0] = elements[0]
	for i := 1; i < n; i++ {
		acc[i] = acc[i-1].Mul(elements[i])
	}

	accInv, err := acc[n-1].Inv()
	if err != nil {
		return nil, fmt.Errorf("quotient: failed to invert accumulator: %w", err)
	}

	results := make([]field.Element, n)
	for i := n - 1; i > 0; i-- {
		results[i] = accInv.Mul(acc[i-1])
		accInv = accInv.Mul(elements[i])
	}
	results[0] = accInv

	return results, nil
}

// debugCheck interpolates every quotient codeword back over the FRI
// domain and asserts its degree is strictly below N-1, catching unclean
// division (a constraint that did not actually vanish on every required
// row). A no-op unless DEBUG is set. xfield.Element has no native
// polynomial-interpolation counterpart in this codebase, so each
// codeword's three base-field coefficient streams are interpolated and
// checked independently via vybium-crypto's polynomial.Interpolate — the
// same technique protocols/master_table.go uses for base columns.
func (e *Engine) debugCheck(tableName, family string, constraints []*circuits.Circuit, quotients [][]xfield.Element) {
	if !e.debug.Enabled {
		return
	}
	domainValues := e.domain.Elements()
	n := len(domainValues)
	for idx, codeword := range quotients {
		for lane := 0; lane < 3; lane++ {
			points := make([][2]field.Element, n)
			for j, v := range domainValues {
				c0, c1, c2 := codeword[j].Coefficients()
				coeff := c0
				switch lane {
				case 1:
					coeff = c1
				case 2:
					coeff = c2
				}
				points[j] = [2]field.Element{v, coeff}
			}
			degree := polynomial.Interpolate(points).Degree()
			if degree >= n-1 {
				name := "<unknown>"
				if idx < len(constraints) {
					name = constraints[idx].Name()
				}
				panic(&vybiumstarksvm.VMError{
					Code: vybiumstarksvm.ErrDegreeBoundExceeded,
					Message: fmt.Sprintf(
						"degree of %s quotient number %d (of %d) in %s must not be maximal. "+
							"Got degree %d, and FRI domain length was %d. Unsatisfied constraint: %s",
						family, idx, len(quotients), tableName, degree, n, name),
				})
			}
		}
	}
}
