package quotient

import (
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/circuits"
)

// DegreeWithOrigin reports the maximal quotient degree contributed by one
// constraint, together with enough provenance to find it again: the
// owning table's name, the constraint's index within its family, the
// constraint's own raw AIR degree, and the table's padded height. Ported
// field-for-field from the upstream engine's reporting struct.
type DegreeWithOrigin struct {
	Degree            int
	OriginTableName   string
	OriginIndex       int
	OriginAirDegree   int
	OriginTableHeight int
}

// defaultDegreeWithOrigin is returned when a table has no transition
// constraints at all.
func defaultDegreeWithOrigin() DegreeWithOrigin {
	return DegreeWithOrigin{
		Degree:            -1,
		OriginTableName:   "NoTable",
		OriginIndex:       -1,
		OriginAirDegree:   -1,
		OriginTableHeight: 0,
	}
}

func (d DegreeWithOrigin) String() string {
	return fmt.Sprintf(
		"Degree of poly for table %s (index %d) is %d. AIR had degree %d. Table height was %d.",
		d.OriginTableName, d.OriginIndex, d.Degree, d.OriginAirDegree, d.OriginTableHeight)
}

// MaxDegreeWithOrigin computes the degree of the largest-degree quotient
// among a table's AIR constraints.
//
// TODO: this only covers transition constraints, and ignores unset
// terminal bounds. Replicated verbatim from the upstream engine, which
// carries the same TODO; do not silently broaden this to the other
// families.
func MaxDegreeWithOrigin(table Table) (DegreeWithOrigin, error) {
	constraints, err := table.CreateTransitionConstraints()
	if err != nil {
		return DegreeWithOrigin{}, err
	}
	if len(constraints) == 0 {
		return defaultDegreeWithOrigin(), nil
	}

	paddedHeight := table.PaddedHeight()
	interpolantDegree := paddedHeight - 1

	interpolantBound := func(circuits.IndicatorKind, int) int { return interpolantDegree }
	rawVariableBound := func(circuits.IndicatorKind, int) int { return 1 }

	best := defaultDegreeWithOrigin()
	for i, c := range constraints {
		symbolicDegreeBound := c.SymbolicDegreeBound(interpolantBound)
		candidate := DegreeWithOrigin{
			Degree:            symbolicDegreeBound - paddedHeight + 1,
			OriginTableName:   table.Name(),
			OriginIndex:       i,
			OriginAirDegree:   c.SymbolicDegreeBound(rawVariableBound),
			OriginTableHeight: paddedHeight,
		}
		if candidate.Degree > best.Degree {
			best = candidate
		}
	}
	return best, nil
}
