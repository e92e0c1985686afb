package risk

import (
	"fmt"
	"math"
)

// IncidenceRow is one year of a population annual incidence table.
type IncidenceRow struct {
	AgeYrs int
	Hazard float64
}

// SurvivorFromIncidence converts an annual incidence table into a
// marginal survivor curve by cumulative-hazard summation:
// S(a) = exp(-sum of hazards through age a). Ages must run contiguously
// from 0, the age-0 hazard must be exactly 0, and all hazards must be
// non-negative; S(0) = 1 by construction.
func SurvivorFromIncidence(rows []IncidenceRow) (times, surv []float64, err error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: empty incidence table", ErrInvalidInput)
	}
	times = make([]float64, len(rows))
	surv = make([]float64, len(rows))
	var cum float64
	for i, r := range rows {
		if r.AgeYrs != i {
			return nil, nil, fmt.Errorf("%w: incidence ages must run contiguously from 0, got age %d at row %d",
				ErrInvalidInput, r.AgeYrs, i)
		}
		if i == 0 && r.Hazard != 0 {
			return nil, nil, fmt.Errorf("%w: incidence at age 0 must be 0, got %g", ErrInvalidInput, r.Hazard)
		}
		if r.Hazard < 0 || math.IsNaN(r.Hazard) || math.IsInf(r.Hazard, 0) {
			return nil, nil, fmt.Errorf("%w: incidence %g at age %d is not a non-negative finite number",
				ErrInvalidInput, r.Hazard, r.AgeYrs)
		}
		cum += r.Hazard
		times[i] = float64(r.AgeYrs)
		surv[i] = math.Exp(-cum)
	}
	return times, surv, nil
}
