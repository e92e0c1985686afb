package risk

import (
	"fmt"
	"math"
)

// solveBaseline recovers the baseline survivor function from the marginal
// one under the survival identity S(t) = E_eta[S0(t)^exp(eta)].
//
// For each time index the monotone objective
//
//	f(s) = sum_i w_i * s^exp(eta_i) - S(t)
//
// is bracketed on [0,1] (f(0) = -S(t), f(1) = 1-S(t)) and solved with
// Ridders' method. Marginal values within one ULP of 0 or 1 short-circuit
// to the same endpoint. Consecutive baseline values closer than
// cfg.ProbEpsilon stick to the earlier one, and the finished sequence
// must be non-increasing.
func solveBaseline(dist *GenotypeDistribution, margSurv []float64, cfg Config) ([]float64, error) {
	base := make([]float64, len(margSurv))
	for t, st := range margSurv {
		switch {
		case withinOneULP(st, 1):
			base[t] = 1
		case withinOneULP(st, 0):
			base[t] = 0
		default:
			f := survivorObjective(dist, st)
			root, err := ridders(f, 0, 1, -st, 1-st, cfg.ProbEpsilon, cfg.SolverMaxEval)
			if err != nil {
				return nil, fmt.Errorf("baseline survivor at index %d: %w", t, err)
			}
			base[t] = root
		}
		if t > 0 && math.Abs(base[t]-base[t-1]) <= cfg.ProbEpsilon {
			base[t] = base[t-1]
		}
	}

	for t := 1; t < len(base); t++ {
		if base[t] > base[t-1] {
			return nil, fmt.Errorf("%w: baseline survivor increases from %v to %v at index %d",
				ErrNumericInvariant, base[t-1], base[t], t)
		}
	}
	return base, nil
}

// survivorObjective returns f(s) = E_eta[s^exp(eta)] - st. Endpoints are
// returned analytically so the expectation is only evaluated on (0,1).
func survivorObjective(dist *GenotypeDistribution, st float64) func(float64) (float64, error) {
	return func(s float64) (float64, error) {
		if withinOneULP(s, 0) {
			return -st, nil
		}
		if withinOneULP(s, 1) {
			return 1 - st, nil
		}
		lns := math.Log(s)
		var sum float64
		for i, n := 0, dist.Size(); i < n; i++ {
			sum += dist.Weight(i) * math.Exp(lns*math.Exp(dist.Eta(i)))
		}
		if math.IsNaN(sum) {
			return 0, fmt.Errorf("expectation is NaN at s=%v", s)
		}
		return sum - st, nil
	}
}

// ridders finds the root of f bracketed by [x1,x2] with known endpoint
// values f1 and f2 of opposite sign, to absolute accuracy acc, spending
// at most maxEval calls to f. Evaluation errors are not swallowed: they
// surface wrapped in ErrSolverFailed with the cause attached.
func ridders(f func(float64) (float64, error), x1, x2, f1, f2, acc float64, maxEval int) (float64, error) {
	if f1 == 0 {
		return x1, nil
	}
	if f2 == 0 {
		return x2, nil
	}
	if (f1 < 0) == (f2 < 0) {
		return 0, fmt.Errorf("%w: root not bracketed by [%v,%v]", ErrSolverFailed, x1, x2)
	}

	xl, xh := x1, x2
	fl, fh := f1, f2
	ans := math.NaN()
	evals := 0

	for evals+2 <= maxEval {
		xm := 0.5 * (xl + xh)
		fm, err := f(xm)
		evals++
		if err != nil {
			return 0, fmt.Errorf("%w: objective at %v: %w", ErrSolverFailed, xm, err)
		}

		// The updated estimate from exponential interpolation through
		// (xl, xm, xh). The discriminant is positive whenever the
		// bracket is valid.
		disc := math.Sqrt(fm*fm - fl*fh)
		if disc == 0 {
			return xm, nil
		}
		step := (xm - xl) * fm / disc
		if fl < fh {
			step = -step
		}
		xnew := xm + step
		if !math.IsNaN(ans) && math.Abs(xnew-ans) <= acc {
			return xnew, nil
		}
		ans = xnew

		fnew, err := f(ans)
		evals++
		if err != nil {
			return 0, fmt.Errorf("%w: objective at %v: %w", ErrSolverFailed, ans, err)
		}
		if fnew == 0 {
			return ans, nil
		}

		switch {
		case math.Copysign(fm, fnew) != fm:
			xl, fl = xm, fm
			xh, fh = ans, fnew
		case math.Copysign(fl, fnew) != fl:
			xh, fh = ans, fnew
		case math.Copysign(fh, fnew) != fh:
			xl, fl = ans, fnew
		default:
			return 0, fmt.Errorf("%w: bracket lost at %v", ErrSolverFailed, ans)
		}
		if math.Abs(xh-xl) <= acc {
			return ans, nil
		}
	}
	return 0, fmt.Errorf("%w: no convergence within %d evaluations", ErrSolverFailed, maxEval)
}

// withinOneULP reports whether x equals y or is its immediate floating
// point neighbor.
func withinOneULP(x, y float64) bool {
	return x == y || math.Nextafter(x, y) == y
}
