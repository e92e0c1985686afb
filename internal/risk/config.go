package risk

import "fmt"

// Config holds the numeric constants of the engine. The defaults are part
// of the model definition; tests may build models with altered values, but
// a Config is immutable once a model is constructed with it.
type Config struct {
	// MaxSNPsExact is the largest SNP count for which exact 3^k genotype
	// enumeration is permitted.
	MaxSNPsExact int

	// MonteCarloSampleSize is the number of multivariant genotypes drawn
	// when the distribution is sampled instead of enumerated.
	MonteCarloSampleSize int

	// MonteCarloSeed seeds the MT19937 stream used for sampling. Fixed so
	// that model construction is deterministic.
	MonteCarloSeed int64

	// ProbEpsilon is the absolute tolerance for probability-mass checks
	// and for the baseline root-finder.
	ProbEpsilon float64

	// SolverMaxEval caps objective evaluations per root find.
	SolverMaxEval int
}

// DefaultConfig returns the engine constants fixed by the model definition.
func DefaultConfig() Config {
	return Config{
		MaxSNPsExact:         15,
		MonteCarloSampleSize: 10_000_000,
		MonteCarloSeed:       314159265,
		ProbEpsilon:          1e-10,
		SolverMaxEval:        100,
	}
}

func (c Config) validate() error {
	if c.MaxSNPsExact < 1 {
		return fmt.Errorf("%w: MaxSNPsExact must be at least 1, got %d", ErrInvalidArgument, c.MaxSNPsExact)
	}
	if c.MonteCarloSampleSize < 1 {
		return fmt.Errorf("%w: MonteCarloSampleSize must be positive, got %d", ErrInvalidArgument, c.MonteCarloSampleSize)
	}
	if c.ProbEpsilon <= 0 {
		return fmt.Errorf("%w: ProbEpsilon must be positive, got %g", ErrInvalidArgument, c.ProbEpsilon)
	}
	if c.SolverMaxEval < 2 {
		return fmt.Errorf("%w: SolverMaxEval must be at least 2, got %d", ErrInvalidArgument, c.SolverMaxEval)
	}
	return nil
}
