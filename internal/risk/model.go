package risk

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Model is a fitted polygenic risk model: the SNP panel, the time grid
// with its marginal and recovered baseline survivor curves, and the
// cached genotype distribution. A constructed Model is immutable and safe
// for concurrent prediction.
type Model struct {
	name     string
	snps     []SNP
	times    []float64
	margSurv []float64
	baseSurv []float64
	dist     *GenotypeDistribution
	cfg      Config
}

type modelOptions struct {
	useExact *bool
	cfg      Config
	logger   *zap.Logger
}

// Option configures model construction.
type Option func(*modelOptions)

// WithExact forces exact enumeration (true) or Monte Carlo sampling
// (false) instead of the SNP-count default. Exact enumeration over more
// than Config.MaxSNPsExact SNPs is an error.
func WithExact(exact bool) Option {
	return func(o *modelOptions) { o.useExact = &exact }
}

// WithConfig replaces the default engine constants.
func WithConfig(cfg Config) Option {
	return func(o *modelOptions) { o.cfg = cfg }
}

// WithLogger sets the logger used for construction diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *modelOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewModel builds a risk model from a SNP panel, a strictly increasing
// non-negative time grid, and the marginal survivor observed at those
// times. Construction enumerates or samples the genotype distribution and
// recovers the baseline survivor curve; any failure is fatal to the model.
func NewModel(name string, snps []SNP, times, margSurv []float64, opts ...Option) (*Model, error) {
	o := modelOptions{cfg: DefaultConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateModelInputs(name, snps, times, margSurv); err != nil {
		return nil, err
	}

	k := len(snps)
	useExact := k <= o.cfg.MaxSNPsExact
	if o.useExact != nil {
		if *o.useExact && k > o.cfg.MaxSNPsExact {
			return nil, fmt.Errorf("%w: exact enumeration requested for %d SNPs, maximum is %d",
				ErrInvalidArgument, k, o.cfg.MaxSNPsExact)
		}
		useExact = *o.useExact
	} else if !useExact {
		o.logger.Warn("exact enumeration unavailable, falling back to Monte Carlo sampling",
			zap.String("model", name),
			zap.Int("snps", k),
			zap.Int("maxSnpsExact", o.cfg.MaxSNPsExact),
			zap.Int("sampleSize", o.cfg.MonteCarloSampleSize))
	}

	m := &Model{
		name:     name,
		snps:     append([]SNP(nil), snps...),
		times:    append([]float64(nil), times...),
		margSurv: append([]float64(nil), margSurv...),
		cfg:      o.cfg,
	}

	var err error
	if useExact {
		m.dist, err = newExactDistribution(m.snps, o.cfg)
		if err != nil {
			return nil, err
		}
	} else {
		m.dist = newMonteCarloDistribution(m.snps, o.cfg.MonteCarloSampleSize, o.cfg.MonteCarloSeed)
	}

	m.baseSurv, err = solveBaseline(m.dist, m.margSurv, o.cfg)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	o.logger.Debug("risk model built",
		zap.String("model", name),
		zap.Int("snps", k),
		zap.Bool("exact", useExact),
		zap.Int("distributionSize", m.dist.Size()),
		zap.Int("times", len(m.times)))
	return m, nil
}

// RestoreModel rebuilds a model from previously persisted arrays. The
// genotype distribution is reconstructed (it is deterministic), while the
// stored baseline survivor is trusted instead of re-solved; it must still
// be a non-increasing curve in [0,1] matching the time grid.
func RestoreModel(name string, snps []SNP, times, margSurv, baseSurv []float64, useExact bool, opts ...Option) (*Model, error) {
	o := modelOptions{cfg: DefaultConfig(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateModelInputs(name, snps, times, margSurv); err != nil {
		return nil, err
	}
	if len(baseSurv) != len(times) {
		return nil, fmt.Errorf("%w: baseline survivor has %d values for %d times",
			ErrInvalidArgument, len(baseSurv), len(times))
	}
	for i, s := range baseSurv {
		if s < 0 || s > 1 || math.IsNaN(s) {
			return nil, fmt.Errorf("%w: baseline survivor %v at index %d is outside [0,1]",
				ErrNumericInvariant, s, i)
		}
		if i > 0 && s > baseSurv[i-1] {
			return nil, fmt.Errorf("%w: baseline survivor increases at index %d", ErrNumericInvariant, i)
		}
	}
	if useExact && len(snps) > o.cfg.MaxSNPsExact {
		return nil, fmt.Errorf("%w: exact enumeration requested for %d SNPs, maximum is %d",
			ErrInvalidArgument, len(snps), o.cfg.MaxSNPsExact)
	}

	m := &Model{
		name:     name,
		snps:     append([]SNP(nil), snps...),
		times:    append([]float64(nil), times...),
		margSurv: append([]float64(nil), margSurv...),
		baseSurv: append([]float64(nil), baseSurv...),
		cfg:      o.cfg,
	}
	if useExact {
		var err error
		m.dist, err = newExactDistribution(m.snps, o.cfg)
		if err != nil {
			return nil, err
		}
	} else {
		m.dist = newMonteCarloDistribution(m.snps, o.cfg.MonteCarloSampleSize, o.cfg.MonteCarloSeed)
	}
	return m, nil
}

func validateModelInputs(name string, snps []SNP, times, margSurv []float64) error {
	if name == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidArgument)
	}
	if len(snps) == 0 {
		return fmt.Errorf("%w: model %s has no SNPs", ErrInvalidArgument, name)
	}
	seen := make(map[string]bool, len(snps))
	for _, s := range snps {
		if seen[s.rsID] {
			return fmt.Errorf("%w: model %s lists %s twice", ErrInvalidArgument, name, s.rsID)
		}
		seen[s.rsID] = true
	}
	if len(times) == 0 {
		return fmt.Errorf("%w: model %s has no time points", ErrInvalidArgument, name)
	}
	if len(margSurv) != len(times) {
		return fmt.Errorf("%w: model %s has %d survivor values for %d times",
			ErrInvalidArgument, name, len(margSurv), len(times))
	}
	for i, t := range times {
		if math.IsNaN(t) || t < 0 {
			return fmt.Errorf("%w: model %s time %v at index %d is negative", ErrInvalidArgument, name, t, i)
		}
		if i > 0 && t <= times[i-1] {
			return fmt.Errorf("%w: model %s times are not strictly increasing at index %d", ErrInvalidArgument, name, i)
		}
	}
	for i, s := range margSurv {
		if s < 0 || s > 1 || math.IsNaN(s) {
			return fmt.Errorf("%w: model %s marginal survivor %v at index %d is outside [0,1]",
				ErrInvalidArgument, name, s, i)
		}
		if i > 0 && s > margSurv[i-1] {
			return fmt.Errorf("%w: model %s marginal survivor increases at index %d", ErrInvalidArgument, name, i)
		}
	}
	return nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// SNPs returns a copy of the model's SNP panel in storage order.
func (m *Model) SNPs() []SNP { return append([]SNP(nil), m.snps...) }

// Times returns a copy of the model time grid.
func (m *Model) Times() []float64 { return append([]float64(nil), m.times...) }

// MarginalSurvival returns a copy of the marginal survivor curve.
func (m *Model) MarginalSurvival() []float64 { return append([]float64(nil), m.margSurv...) }

// BaselineSurvival returns a copy of the recovered baseline survivor curve.
func (m *Model) BaselineSurvival() []float64 { return append([]float64(nil), m.baseSurv...) }

// Exact reports whether the genotype distribution is exact.
func (m *Model) Exact() bool { return m.dist.Exact() }

// Config returns the engine constants the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Predict evaluates one individual's genotypes against the model. Loci
// absent from g score as fully missing; an entry without a declared
// orientation is assumed to already be on the SNP's stored strand.
// Scoring failures are per-individual and leave the model untouched.
func (m *Model) Predict(g *Genotypes) (*Prediction, error) {
	var eta float64
	used := make([]UsedGenotype, 0, len(m.snps))
	for _, s := range m.snps {
		e := g.lookup(s.rsID)
		orient := s.orient
		if e.hasOrient {
			orient = e.orient
		}
		used = append(used, UsedGenotype{RsID: s.rsID, Alleles: e.a1 + "/" + e.a2})
		score, err := s.GenoScore(e.a1, e.a2, orient)
		if err != nil {
			return nil, fmt.Errorf("individual %s: %w", g.indivID, err)
		}
		eta += score
	}

	risks := make([]float64, len(m.times))
	expEta := math.Exp(eta)
	for t, b := range m.baseSurv {
		switch b {
		case 1:
			risks[t] = 0
		case 0:
			risks[t] = 1
		default:
			risks[t] = 1 - math.Exp(math.Log(b)*expEta)
		}
	}

	return &Prediction{
		IndivID:        g.indivID,
		ModelName:      m.name,
		Used:           used,
		PI:             eta,
		PIPercentile:   m.percentile(eta),
		Times:          append([]float64(nil), m.times...),
		CumulativeRisk: risks,
	}, nil
}

// percentile returns the probability mass of the genotype distribution
// with a linear predictor at or below eta (ties included).
func (m *Model) percentile(eta float64) float64 {
	n := m.dist.Size()
	if m.dist.Exact() {
		var p float64
		for i := 0; i < n; i++ {
			if m.dist.Eta(i) <= eta {
				p += m.dist.Weight(i)
			}
		}
		return math.Min(1, math.Max(0, p))
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.dist.Eta(i) <= eta {
			count++
		}
	}
	return float64(count) / float64(n)
}
