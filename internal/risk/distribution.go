package risk

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/seehuhn/mt19937"
	"gonum.org/v1/gonum/floats"
)

// GenotypeDistribution is the model's distribution of multivariant
// genotypes, materialized as cached linear-predictor values. It has two
// variants: exact 3^k enumeration under HWE and linkage equilibrium, which
// also caches per-genotype log probabilities, and a fixed-size Monte Carlo
// sample, which weights every entry 1/N.
type GenotypeDistribution struct {
	exact  bool
	eta    []float64
	lnP    []float64 // exact only
	w      []float64 // exact only: exp(lnP), cached for the solver
	weight float64   // Monte Carlo only: 1/N
}

// newExactDistribution enumerates all 3^k multivariant genotypes.
//
// Multivariant index i is read as a k-digit base-3 number with SNP 0 as
// the most significant digit: the genotype of SNP j is
// (i / 3^(k-1-j)) mod 3.
func newExactDistribution(snps []SNP, cfg Config) (*GenotypeDistribution, error) {
	k := len(snps)

	// Per-SNP genotype contributions, indexed [j][g].
	etaTerm := make([][3]float64, k)
	lnPTerm := make([][3]float64, k)
	for j, s := range snps {
		for g := 0; g < 3; g++ {
			lp, err := s.LnProbGeno(g)
			if err != nil {
				return nil, err
			}
			etaTerm[j][g] = float64(g) * s.LnHR2()
			lnPTerm[j][g] = lp
		}
	}

	n := 1
	for range snps {
		n *= 3
	}

	d := &GenotypeDistribution{
		exact: true,
		eta:   make([]float64, n),
		lnP:   make([]float64, n),
		w:     make([]float64, n),
	}

	stride := make([]int, k) // stride[j] = 3^(k-1-j)
	st := 1
	for j := k - 1; j >= 0; j-- {
		stride[j] = st
		st *= 3
	}

	for i := 0; i < n; i++ {
		var eta, lnP float64
		for j := 0; j < k; j++ {
			g := (i / stride[j]) % 3
			eta += etaTerm[j][g]
			lnP += lnPTerm[j][g]
		}
		d.eta[i] = eta
		d.lnP[i] = lnP
		d.w[i] = math.Exp(lnP)
	}

	if mass := floats.Sum(d.w); math.Abs(mass-1) > cfg.ProbEpsilon {
		return nil, fmt.Errorf("%w: exact genotype probabilities sum to %v, not 1", ErrNumericInvariant, mass)
	}
	return d, nil
}

// newMonteCarloDistribution draws sampleSize multivariant genotypes from
// an MT19937 stream. Draw order is fixed: outer loop over samples, inner
// loop over SNPs in stored order, two uniforms per SNP.
func newMonteCarloDistribution(snps []SNP, sampleSize int, seed int64) *GenotypeDistribution {
	src := mt19937.New()
	src.Seed(seed)
	rng := rand.New(src)

	d := &GenotypeDistribution{
		eta:    make([]float64, sampleSize),
		weight: 1 / float64(sampleSize),
	}
	for i := range d.eta {
		var eta float64
		for _, s := range snps {
			eta += float64(s.RandomGeno(rng)) * s.lnHR2
		}
		d.eta[i] = eta
	}
	return d
}

// Exact reports whether the distribution carries exact log probabilities.
func (d *GenotypeDistribution) Exact() bool { return d.exact }

// Size returns the number of cached genotypes: 3^k when exact, the Monte
// Carlo sample size otherwise.
func (d *GenotypeDistribution) Size() int { return len(d.eta) }

// Eta returns the cached linear predictor of genotype i.
func (d *GenotypeDistribution) Eta(i int) float64 { return d.eta[i] }

// LnProb returns the log probability of genotype i. It is defined only
// for exact distributions; callers must branch on Exact.
func (d *GenotypeDistribution) LnProb(i int) float64 {
	if !d.exact {
		panic("risk: log probability undefined for Monte Carlo distribution")
	}
	return d.lnP[i]
}

// Weight returns the probability mass attached to genotype i: exp(lnP)
// when exact, 1/N for a Monte Carlo sample.
func (d *GenotypeDistribution) Weight(i int) float64 {
	if d.exact {
		return d.w[i]
	}
	return d.weight
}
