package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/seehuhn/mt19937"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestExactDistributionSingleSNP(t *testing.T) {
	p := 0.2
	s := mustSNP(t, "rs1", "A", "G", Forward, p, 0.5)

	d, err := newExactDistribution([]SNP{s}, DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, 3, d.Size())
	assert.True(t, d.Exact())

	wantEta := []float64{0, 0.5, 1.0}
	wantW := []float64{(1 - p) * (1 - p), 2 * p * (1 - p), p * p}
	for i := 0; i < 3; i++ {
		assert.InDelta(t, wantEta[i], d.Eta(i), 1e-12, "eta[%d]", i)
		assert.InDelta(t, wantW[i], d.Weight(i), 1e-12, "weight[%d]", i)
		assert.InDelta(t, math.Log(wantW[i]), d.LnProb(i), 1e-12, "lnP[%d]", i)
	}
}

func TestExactDistributionTwoSNPs(t *testing.T) {
	// p1=0.3 with lnHR ln(2); p2=0.4 with lnHR ln(1.5).
	s1 := mustSNP(t, "rs1", "A", "G", Forward, 0.3, math.Log(2))
	s2 := mustSNP(t, "rs2", "C", "T", Forward, 0.4, math.Log(1.5))

	d, err := newExactDistribution([]SNP{s1, s2}, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 9, d.Size())

	// Independent oracle for the genotype probabilities.
	b1 := distuv.Binomial{N: 2, P: 0.3}
	b2 := distuv.Binomial{N: 2, P: 0.4}

	weights := make([]float64, d.Size())
	for i := 0; i < d.Size(); i++ {
		// SNP 0 is the most significant base-3 digit.
		g1 := i / 3
		g2 := i % 3
		assert.InDelta(t, float64(g1)*math.Log(2)+float64(g2)*math.Log(1.5), d.Eta(i), 1e-12, "eta[%d]", i)
		assert.InDelta(t, b1.Prob(float64(g1))*b2.Prob(float64(g2)), d.Weight(i), 1e-12, "weight[%d]", i)
		weights[i] = d.Weight(i)
	}

	assert.InDelta(t, 1, floats.Sum(weights), 1e-12, "total probability mass")
}

func TestExactDistributionMassInvariant(t *testing.T) {
	snps := []SNP{
		mustSNP(t, "rs1", "A", "G", Forward, 0.07, -0.41),
		mustSNP(t, "rs2", "C", "T", Reverse, 0.23, 0.12),
		mustSNP(t, "rs3", "A", "C", Forward, 0.52, 0.33),
		mustSNP(t, "rs4", "G", "T", Forward, 0.71, -0.08),
		mustSNP(t, "rs5", "AT", "-", Reverse, 0.93, 0.47),
	}

	d, err := newExactDistribution(snps, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 243, d.Size())

	var mass float64
	for i := 0; i < d.Size(); i++ {
		mass += d.Weight(i)
	}
	assert.InDelta(t, 1, mass, 1e-10)
}

func TestMonteCarloDeterminism(t *testing.T) {
	snps := []SNP{
		mustSNP(t, "rs1", "A", "G", Forward, 0.2, 0.5),
		mustSNP(t, "rs2", "C", "T", Forward, 0.6, -0.25),
	}

	const n = 5000
	const seed = 314159265

	d1 := newMonteCarloDistribution(snps, n, seed)
	d2 := newMonteCarloDistribution(snps, n, seed)

	require.Equal(t, n, d1.Size())
	assert.False(t, d1.Exact())
	assert.Equal(t, 1/float64(n), d1.Weight(0))

	for i := 0; i < n; i++ {
		require.Equal(t, d1.Eta(i), d2.Eta(i), "sample %d must be identical under the fixed seed", i)
	}
}

func TestMonteCarloDrawOrder(t *testing.T) {
	// The documented consumption order is sample -> SNP in stored order ->
	// two uniforms per SNP. Replay the same MT19937 stream by hand.
	snps := []SNP{
		mustSNP(t, "rs1", "A", "G", Forward, 0.2, 0.5),
		mustSNP(t, "rs2", "C", "T", Forward, 0.6, -0.25),
		mustSNP(t, "rs3", "A", "T", Reverse, 0.45, 0.1),
	}
	const n = 200
	const seed = 99

	d := newMonteCarloDistribution(snps, n, seed)

	src := mt19937.New()
	src.Seed(seed)
	rng := rand.New(src)
	for i := 0; i < n; i++ {
		var eta float64
		for _, s := range snps {
			g := 0
			if rng.Float64() < s.Freq2() {
				g++
			}
			if rng.Float64() < s.Freq2() {
				g++
			}
			eta += float64(g) * s.LnHR2()
		}
		require.Equal(t, eta, d.Eta(i), "sample %d", i)
	}
}

func TestMonteCarloLnProbPanics(t *testing.T) {
	snps := []SNP{mustSNP(t, "rs1", "A", "G", Forward, 0.2, 0.5)}
	d := newMonteCarloDistribution(snps, 10, 1)
	assert.Panics(t, func() { d.LnProb(0) })
}
