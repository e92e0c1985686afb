package risk

import (
	"fmt"
	"strings"
)

type genotypeEntry struct {
	a1, a2    string
	orient    Orientation
	hasOrient bool
}

// Genotypes holds one individual's input genotypes keyed by rsID. It is
// built by its owner before prediction and read-only afterwards; loci the
// model asks about that were never set are treated as fully missing.
type Genotypes struct {
	indivID string
	entries map[string]genotypeEntry
}

// NewGenotypes creates an empty genotype map for one individual.
func NewGenotypes(indivID string) *Genotypes {
	return &Genotypes{
		indivID: indivID,
		entries: make(map[string]genotypeEntry),
	}
}

// IndivID returns the individual identifier.
func (g *Genotypes) IndivID() string { return g.indivID }

// Len returns the number of loci set.
func (g *Genotypes) Len() int { return len(g.entries) }

// Set records a genotype with no declared orientation. At predict time
// such an entry is assumed to already match the model SNP's stored
// strand, which disables strand flipping for that locus.
func (g *Genotypes) Set(rsID, a1, a2 string) error {
	return g.add(rsID, a1, a2, Forward, false)
}

// SetOriented records a genotype together with the strand its alleles
// are reported on.
func (g *Genotypes) SetOriented(rsID, a1, a2 string, orient Orientation) error {
	return g.add(rsID, a1, a2, orient, true)
}

func (g *Genotypes) add(rsID, a1, a2 string, orient Orientation, hasOrient bool) error {
	if !rsIDPattern.MatchString(rsID) {
		return fmt.Errorf("%w: rsID %q does not match rs[0-9]+", ErrInvalidInput, rsID)
	}
	u1 := strings.ToUpper(a1)
	u2 := strings.ToUpper(a2)
	if !inputAllelePattern.MatchString(u1) {
		return fmt.Errorf("%w: %s allele %q is not ACGT bases, -, or 0", ErrInvalidInput, rsID, a1)
	}
	if !inputAllelePattern.MatchString(u2) {
		return fmt.Errorf("%w: %s allele %q is not ACGT bases, -, or 0", ErrInvalidInput, rsID, a2)
	}
	if (u1 == "0") != (u2 == "0") {
		return fmt.Errorf("%w: %s alleles %q/%q: neither or both must be missing", ErrInvalidInput, rsID, a1, a2)
	}
	g.entries[rsID] = genotypeEntry{a1: u1, a2: u2, orient: orient, hasOrient: hasOrient}
	return nil
}

// lookup returns the entry for rsID, or a fully missing one.
func (g *Genotypes) lookup(rsID string) genotypeEntry {
	if e, ok := g.entries[rsID]; ok {
		return e
	}
	return genotypeEntry{a1: "0", a2: "0"}
}

// UsedGenotype is one entry of a prediction's genotype echo: the input
// alleles actually scored for a model SNP, as "a1/a2".
type UsedGenotype struct {
	RsID    string
	Alleles string
}

// Prediction is the outcome of evaluating one individual against one
// risk model. It aliases nothing inside the model.
type Prediction struct {
	IndivID   string
	ModelName string

	// Used echoes the scored input alleles per SNP, in the model's SNP
	// storage order.
	Used []UsedGenotype

	// PI is the prognostic index (linear predictor).
	PI float64

	// PIPercentile is the probability mass of the model's genotype
	// distribution with a linear predictor at or below PI.
	PIPercentile float64

	// Times and CumulativeRisk are parallel: the cumulative disease risk
	// by each model time for this individual.
	Times          []float64
	CumulativeRisk []float64
}
