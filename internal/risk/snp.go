package risk

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Orientation is the strand a pair of alleles is reported on, relative to
// the reference assembly.
type Orientation uint8

const (
	Forward Orientation = iota
	Reverse
)

// String returns the orientation as it appears in input tables.
func (o Orientation) String() string {
	if o == Reverse {
		return "Reverse"
	}
	return "Forward"
}

// ParseOrientation parses an orientRs token, case-insensitively.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(s) {
	case "FORWARD":
		return Forward, nil
	case "REVERSE":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("%w: orientation %q is not Forward or Reverse", ErrInvalidInput, s)
}

var (
	rsIDPattern        = regexp.MustCompile(`^rs[0-9]+$`)
	allelePattern      = regexp.MustCompile(`^-$|^[ACGT]+$`)
	inputAllelePattern = regexp.MustCompile(`^-$|^0$|^[ACGT]+$`)
)

// UniformSource supplies independent uniform(0,1) variates. *rand.Rand
// satisfies it.
type UniformSource interface {
	Float64() float64
}

// SNP is an immutable descriptor of one biallelic locus: its population
// alleles, the strand they refer to, the frequency of the designated
// effect allele (allele 2), and the Cox log hazard ratio per copy of it.
type SNP struct {
	rsID      string
	sourceRef string
	allele1   string
	allele2   string
	orient    Orientation
	freq2     float64
	lnHR2     float64
}

// NewSNP validates and builds a SNP descriptor. Allele strings are
// uppercased; each must be either a run of ACGT bases or a single "-".
func NewSNP(rsID, sourceRef, allele1, allele2 string, orient Orientation, freq2, lnHR2 float64) (SNP, error) {
	if !rsIDPattern.MatchString(rsID) {
		return SNP{}, fmt.Errorf("%w: rsID %q does not match rs[0-9]+", ErrInvalidInput, rsID)
	}
	a1 := strings.ToUpper(allele1)
	a2 := strings.ToUpper(allele2)
	if !allelePattern.MatchString(a1) {
		return SNP{}, fmt.Errorf("%w: %s allele 1 %q is not ACGT bases or -", ErrInvalidInput, rsID, allele1)
	}
	if !allelePattern.MatchString(a2) {
		return SNP{}, fmt.Errorf("%w: %s allele 2 %q is not ACGT bases or -", ErrInvalidInput, rsID, allele2)
	}
	if a1 == a2 {
		return SNP{}, fmt.Errorf("%w: %s alleles are both %q", ErrInvalidInput, rsID, a1)
	}
	if !(freq2 > 0 && freq2 < 1) {
		return SNP{}, fmt.Errorf("%w: %s allele 2 frequency %g is not inside (0,1)", ErrInvalidInput, rsID, freq2)
	}
	if math.IsNaN(lnHR2) || math.IsInf(lnHR2, 0) {
		return SNP{}, fmt.Errorf("%w: %s allele 2 log hazard ratio %g is not finite", ErrInvalidInput, rsID, lnHR2)
	}
	return SNP{
		rsID:      rsID,
		sourceRef: sourceRef,
		allele1:   a1,
		allele2:   a2,
		orient:    orient,
		freq2:     freq2,
		lnHR2:     lnHR2,
	}, nil
}

// RsID returns the locus identifier.
func (s SNP) RsID() string { return s.rsID }

// SourceRef returns the free-text source citation for the effect size.
func (s SNP) SourceRef() string { return s.sourceRef }

// Allele1 returns the non-effect population allele.
func (s SNP) Allele1() string { return s.allele1 }

// Allele2 returns the effect allele.
func (s SNP) Allele2() string { return s.allele2 }

// Orient returns the strand the stored alleles refer to.
func (s SNP) Orient() Orientation { return s.orient }

// Freq2 returns the population frequency of allele 2.
func (s SNP) Freq2() float64 { return s.freq2 }

// LnHR2 returns the log hazard ratio per copy of allele 2.
func (s SNP) LnHR2() float64 { return s.lnHR2 }

// LnProbGeno returns the Hardy-Weinberg log probability of carrying g
// copies of allele 2.
func (s SNP) LnProbGeno(g int) (float64, error) {
	p := s.freq2
	switch g {
	case 0:
		return 2 * math.Log(1-p), nil
	case 1:
		return math.Log(2) + math.Log(p) + math.Log(1-p), nil
	case 2:
		return 2 * math.Log(p), nil
	}
	return 0, fmt.Errorf("%w: genotype code %d is not 0, 1, or 2", ErrInvalidArgument, g)
}

// RandomGeno draws a genotype code by summing two Bernoulli(freq2) trials.
// Exactly two uniforms are consumed from u, in order; a draw strictly
// below freq2 counts one allele-2 copy.
func (s SNP) RandomGeno(u UniformSource) int {
	g := 0
	if u.Float64() < s.freq2 {
		g++
	}
	if u.Float64() < s.freq2 {
		g++
	}
	return g
}

// GenoScore converts a pair of input alleles into this locus's linear
// predictor contribution. Input alleles are uppercased and must each be a
// run of ACGT bases, "-", or "0" (missing); either both are missing or
// neither is. A fully missing genotype scores as the Hardy-Weinberg
// expectation of the contribution. Otherwise, when inOrient differs from
// the stored orientation, each input allele is base-complemented before
// being matched whole against the two population alleles; the score is
// the allele-2 copy count times the log hazard ratio.
func (s SNP) GenoScore(inA1, inA2 string, inOrient Orientation) (float64, error) {
	a1 := strings.ToUpper(inA1)
	a2 := strings.ToUpper(inA2)
	if !inputAllelePattern.MatchString(a1) {
		return 0, fmt.Errorf("%w: %s input allele %q is not ACGT bases, -, or 0", ErrInvalidGenotype, s.rsID, inA1)
	}
	if !inputAllelePattern.MatchString(a2) {
		return 0, fmt.Errorf("%w: %s input allele %q is not ACGT bases, -, or 0", ErrInvalidGenotype, s.rsID, inA2)
	}
	if (a1 == "0") != (a2 == "0") {
		return 0, fmt.Errorf("%w: %s alleles %q/%q: neither or both must be missing", ErrInvalidGenotype, s.rsID, inA1, inA2)
	}
	if a1 == "0" {
		p := s.freq2
		return s.lnHR2*2*p*(1-p) + 2*s.lnHR2*p*p, nil
	}

	if inOrient != s.orient {
		var err error
		if a1, err = complementAllele(a1); err != nil {
			return 0, fmt.Errorf("%s: %w", s.rsID, err)
		}
		if a2, err = complementAllele(a2); err != nil {
			return 0, fmt.Errorf("%s: %w", s.rsID, err)
		}
	}

	count := 0
	for _, a := range [2]string{a1, a2} {
		switch a {
		case s.allele2:
			count++
		case s.allele1:
		default:
			return 0, fmt.Errorf("%w: %s allele %q is not a possible population allele (%s or %s)",
				ErrInvalidGenotype, s.rsID, a, s.allele1, s.allele2)
		}
	}
	return float64(count) * s.lnHR2, nil
}

// complementAllele base-complements an uppercase allele string. The "-"
// allele has no bases and is returned unchanged.
func complementAllele(a string) (string, error) {
	if a == "-" {
		return a, nil
	}
	b := []byte(a)
	for i, c := range b {
		switch c {
		case 'A':
			b[i] = 'T'
		case 'T':
			b[i] = 'A'
		case 'C':
			b[i] = 'G'
		case 'G':
			b[i] = 'C'
		default:
			return "", fmt.Errorf("%w: cannot complement base %q in allele %q", ErrInvalidGenotype, string(c), a)
		}
	}
	return string(b), nil
}
