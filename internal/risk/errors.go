// Package risk implements the PRISM polygenic risk-model engine: SNP
// descriptors, genotype distributions, baseline survivor recovery, and
// per-individual cumulative risk prediction.
package risk

import "errors"

// Sentinel errors for the engine's failure taxonomy. Callers classify
// failures with errors.Is; concrete messages wrap these with context.
var (
	// ErrInvalidInput marks malformed build- or predict-time data: bad
	// rsIDs, bad allele strings, half-missing genotypes, or incidence
	// rows out of order.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidArgument marks structurally bad model arguments: times
	// not strictly increasing, a marginal survivor outside [0,1] or not
	// non-increasing, or exact enumeration requested over too many SNPs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidGenotype marks input alleles that cannot be reconciled
	// with a SNP's population alleles after strand adjustment.
	ErrInvalidGenotype = errors.New("invalid genotype")

	// ErrNumericInvariant marks a violated numerical invariant: exact
	// genotype probabilities not summing to one, or a recovered baseline
	// survivor that is not non-increasing.
	ErrNumericInvariant = errors.New("numeric invariant violated")

	// ErrSolverFailed marks root-finder non-convergence or a failure
	// inside the objective evaluation; the original cause is attached.
	ErrSolverFailed = errors.New("solver failed")
)
