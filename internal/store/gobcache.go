package store

import (
	"encoding/gob"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/prism-risk/prism/internal/risk"
)

// envelopeVersion tags the on-disk model encoding. Bump on any field
// change; loaders reject versions they don't understand.
const envelopeVersion = 1

// snpRecord is the serialized form of one SNP descriptor.
type snpRecord struct {
	RsID      string
	SourceRef string
	Allele1   string
	Allele2   string
	Orient    string
	Freq2     float64
	LnHR2     float64
}

// modelEnvelope is the gob-encoded model. The genotype distribution is
// not persisted: Monte Carlo uses a fixed seed and exact enumeration is
// pure, so reconstruction is deterministic.
type modelEnvelope struct {
	Version          int
	Name             string
	SNPs             []snpRecord
	Times            []float64
	MarginalSurvival []float64
	BaselineSurvival []float64
	UseExact         bool
	Config           risk.Config
}

// SaveModel writes a built model to path as a versioned gob file.
func SaveModel(path string, m *risk.Model) error {
	env := modelEnvelope{
		Version:          envelopeVersion,
		Name:             m.Name(),
		Times:            m.Times(),
		MarginalSurvival: m.MarginalSurvival(),
		BaselineSurvival: m.BaselineSurvival(),
		UseExact:         m.Exact(),
		Config:           m.Config(),
	}
	for _, s := range m.SNPs() {
		env.SNPs = append(env.SNPs, snpRecord{
			RsID:      s.RsID(),
			SourceRef: s.SourceRef(),
			Allele1:   s.Allele1(),
			Allele2:   s.Allele2(),
			Orient:    s.Orient().String(),
			Freq2:     s.Freq2(),
			LnHR2:     s.LnHR2(),
		})
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(env); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode model: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}

// LoadModel reads a gob model file and reconstructs the model, including
// its genotype distribution. The persisted baseline survivor is reused
// rather than re-solved.
func LoadModel(path string, logger *zap.Logger) (*risk.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	var env modelEnvelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("model file version %d is not supported (want %d)", env.Version, envelopeVersion)
	}

	snps := make([]risk.SNP, 0, len(env.SNPs))
	for _, r := range env.SNPs {
		orient, err := risk.ParseOrientation(r.Orient)
		if err != nil {
			return nil, fmt.Errorf("model %s, SNP %s: %w", env.Name, r.RsID, err)
		}
		s, err := risk.NewSNP(r.RsID, r.SourceRef, r.Allele1, r.Allele2, orient, r.Freq2, r.LnHR2)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", env.Name, err)
		}
		snps = append(snps, s)
	}

	opts := []risk.Option{risk.WithConfig(env.Config)}
	if logger != nil {
		opts = append(opts, risk.WithLogger(logger))
	}
	m, err := risk.RestoreModel(env.Name, snps, env.Times, env.MarginalSurvival, env.BaselineSurvival, env.UseExact, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore model %s: %w", env.Name, err)
	}
	return m, nil
}
