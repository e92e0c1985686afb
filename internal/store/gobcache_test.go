package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-risk/prism/internal/risk"
)

func builtModel(t *testing.T) *risk.Model {
	t.Helper()
	var snps []risk.SNP
	for _, def := range []struct {
		rsID   string
		a1, a2 string
		orient risk.Orientation
		p, ln  float64
	}{
		{"rs1", "A", "G", risk.Forward, 0.2, 0.5},
		{"rs2", "ATTACGCG", "-", risk.Reverse, 0.5, 0.25},
	} {
		s, err := risk.NewSNP(def.rsID, "test", def.a1, def.a2, def.orient, def.p, def.ln)
		require.NoError(t, err)
		snps = append(snps, s)
	}
	m, err := risk.NewModel("M1", snps, []float64{0, 1, 2, 3}, []float64{1, 0.99, 0.95, 0.9})
	require.NoError(t, err)
	return m
}

func TestModelGobRoundTrip(t *testing.T) {
	m := builtModel(t)
	path := filepath.Join(t.TempDir(), "model.gob")

	require.NoError(t, SaveModel(path, m))

	loaded, err := LoadModel(path, nil)
	require.NoError(t, err)

	assert.Equal(t, m.Name(), loaded.Name())
	assert.Equal(t, m.Times(), loaded.Times())
	assert.Equal(t, m.MarginalSurvival(), loaded.MarginalSurvival())
	assert.Equal(t, m.BaselineSurvival(), loaded.BaselineSurvival())
	assert.Equal(t, m.Exact(), loaded.Exact())
	assert.Equal(t, m.SNPs(), loaded.SNPs())

	// The reconstructed distribution must predict identically.
	g := risk.NewGenotypes("ind1")
	require.NoError(t, g.Set("rs1", "A", "G"))
	require.NoError(t, g.SetOriented("rs2", "-", "-", risk.Reverse))

	p1, err := m.Predict(g)
	require.NoError(t, err)
	p2, err := loaded.Predict(g)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "absent.gob"), nil)
	assert.Error(t, err)
}
