package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenotypesSetValidation(t *testing.T) {
	tests := []struct {
		name    string
		rsID    string
		a1, a2  string
		wantErr bool
	}{
		{"valid", "rs1", "A", "G", false},
		{"valid missing pair", "rs1", "0", "0", false},
		{"valid dash", "rs1", "-", "ACGT", false},
		{"lowercase accepted", "rs1", "a", "g", false},
		{"bad rsID", "SNP_1", "A", "G", true},
		{"half missing", "rs1", "0", "G", true},
		{"half missing other side", "rs1", "A", "0", true},
		{"bad token", "rs1", "A", "G-", true},
		{"empty allele", "rs1", "", "G", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenotypes("ind1")
			err := g.Set(tt.rsID, tt.a1, tt.a2)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, g.Len())
		})
	}
}

func TestGenotypesNormalizeAndLookup(t *testing.T) {
	g := NewGenotypes("ind1")
	require.NoError(t, g.SetOriented("rs1", "a", "g", Reverse))

	e := g.lookup("rs1")
	assert.Equal(t, "A", e.a1)
	assert.Equal(t, "G", e.a2)
	assert.Equal(t, Reverse, e.orient)
	assert.True(t, e.hasOrient)

	// Unset loci read as fully missing with no declared orientation.
	missing := g.lookup("rs999")
	assert.Equal(t, "0", missing.a1)
	assert.Equal(t, "0", missing.a2)
	assert.False(t, missing.hasOrient)

	// A plain Set records no orientation.
	require.NoError(t, g.Set("rs2", "C", "C"))
	assert.False(t, g.lookup("rs2").hasOrient)

	assert.Equal(t, "ind1", g.IndivID())
}

func TestGenotypesOverwriteKeepsLatest(t *testing.T) {
	g := NewGenotypes("ind1")
	require.NoError(t, g.Set("rs1", "A", "A"))
	require.NoError(t, g.Set("rs1", "G", "G"))
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, "G", g.lookup("rs1").a1)
}
