package tabio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-risk/prism/internal/risk"
)

const incidenceFixture = `modelID	ageYrs	annInc
M1	0	0
M1	1	0.001
M1	2	0.002
M2	0	0
M2	1	0.01
`

func TestReadIncidenceTable(t *testing.T) {
	table, err := ReadIncidenceTableFrom(strings.NewReader(incidenceFixture))
	require.NoError(t, err)

	assert.Equal(t, []string{"M1", "M2"}, table.Order)
	require.Len(t, table.ByModel["M1"], 3)
	require.Len(t, table.ByModel["M2"], 2)

	assert.Equal(t, risk.IncidenceRow{AgeYrs: 2, Hazard: 0.002}, table.ByModel["M1"][2])

	// The grouped rows feed straight into the survivor converter.
	times, surv, err := risk.SurvivorFromIncidence(table.ByModel["M1"])
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, times)
	assert.Equal(t, 1.0, surv[0])
}

func TestReadIncidenceTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", "modelID\tageYrs\tannInc\n"},
		{"bad age", "modelID\tageYrs\tannInc\nM1\tx\t0\n"},
		{"bad incidence", "modelID\tageYrs\tannInc\nM1\t0\ty\n"},
		{"missing column", "modelID\tageYrs\nM1\t0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadIncidenceTableFrom(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, risk.ErrInvalidInput)
		})
	}
}
