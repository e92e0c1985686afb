package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-risk/prism/internal/risk"
)

func testModel(t *testing.T) *risk.Model {
	t.Helper()
	var snps []risk.SNP
	for _, def := range []struct {
		rsID string
		p    float64
		ln   float64
	}{
		{"rs1", 0.2, 0.5},
		{"rs2", 0.4, -0.1},
	} {
		s, err := risk.NewSNP(def.rsID, "test", "A", "G", risk.Forward, def.p, def.ln)
		require.NoError(t, err)
		snps = append(snps, s)
	}
	m, err := risk.NewModel("M1", snps, []float64{0, 1, 2}, []float64{1, 0.95, 0.9})
	require.NoError(t, err)
	return m
}

func TestTabWriterHeaderAndRow(t *testing.T) {
	m := testModel(t)

	g := risk.NewGenotypes("ind1")
	require.NoError(t, g.Set("rs1", "A", "G"))
	pred, err := m.Predict(g)
	require.NoError(t, err)

	var buf bytes.Buffer
	tw := NewTabWriter(&buf, m)
	require.NoError(t, tw.WriteHeader())
	require.NoError(t, tw.Write(pred))
	require.NoError(t, tw.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	header := strings.Split(lines[0], "\t")
	assert.Equal(t, []string{
		"indivID", "modelName", "rs1", "rs2", "PI", "PIPctl",
		"predCumRisk_0", "predCumRisk_1", "predCumRisk_2",
	}, header)

	row := strings.Split(lines[1], "\t")
	require.Len(t, row, len(header))
	assert.Equal(t, "ind1", row[0])
	assert.Equal(t, "M1", row[1])
	assert.Equal(t, "A/G", row[2])
	assert.Equal(t, "0/0", row[3], "unset locus is echoed as missing")
	assert.Equal(t, "0", row[6], "risk at S(0)=1 is zero")
}

func TestTabWriterRejectsShapeMismatch(t *testing.T) {
	m := testModel(t)

	var buf bytes.Buffer
	tw := NewTabWriter(&buf, m)
	err := tw.Write(&risk.Prediction{IndivID: "x", ModelName: "M1"})
	assert.Error(t, err)
}
