package risk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelPredictOrderedCollect(t *testing.T) {
	m, err := NewModel("m", []SNP{testModelSNP(t)}, []float64{0, 1, 2}, []float64{1, 0.95, 0.9})
	require.NoError(t, err)

	const n = 25
	items := make(chan WorkItem, n)
	for i := 0; i < n; i++ {
		g := NewGenotypes(fmt.Sprintf("ind%d", i))
		if i == 7 {
			// One individual with an impossible allele; its failure must
			// arrive in order without affecting the others.
			require.NoError(t, g.Set("rs1", "T", "T"))
		} else {
			require.NoError(t, g.Set("rs1", "A", "G"))
		}
		items <- WorkItem{Seq: i, Genotypes: g}
	}
	close(items)

	results := m.ParallelPredict(items, 4)

	var seqs []int
	var failed int
	err = OrderedCollect(results, func(r WorkResult) error {
		seqs = append(seqs, r.Seq)
		if r.Err != nil {
			failed++
			assert.ErrorIs(t, r.Err, ErrInvalidGenotype)
			assert.Nil(t, r.Prediction)
			return nil
		}
		require.NotNil(t, r.Prediction)
		assert.Equal(t, fmt.Sprintf("ind%d", r.Seq), r.Prediction.IndivID)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, seqs, n)
	for i, s := range seqs {
		assert.Equal(t, i, s, "results must arrive in sequence order")
	}
	assert.Equal(t, 1, failed)
}

func TestOrderedCollectStopsOnCallbackError(t *testing.T) {
	m, err := NewModel("m", []SNP{testModelSNP(t)}, []float64{0, 1}, []float64{1, 0.9})
	require.NoError(t, err)

	const n = 10
	items := make(chan WorkItem, n)
	for i := 0; i < n; i++ {
		g := NewGenotypes(fmt.Sprintf("ind%d", i))
		require.NoError(t, g.Set("rs1", "A", "A"))
		items <- WorkItem{Seq: i, Genotypes: g}
	}
	close(items)

	results := m.ParallelPredict(items, 3)

	stop := fmt.Errorf("writer broke")
	calls := 0
	err = OrderedCollect(results, func(r WorkResult) error {
		calls++
		if r.Seq == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls, "collection stops at the failing callback")
}
