// Package output provides prediction output formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prism-risk/prism/internal/risk"
)

// TabWriter writes predictions in tab-delimited format. The column set
// depends on the model: one genotype column per SNP and one risk column
// per time point.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
	nSNPs   int
	nTimes  int
}

// NewTabWriter creates a tab-delimited writer for predictions of the
// given model.
func NewTabWriter(w io.Writer, m *risk.Model) *TabWriter {
	snps := m.SNPs()
	times := m.Times()

	columns := []string{"indivID", "modelName"}
	for _, s := range snps {
		columns = append(columns, s.RsID())
	}
	columns = append(columns, "PI", "PIPctl")
	for _, t := range times {
		columns = append(columns, "predCumRisk_"+formatFloat(t))
	}

	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
		nSNPs:   len(snps),
		nTimes:  len(times),
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single prediction.
func (tw *TabWriter) Write(p *risk.Prediction) error {
	if len(p.Used) != tw.nSNPs || len(p.CumulativeRisk) != tw.nTimes {
		return fmt.Errorf("prediction for %s does not match writer shape (%d genotypes, %d risks)",
			p.IndivID, len(p.Used), len(p.CumulativeRisk))
	}

	fields := make([]string, 0, len(tw.columns))
	fields = append(fields, p.IndivID, p.ModelName)
	for _, u := range p.Used {
		fields = append(fields, u.Alleles)
	}
	fields = append(fields, formatFloat(p.PI), formatFloat(p.PIPercentile))
	for _, r := range p.CumulativeRisk {
		fields = append(fields, formatFloat(r))
	}

	_, err := tw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes buffered output.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
