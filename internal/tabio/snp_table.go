package tabio

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prism-risk/prism/internal/risk"
)

// SNP table column names.
const (
	ColModelID     = "modelID"
	ColRsID        = "rsID"
	ColSourcePub   = "sourcePub"
	ColAllele1     = "allele1"
	ColAllele2     = "allele2"
	ColOrientRs    = "orientRs"
	ColAllele2Freq = "allele2Freq"
	ColAllele2LnHR = "allele2lnHR"
)

var snpColumns = []string{
	ColModelID, ColRsID, ColSourcePub, ColAllele1, ColAllele2,
	ColOrientRs, ColAllele2Freq, ColAllele2LnHR,
}

// SNPTable holds the SNP panels of one input file, grouped per model in
// file order.
type SNPTable struct {
	// Order lists model IDs by first appearance.
	Order []string
	// ByModel maps each model ID to its SNPs in file order.
	ByModel map[string][]risk.SNP
}

// ReadSNPTable reads a tab-delimited SNP table with a header row. Column
// order is discovered from the header. Supports gzipped input and "-"
// for stdin.
func ReadSNPTable(path string) (*SNPTable, error) {
	rd, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rd.close()
	return readSNPTable(rd)
}

// ReadSNPTableFrom reads a SNP table from r.
func ReadSNPTableFrom(r io.Reader) (*SNPTable, error) {
	return readSNPTable(newReader(r))
}

func readSNPTable(rd *reader) (*SNPTable, error) {
	header, err := rd.next()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, &ParseError{Line: rd.lineNumber, Message: "empty SNP table"}
	}
	idx, err := headerIndex(header, snpColumns, rd.lineNumber)
	if err != nil {
		return nil, err
	}

	t := &SNPTable{ByModel: make(map[string][]risk.SNP)}
	for {
		fields, err := rd.next()
		if err != nil {
			return nil, err
		}
		if fields == nil {
			break
		}
		if len(fields) < len(header) {
			return nil, &ParseError{Line: rd.lineNumber,
				Message: fmt.Sprintf("expected %d columns, got %d", len(header), len(fields))}
		}

		modelID := fields[idx[ColModelID]]
		if modelID == "" {
			return nil, &ParseError{Line: rd.lineNumber, Message: "empty modelID"}
		}

		orient, err := risk.ParseOrientation(fields[idx[ColOrientRs]])
		if err != nil {
			return nil, &ParseError{Line: rd.lineNumber, Message: err.Error()}
		}
		freq2, err := strconv.ParseFloat(fields[idx[ColAllele2Freq]], 64)
		if err != nil {
			return nil, &ParseError{Line: rd.lineNumber,
				Message: fmt.Sprintf("allele2Freq %q is not a number", fields[idx[ColAllele2Freq]])}
		}
		lnHR, err := strconv.ParseFloat(fields[idx[ColAllele2LnHR]], 64)
		if err != nil {
			return nil, &ParseError{Line: rd.lineNumber,
				Message: fmt.Sprintf("allele2lnHR %q is not a number", fields[idx[ColAllele2LnHR]])}
		}

		snp, err := risk.NewSNP(
			fields[idx[ColRsID]],
			fields[idx[ColSourcePub]],
			fields[idx[ColAllele1]],
			fields[idx[ColAllele2]],
			orient, freq2, lnHR,
		)
		if err != nil {
			return nil, &ParseError{Line: rd.lineNumber, Message: err.Error()}
		}

		if _, seen := t.ByModel[modelID]; !seen {
			t.Order = append(t.Order, modelID)
		}
		t.ByModel[modelID] = append(t.ByModel[modelID], snp)
	}
	if len(t.Order) == 0 {
		return nil, &ParseError{Line: rd.lineNumber, Message: "SNP table has no data rows"}
	}
	return t, nil
}
