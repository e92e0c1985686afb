package tabio

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prism-risk/prism/internal/risk"
)

// Incidence table column names.
const (
	ColAgeYrs = "ageYrs"
	ColAnnInc = "annInc"
)

var incidenceColumns = []string{ColModelID, ColAgeYrs, ColAnnInc}

// IncidenceTable holds annual incidence rows grouped per model in file
// order. Contiguity and hazard-sign checks are applied by the survivor
// converter, not here.
type IncidenceTable struct {
	Order   []string
	ByModel map[string][]risk.IncidenceRow
}

// ReadIncidenceTable reads a tab-delimited annual incidence table with a
// header row. Supports gzipped input and "-" for stdin.
func ReadIncidenceTable(path string) (*IncidenceTable, error) {
	rd, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rd.close()
	return readIncidenceTable(rd)
}

// ReadIncidenceTableFrom reads an incidence table from r.
func ReadIncidenceTableFrom(r io.Reader) (*IncidenceTable, error) {
	return readIncidenceTable(newReader(r))
}

func readIncidenceTable(rd *reader) (*IncidenceTable, error) {
	header, err := rd.next()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, &ParseError{Line: rd.lineNumber, Message: "empty incidence table"}
	}
	idx, err := headerIndex(header, incidenceColumns, rd.lineNumber)
	if err != nil {
		return nil, err
	}

	t := &IncidenceTable{ByModel: make(map[string][]risk.IncidenceRow)}
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
		age, err := strconv.Atoi(fields[idx[ColAgeYrs]])
		if err != nil {
			return nil, &ParseError{Line: rd.lineNumber,
				Message: fmt.Sprintf("ageYrs %q is not an integer", fields[idx[ColAgeYrs]])}
		}
		inc, err := strconv.ParseFloat(fields[idx[ColAnnInc]], 64)
		if err != nil {
			return nil, &ParseError{Line: rd.lineNumber,
				Message: fmt.Sprintf("annInc %q is not a number", fields[idx[ColAnnInc]])}
		}

		if _, seen := t.ByModel[modelID]; !seen {
			t.Order = append(t.Order, modelID)
		}
		t.ByModel[modelID] = append(t.ByModel[modelID], risk.IncidenceRow{AgeYrs: age, Hazard: inc})
	}
	if len(t.Order) == 0 {
		return nil, &ParseError{Line: rd.lineNumber, Message: "incidence table has no data rows"}
	}
	return t, nil
}
