package tabio

import (
	"fmt"
	"io"

	"github.com/prism-risk/prism/internal/risk"
)

// MapEntry is one locus of a genotype map descriptor: which rsID a
// column pair carries and the strand its alleles are reported on.
type MapEntry struct {
	RsID   string
	Orient risk.Orientation
}

var mapColumns = []string{ColRsID, ColOrientRs}

// ReadMapDescriptor reads the ordered (rsID, orientRs) descriptor that
// gives meaning to the allele columns of a genotype file.
func ReadMapDescriptor(path string) ([]MapEntry, error) {
	rd, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rd.close()
	return readMapDescriptor(rd)
}

// ReadMapDescriptorFrom reads a map descriptor from r.
func ReadMapDescriptorFrom(r io.Reader) ([]MapEntry, error) {
	return readMapDescriptor(newReader(r))
}

func readMapDescriptor(rd *reader) ([]MapEntry, error) {
	header, err := rd.next()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, &ParseError{Line: rd.lineNumber, Message: "empty map descriptor"}
	}
	idx, err := headerIndex(header, mapColumns, rd.lineNumber)
	if err != nil {
		return nil, err
	}

	var entries []MapEntry
	seen := make(map[string]bool)
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
		rsID := fields[idx[ColRsID]]
		if seen[rsID] {
			return nil, &ParseError{Line: rd.lineNumber, Message: fmt.Sprintf("duplicate rsID %s", rsID)}
		}
		seen[rsID] = true
		orient, err := risk.ParseOrientation(fields[idx[ColOrientRs]])
		if err != nil {
			return nil, &ParseError{Line: rd.lineNumber, Message: err.Error()}
		}
		entries = append(entries, MapEntry{RsID: rsID, Orient: orient})
	}
	if len(entries) == 0 {
		return nil, &ParseError{Line: rd.lineNumber, Message: "map descriptor has no loci"}
	}
	return entries, nil
}

// GenotypeReader streams per-individual genotype rows: an individual ID
// followed by two allele tokens per descriptor locus, tab-delimited,
// no header.
type GenotypeReader struct {
	rd      *reader
	entries []MapEntry
}

// NewGenotypeReader opens a genotype file interpreted through the given
// map descriptor. Supports gzipped input and "-" for stdin.
func NewGenotypeReader(path string, entries []MapEntry) (*GenotypeReader, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty map descriptor", risk.ErrInvalidInput)
	}
	rd, err := openReader(path)
	if err != nil {
		return nil, err
	}
	return &GenotypeReader{rd: rd, entries: entries}, nil
}

// NewGenotypeReaderFrom streams genotype rows from r.
func NewGenotypeReaderFrom(r io.Reader, entries []MapEntry) (*GenotypeReader, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty map descriptor", risk.ErrInvalidInput)
	}
	return &GenotypeReader{rd: newReader(r), entries: entries}, nil
}

// Next reads the next individual. Returns nil, nil when the file is
// exhausted.
func (gr *GenotypeReader) Next() (*risk.Genotypes, error) {
	fields, err := gr.rd.next()
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, nil
	}

	want := 1 + 2*len(gr.entries)
	if len(fields) != want {
		return nil, &ParseError{Line: gr.rd.lineNumber,
			Message: fmt.Sprintf("expected %d fields (indivID + 2 alleles per locus), got %d", want, len(fields))}
	}
	indivID := fields[0]
	if indivID == "" {
		return nil, &ParseError{Line: gr.rd.lineNumber, Message: "empty individual ID"}
	}

	g := risk.NewGenotypes(indivID)
	for i, e := range gr.entries {
		a1 := fields[1+2*i]
		a2 := fields[2+2*i]
		if err := g.SetOriented(e.RsID, a1, a2, e.Orient); err != nil {
			return nil, &ParseError{Line: gr.rd.lineNumber, Message: err.Error()}
		}
	}
	return g, nil
}

// LineNumber returns the current line number being processed.
func (gr *GenotypeReader) LineNumber() int { return gr.rd.lineNumber }

// Close closes the underlying file.
func (gr *GenotypeReader) Close() error { return gr.rd.close() }
