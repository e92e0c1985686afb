// Package tabio reads PRISM's tab-delimited input tables: SNP panels,
// annual incidence tables, and genotype map descriptors with their
// per-individual genotype rows.
package tabio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prism-risk/prism/internal/risk"
)

// ParseError describes a malformed line in an input table.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Unwrap classifies every parse error as invalid input.
func (e *ParseError) Unwrap() error { return risk.ErrInvalidInput }

// reader wraps an input file with gzip sniffing and line accounting.
type reader struct {
	r          *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// openReader opens path for tab-delimited reading. "-" means stdin.
// Gzipped files are detected by their magic bytes.
func openReader(path string) (*reader, error) {
	if path == "-" {
		return &reader{r: bufio.NewReader(os.Stdin)}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}

	buf := make([]byte, 2)
	if _, err := file.Read(buf); err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read table: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek table: %w", err)
	}

	rd := &reader{file: file}
	if buf[0] == 0x1f && buf[1] == 0x8b {
		rd.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		rd.r = bufio.NewReader(rd.gzipReader)
	} else {
		rd.r = bufio.NewReader(file)
	}
	return rd, nil
}

func newReader(r io.Reader) *reader {
	return &reader{r: bufio.NewReader(r)}
}

// next returns the fields of the next non-blank line, or nil at EOF.
func (rd *reader) next() ([]string, error) {
	for {
		line, err := rd.r.ReadString('\n')
		if line == "" && err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read table: %w", err)
		}
		rd.lineNumber++
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}
		return strings.Split(line, "\t"), nil
	}
}

func (rd *reader) close() error {
	if rd.gzipReader != nil {
		rd.gzipReader.Close()
	}
	if rd.file != nil {
		return rd.file.Close()
	}
	return nil
}

// headerIndex maps header column names to their positions and checks the
// required columns are all present.
func headerIndex(fields []string, required []string, line int) (map[string]int, error) {
	idx := make(map[string]int, len(fields))
	for i, name := range fields {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, &ParseError{Line: line, Message: fmt.Sprintf("missing required column %q", name)}
		}
	}
	return idx, nil
}
