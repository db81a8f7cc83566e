package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVFile reads delimited text files with a mandatory header row. The
// header names become row field names; every cell goes through InferValue.
// Each Open starts a fresh read from the top of the file, so the source is
// restartable and row order always matches file order.
type CSVFile struct {
	path  string
	comma rune
}

// NewCSVFile creates a source over a delimited file. comma is ',' for CSV
// and '\t' for TSV.
func NewCSVFile(path string, comma rune) *CSVFile {
	return &CSVFile{path: path, comma: comma}
}

// Name returns the file path.
func (s *CSVFile) Name() string { return s.path }

// Open reads and validates the header row, then returns an iterator over
// the data rows. Records with a field count different from the header are
// reported as errors during iteration.
func (s *CSVFile) Open(ctx context.Context) (RowIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}

	r := csv.NewReader(f)
	r.Comma = s.comma

	header, err := r.Read()
	if err == io.EOF {
		f.Close()
		return nil, fmt.Errorf("%s: empty file, header row required", s.path)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: read header: %w", s.path, err)
	}

	cols := make([]string, len(header))
	for i, name := range header {
		// Spreadsheet exports routinely carry a BOM and padded headers.
		name = strings.TrimPrefix(name, "\uFEFF")
		cols[i] = strings.TrimSpace(name)
	}

	return &csvIterator{path: s.path, f: f, r: r, cols: cols}, nil
}

type csvIterator struct {
	path string
	f    *os.File
	r    *csv.Reader
	cols []string
}

func (it *csvIterator) Next(ctx context.Context) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := it.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", it.path, err)
	}

	row := make(Row, len(it.cols))
	for i, name := range it.cols {
		row[name] = InferValue(record[i])
	}
	return row, nil
}

func (it *csvIterator) Close() error {
	return it.f.Close()
}
