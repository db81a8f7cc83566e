package datasource

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// JSONFile reads a file holding a single top-level JSON array of objects.
// The array is streamed element by element, so large exports do not have
// to fit in memory. Scalars keep their JSON types; strings in ISO-8601
// date form become dates; nested arrays and objects are flattened to
// their compact JSON text.
type JSONFile struct {
	path string
}

// NewJSONFile creates a source over a JSON array file.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Name returns the file path.
func (s *JSONFile) Name() string { return s.path }

// Open validates that the document starts with an array and returns an
// iterator over its elements.
func (s *JSONFile) Open(ctx context.Context) (RowIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}

	dec := json.NewDecoder(bufio.NewReader(f))
	tok, err := dec.Token()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("%s: empty file, expected a JSON array", s.path)
		}
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		f.Close()
		return nil, fmt.Errorf("%s: top-level value must be an array of objects, got %v", s.path, tok)
	}

	return &jsonIterator{path: s.path, f: f, dec: dec}, nil
}

type jsonIterator struct {
	path  string
	f     *os.File
	dec   *json.Decoder
	index int
}

func (it *jsonIterator) Next(ctx context.Context) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !it.dec.More() {
		return nil, io.EOF
	}

	var obj map[string]interface{}
	if err := it.dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%s: element %d: %w", it.path, it.index, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%s: element %d: expected an object, got null", it.path, it.index)
	}
	it.index++

	return rowFromObject(obj), nil
}

func (it *jsonIterator) Close() error {
	return it.f.Close()
}

// JSONLines reads newline-delimited JSON (.jsonl / .ndjson): one object
// per line, blank lines skipped.
type JSONLines struct {
	path string
}

// NewJSONLines creates a source over a newline-delimited JSON file.
func NewJSONLines(path string) *JSONLines {
	return &JSONLines{path: path}
}

// Name returns the file path.
func (s *JSONLines) Name() string { return s.path }

// Open returns an iterator over the file's lines.
func (s *JSONLines) Open(ctx context.Context) (RowIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}

	sc := bufio.NewScanner(f)
	// Export lines can be wide; the default 64KiB token limit is too small.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	return &jsonLinesIterator{path: s.path, f: f, sc: sc}, nil
}

type jsonLinesIterator struct {
	path string
	f    *os.File
	sc   *bufio.Scanner
	line int
}

func (it *jsonLinesIterator) Next(ctx context.Context) (Row, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !it.sc.Scan() {
			if err := it.sc.Err(); err != nil {
				return nil, fmt.Errorf("%s: %w", it.path, err)
			}
			return nil, io.EOF
		}
		it.line++

		text := strings.TrimSpace(it.sc.Text())
		if text == "" {
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", it.path, it.line, err)
		}
		if obj == nil {
			return nil, fmt.Errorf("%s: line %d: expected an object, got null", it.path, it.line)
		}

		return rowFromObject(obj), nil
	}
}

func (it *jsonLinesIterator) Close() error {
	return it.f.Close()
}

func rowFromObject(obj map[string]interface{}) Row {
	row := make(Row, len(obj))
	for k, v := range obj {
		row[k] = ValueOf(v)
	}
	return row
}
