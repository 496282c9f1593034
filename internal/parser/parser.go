package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/trendloom/internal/dataset"
)

// Options controls how raw tables are read.
type Options struct {
	// Delimiter for CSV. If 0, it is chosen from the file extension.
	Delimiter rune
	// SheetName selects an XLSX sheet by name.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet used when SheetName is empty.
	SheetIndex int
}

// Parser reads a tabular file format into a raw table.
type Parser interface {
	CanParse(filename string) bool
	Parse(name string, r io.Reader, opt Options) (*dataset.RawTable, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

// Parse selects a parser by filename and reads r into a raw table.
func Parse(name string, r io.Reader, opt Options) (*dataset.RawTable, error) {
	for _, p := range registry {
		if p.CanParse(name) {
			return p.Parse(name, r, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
}

// ParseFile opens path and reads it into a raw table.
func ParseFile(path string, opt Options) (*dataset.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return Parse(path, f, opt)
}

// LoadFile reads and validates path in one step.
func LoadFile(path string, opt Options) (*dataset.Dataset, error) {
	raw, err := ParseFile(path, opt)
	if err != nil {
		return nil, err
	}
	return dataset.Validate(raw)
}

// padRows extends short rows to width so they line up with the header.
func padRows(rows [][]string, width int) [][]string {
	for i, row := range rows {
		if len(row) < width {
			tmp := make([]string, width)
			copy(tmp, row)
			rows[i] = tmp
		}
	}
	return rows
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}
