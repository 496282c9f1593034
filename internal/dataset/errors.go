package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies ingestion, edit and regression failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindSchema
	KindDateParse
	KindType
	KindCellValidation
	KindInsufficientData
	KindDegenerateInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchema:
		return "SchemaError"
	case KindDateParse:
		return "DateParseError"
	case KindType:
		return "TypeError"
	case KindCellValidation:
		return "CellValidationError"
	case KindInsufficientData:
		return "InsufficientDataError"
	case KindDegenerateInput:
		return "DegenerateInputError"
	default:
		return "UnknownError"
	}
}

// kinded is implemented by every error type that knows its ErrorKind.
type kinded interface {
	Kind() ErrorKind
}

// KindOf reports the ErrorKind of err, looking through wrapped errors.
func KindOf(err error) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// SchemaError indicates the table does not have the required shape.
type SchemaError struct {
	Missing []string
	Reason  string
}

func (e *SchemaError) Kind() ErrorKind { return KindSchema }

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("required columns missing: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("invalid table schema: %s", e.Reason)
}

// DateParseError indicates a value in the time column could not be parsed.
// Row is the zero-based data row index.
type DateParseError struct {
	Row   int
	Value string
}

func (e *DateParseError) Kind() ErrorKind { return KindDateParse }

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid date format in column %q at row %d: %q", TimeColumn, e.Row, e.Value)
}

// TypeError indicates non-numeric text in a numeric column during ingestion.
type TypeError struct {
	Row    int
	Column string
	Value  string
}

func (e *TypeError) Kind() ErrorKind { return KindType }

func (e *TypeError) Error() string {
	return fmt.Sprintf("non-numeric value in column %q at row %d: %q", e.Column, e.Row, e.Value)
}

// CellValidationError rejects an edit commit because of a single staged cell.
type CellValidationError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *CellValidationError) Kind() ErrorKind { return KindCellValidation }

func (e *CellValidationError) Error() string {
	return fmt.Sprintf("invalid edit at row %d, column %q (%q): %s", e.Row, e.Column, e.Value, e.Reason)
}
