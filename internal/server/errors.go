package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KaramelBytes/trendloom/internal/dataset"
	"github.com/KaramelBytes/trendloom/internal/parser"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, msg string, details any) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg, Details: details}
}

var (
	errNoDataset = newAPIError(http.StatusNotFound, "NO_DATASET", "no dataset loaded; upload a file first", nil)
	errNoFile    = newAPIError(http.StatusBadRequest, "MISSING_FILE", "multipart field \"file\" is required", nil)
)

// FieldError describes one failed request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fromError maps core error kinds onto HTTP responses.
func fromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Namespace(), Message: fmt.Sprintf("failed %q", fe.Tag())})
		}
		return newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed", fields)
	}
	if errors.Is(err, parser.ErrUnsupported) {
		return newAPIError(http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE", err.Error(), nil)
	}

	switch dataset.KindOf(err) {
	case dataset.KindSchema:
		var se *dataset.SchemaError
		var details any
		if errors.As(err, &se) && len(se.Missing) > 0 {
			details = map[string]any{"missing": se.Missing}
		}
		return newAPIError(http.StatusUnprocessableEntity, "SCHEMA_ERROR", err.Error(), details)
	case dataset.KindDateParse:
		var de *dataset.DateParseError
		var details any
		if errors.As(err, &de) {
			details = map[string]any{"row": de.Row, "value": de.Value}
		}
		return newAPIError(http.StatusUnprocessableEntity, "DATE_PARSE_ERROR", err.Error(), details)
	case dataset.KindType:
		var te *dataset.TypeError
		var details any
		if errors.As(err, &te) {
			details = map[string]any{"row": te.Row, "column": te.Column, "value": te.Value}
		}
		return newAPIError(http.StatusUnprocessableEntity, "TYPE_ERROR", err.Error(), details)
	case dataset.KindCellValidation:
		var ce *dataset.CellValidationError
		var details any
		if errors.As(err, &ce) {
			details = map[string]any{"row": ce.Row, "column": ce.Column, "value": ce.Value, "reason": ce.Reason}
		}
		return newAPIError(http.StatusUnprocessableEntity, "CELL_VALIDATION_ERROR", err.Error(), details)
	case dataset.KindInsufficientData:
		return newAPIError(http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", err.Error(), nil)
	case dataset.KindDegenerateInput:
		return newAPIError(http.StatusUnprocessableEntity, "DEGENERATE_INPUT", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	_ = render.Render(w, r, fromError(err))
}
