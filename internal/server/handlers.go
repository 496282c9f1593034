package server

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/KaramelBytes/trendloom/internal/analysis"
	"github.com/KaramelBytes/trendloom/internal/dataset"
	"github.com/KaramelBytes/trendloom/internal/parser"
	"github.com/go-chi/render"
)

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Sessions: s.sessions.Len()})
}

type tableResponse struct {
	Rows    int        `json:"rows"`
	Columns []string   `json:"columns"`
	Head    [][]string `json:"head"`
}

func tableOf(ds *dataset.Dataset, n int) tableResponse {
	return tableResponse{Rows: ds.Rows(), Columns: ds.Names(), Head: ds.Head(n)}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		s.metrics.ingest.WithLabelValues("error").Inc()
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			renderError(w, r, newAPIError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				"upload exceeds the size limit", map[string]any{"max_bytes": s.opt.MaxUploadBytes}))
		case errors.Is(err, http.ErrMissingFile):
			renderError(w, r, errNoFile)
		default:
			renderError(w, r, newAPIError(http.StatusBadRequest, "INVALID_REQUEST", "invalid multipart upload", err.Error()))
		}
		return
	}
	defer file.Close()

	opt, err := s.parseOptions(r)
	if err != nil {
		s.metrics.ingest.WithLabelValues("error").Inc()
		renderError(w, r, err)
		return
	}
	raw, err := parser.Parse(hdr.Filename, file, opt)
	if err != nil && !errors.Is(err, parser.ErrUnsupported) {
		err = newAPIError(http.StatusUnprocessableEntity, "INVALID_FILE", err.Error(), map[string]any{"file": hdr.Filename})
	}
	var ds *dataset.Dataset
	if err == nil {
		ds, err = dataset.Validate(raw)
	}
	s.metrics.ingest.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		s.log.Warn("upload rejected",
			slog.String("file", hdr.Filename),
			slog.String("kind", dataset.KindOf(err).String()),
			slog.String("error", err.Error()))
		renderError(w, r, err)
		return
	}

	prev := currentFrom(r.Context()).Swap(ds)
	s.metrics.rows.Observe(float64(ds.Rows()))
	s.log.Info("dataset loaded",
		slog.String("file", hdr.Filename),
		slog.Int("rows", ds.Rows()),
		slog.Bool("replaced", prev != nil))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, tableOf(ds, s.opt.HeadRows))
}

// parseOptions lets form fields override the configured parser options.
func (s *Server) parseOptions(r *http.Request) (parser.Options, error) {
	opt := s.opt.Parse
	if v := r.FormValue("sheet_name"); v != "" {
		opt.SheetName = v
	}
	if v := r.FormValue("sheet_index"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 1 {
			return opt, newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", "sheet_index must be a positive integer", v)
		}
		opt.SheetIndex = i
	}
	if v := r.FormValue("delimiter"); v != "" {
		if v == "tab" {
			opt.Delimiter = '\t'
		} else if rs := []rune(v); len(rs) == 1 {
			opt.Delimiter = rs[0]
		} else {
			return opt, newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", "delimiter must be a single character or \"tab\"", v)
		}
	}
	return opt, nil
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	ds := currentFrom(r.Context()).Load()
	if ds == nil {
		renderError(w, r, errNoDataset)
		return
	}
	n := s.opt.HeadRows
	if v := r.URL.Query().Get("n"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			renderError(w, r, newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", "n must be a non-negative integer", v))
			return
		}
		n = i
	}
	render.JSON(w, r, tableOf(ds, n))
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ds := currentFrom(r.Context()).Load()
	if ds == nil {
		renderError(w, r, errNoDataset)
		return
	}
	render.JSON(w, r, analysis.Summarize(ds))
}

type trendResponse struct {
	Slope       float64    `json:"slope"`
	SlopePerDay float64    `json:"slope_per_day"`
	Intercept   float64    `json:"intercept"`
	RSquared    float64    `json:"r_squared"`
	Points      int        `json:"points"`
	Dates       []string   `json:"dates"`
	Timestamps  []float64  `json:"timestamps"`
	Amounts     []*float64 `json:"amounts"`
	Trend       []float64  `json:"trend"`
}

// handleTrend fits the regression and publishes the derived Trend column on
// the session's dataset so later head requests include it.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	cur := currentFrom(r.Context())
	ds := cur.Load()
	if ds == nil {
		renderError(w, r, errNoDataset)
		return
	}
	reg, err := analysis.FitTrend(ds)
	if err != nil {
		renderError(w, r, err)
		return
	}
	withTrend, err := analysis.AttachTrend(ds, reg)
	if err != nil {
		renderError(w, r, err)
		return
	}
	cur.CompareAndSwap(ds, withTrend)

	dates, _ := withTrend.Column(dataset.TimeColumn)
	amounts, _ := withTrend.Column(dataset.AmountColumn)
	stamps, _ := withTrend.Column(dataset.TimestampColumn)
	trend, _ := withTrend.Column(dataset.TrendColumn)

	resp := trendResponse{
		Slope:       reg.Slope,
		SlopePerDay: reg.SlopePerDay(),
		Intercept:   reg.Intercept,
		RSquared:    reg.RSquared,
		Points:      reg.Points,
		Dates:       make([]string, withTrend.Rows()),
		Timestamps:  stamps.Floats(),
		Amounts:     make([]*float64, withTrend.Rows()),
		Trend:       trend.Floats(),
	}
	for i := range resp.Dates {
		resp.Dates[i] = dates.String(i)
		if v := amounts.Float(i); !math.IsNaN(v) {
			resp.Amounts[i] = &v
		}
	}
	render.JSON(w, r, resp)
}

type editCell struct {
	Row    int    `json:"row"`
	Column string `json:"column" validate:"required"`
	Value  string `json:"value"`
}

type editRequest struct {
	Cells []editCell `json:"cells" validate:"required,min=1,dive"`
}

type editResponse struct {
	Applied int `json:"applied"`
	tableResponse
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	cur := currentFrom(r.Context())
	session := dataset.BeginEdit(cur.Load())
	if session.Base() == nil {
		renderError(w, r, errNoDataset)
		return
	}
	var req editRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, newAPIError(http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON", err.Error()))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		renderError(w, r, err)
		return
	}

	for _, c := range req.Cells {
		session.Stage(c.Row, c.Column, c.Value)
	}
	applied := session.Staged()
	next, err := session.Commit()
	if err == nil && !cur.CompareAndSwap(session.Base(), next) {
		err = newAPIError(http.StatusConflict, "CONFLICT", "dataset changed while the edit was in flight; retry", nil)
	}
	s.metrics.commits.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		s.log.Warn("edit rejected", slog.Int("cells", applied), slog.String("error", err.Error()))
		renderError(w, r, err)
		return
	}
	s.log.Info("edit committed", slog.Int("cells", applied))
	render.JSON(w, r, editResponse{Applied: applied, tableResponse: tableOf(next, s.opt.HeadRows)})
}
