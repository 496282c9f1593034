package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/KaramelBytes/trendloom/internal/dataset"
)

type trendError struct {
	kind dataset.ErrorKind
	msg  string
}

func (e *trendError) Error() string           { return e.msg }
func (e *trendError) Kind() dataset.ErrorKind { return e.kind }

var (
	// ErrInsufficientData indicates fewer than two usable rows.
	ErrInsufficientData error = &trendError{kind: dataset.KindInsufficientData, msg: "insufficient data for a trend"}
	// ErrDegenerateInput indicates every timestamp is identical, so the slope is undefined.
	ErrDegenerateInput error = &trendError{kind: dataset.KindDegenerateInput, msg: "all timestamps are identical"}
)

// Regression is an ordinary least-squares fit of amount against encoded time.
// Slope is in amount per second. Predicted is aligned 1:1 with dataset rows.
type Regression struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	Points    int       `json:"points"`
	Predicted []float64 `json:"predicted"`
}

// SlopePerDay converts the slope to amount per day.
func (r *Regression) SlopePerDay() float64 { return r.Slope * 86400 }

// EncodeTime maps a timestamp to seconds since the Unix epoch. The encoding is
// monotonic and is used both for fitting and for prediction.
func EncodeTime(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// EncodeTimes encodes the time column of ds in row order.
func EncodeTimes(ds *dataset.Dataset) ([]float64, error) {
	col, ok := ds.Column(dataset.TimeColumn)
	if !ok || col.Kind() != dataset.Temporal {
		return nil, fmt.Errorf("dataset has no temporal %q column", dataset.TimeColumn)
	}
	xs := make([]float64, col.Len())
	for i := range xs {
		xs[i] = EncodeTime(col.Time(i))
	}
	return xs, nil
}

// FitTrend fits amount = intercept + slope*x over the rows of ds, where x is
// the encoded time. Rows with a missing amount are left out of the fit but
// still receive a predicted value. Rows are never reordered.
func FitTrend(ds *dataset.Dataset) (*Regression, error) {
	xs, err := EncodeTimes(ds)
	if err != nil {
		return nil, err
	}
	amount, ok := ds.Column(dataset.AmountColumn)
	if !ok || amount.Kind() != dataset.Numeric {
		return nil, fmt.Errorf("dataset has no numeric %q column", dataset.AmountColumn)
	}
	ys := amount.Floats()

	var n int
	var sumX, sumY float64
	for i, y := range ys {
		if math.IsNaN(y) {
			continue
		}
		n++
		sumX += xs[i]
		sumY += y
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: %d usable rows, need at least 2", ErrInsufficientData, n)
	}
	mx := sumX / float64(n)
	my := sumY / float64(n)

	// Centered sums keep precision with epoch-sized x values.
	var sxx, syy, sxy float64
	for i, y := range ys {
		if math.IsNaN(y) {
			continue
		}
		dx := xs[i] - mx
		dy := y - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 {
		return nil, fmt.Errorf("%w: %d rows share one timestamp", ErrDegenerateInput, n)
	}

	slope := sxy / sxx
	intercept := my - slope*mx
	var r2 float64
	if syy > 0 {
		r2 = (sxy * sxy) / (sxx * syy)
		if r2 > 1 {
			r2 = 1
		}
	}

	pred := make([]float64, len(xs))
	for i, x := range xs {
		pred[i] = intercept + slope*x
	}
	return &Regression{Slope: slope, Intercept: intercept, RSquared: r2, Points: n, Predicted: pred}, nil
}

// AttachTrend returns a copy of ds with the TimestampSeconds and Trend display
// columns added. ds itself is not modified.
func AttachTrend(ds *dataset.Dataset, reg *Regression) (*dataset.Dataset, error) {
	xs, err := EncodeTimes(ds)
	if err != nil {
		return nil, err
	}
	out, err := ds.WithColumn(dataset.TimestampColumn, xs)
	if err != nil {
		return nil, err
	}
	return out.WithColumn(dataset.TrendColumn, reg.Predicted)
}
