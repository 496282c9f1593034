package analysis

import (
	"strconv"
	"testing"
	"time"

	"github.com/KaramelBytes/trendloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDataset(t *testing.T, rows ...[]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Validate(&dataset.RawTable{
		Header: []string{dataset.TimeColumn, dataset.AmountColumn},
		Rows:   rows,
	})
	require.NoError(t, err)
	return ds
}

func TestFitTrendRecoversLine(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	// Deliberately out of time order.
	offsets := []int{3, 0, 5, 1, 4, 2}
	rows := make([][]string, 0, len(offsets))
	for _, h := range offsets {
		ts := base.Add(time.Duration(h) * time.Hour)
		x := EncodeTime(ts)
		rows = append(rows, []string{ts.Format(dataset.TimestampLayout), strconv.FormatFloat(2*x+5, 'f', -1, 64)})
	}
	ds := mustDataset(t, rows...)

	reg, err := FitTrend(ds)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, reg.Slope, 1e-6)
	assert.InDelta(t, 5.0, reg.Intercept, 1e-6)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-6)
	assert.Equal(t, len(offsets), reg.Points)

	// Predictions use the same x encoding as the fit, in row order.
	date, _ := ds.Column(dataset.TimeColumn)
	require.Len(t, reg.Predicted, len(offsets))
	for i := range offsets {
		want := 2*EncodeTime(date.Time(i)) + 5
		assert.InDelta(t, want, reg.Predicted[i], 1e-6, "row %d", i)
	}
}

func TestFitTrendModernEpoch(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows [][]string
	for d := 0; d < 10; d++ {
		ts := base.AddDate(0, 0, d)
		rows = append(rows, []string{ts.Format("2006-01-02"), strconv.FormatFloat(2*EncodeTime(ts)+5, 'f', -1, 64)})
	}
	reg, err := FitTrend(mustDataset(t, rows...))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, reg.Slope, 1e-9)
	assert.InDelta(t, 5.0, reg.Intercept, 1e-3)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-9)
}

func TestFitTrendPurchaseScenario(t *testing.T) {
	ds := mustDataset(t,
		[]string{"2023-01-01", "100"},
		[]string{"2023-01-02", "110"},
		[]string{"2023-01-03", "120"},
	)
	reg, err := FitTrend(ds)
	require.NoError(t, err)
	assert.Greater(t, reg.Slope, 0.0)
	assert.InDelta(t, 10.0, reg.SlopePerDay(), 1e-9)
	assert.InDelta(t, 1.0, reg.RSquared, 1e-9)
	assert.InDelta(t, 100.0, reg.Predicted[0], 1e-6)
	assert.InDelta(t, 120.0, reg.Predicted[2], 1e-6)
}

func TestFitTrendBoundaries(t *testing.T) {
	t.Run("two rows", func(t *testing.T) {
		_, err := FitTrend(mustDataset(t, []string{"2023-01-01", "1"}, []string{"2023-01-02", "3"}))
		require.NoError(t, err)
	})
	t.Run("one row", func(t *testing.T) {
		_, err := FitTrend(mustDataset(t, []string{"2023-01-01", "1"}))
		require.ErrorIs(t, err, ErrInsufficientData)
		assert.Equal(t, dataset.KindInsufficientData, dataset.KindOf(err))
	})
	t.Run("no rows", func(t *testing.T) {
		_, err := FitTrend(mustDataset(t))
		require.ErrorIs(t, err, ErrInsufficientData)
	})
	t.Run("identical times", func(t *testing.T) {
		_, err := FitTrend(mustDataset(t,
			[]string{"2023-01-01", "1"},
			[]string{"2023-01-01 00:00:00", "2"},
			[]string{"2023-01-01", "3"},
		))
		require.ErrorIs(t, err, ErrDegenerateInput)
		assert.Equal(t, dataset.KindDegenerateInput, dataset.KindOf(err))
	})
	t.Run("missing amounts leave one point", func(t *testing.T) {
		_, err := FitTrend(mustDataset(t, []string{"2023-01-01", "1"}, []string{"2023-01-02", ""}))
		require.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestFitTrendSkipsMissingAmounts(t *testing.T) {
	ds := mustDataset(t,
		[]string{"2023-01-01", "100"},
		[]string{"2023-01-02", ""},
		[]string{"2023-01-03", "120"},
	)
	reg, err := FitTrend(ds)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Points)
	require.Len(t, reg.Predicted, 3)
	assert.InDelta(t, 110.0, reg.Predicted[1], 1e-6)
}

func TestFitTrendConstantAmount(t *testing.T) {
	reg, err := FitTrend(mustDataset(t, []string{"2023-01-01", "5"}, []string{"2023-01-02", "5"}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, reg.Slope)
	assert.Equal(t, 0.0, reg.RSquared)
}

func TestFitTrendDoesNotMutateDataset(t *testing.T) {
	ds := mustDataset(t, []string{"2023-01-01", "100"}, []string{"2023-01-02", "110"})
	before := ds.Records()
	reg, err := FitTrend(ds)
	require.NoError(t, err)
	assert.Equal(t, before, ds.Records())
	assert.Equal(t, []string{"Date", "PurchaseAmount"}, ds.Names())

	withTrend, err := AttachTrend(ds, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "PurchaseAmount", "TimestampSeconds", "Trend"}, withTrend.Names())
	assert.Equal(t, []string{"Date", "PurchaseAmount"}, ds.Names())

	trend, _ := withTrend.Column(dataset.TrendColumn)
	assert.Equal(t, reg.Predicted, trend.Floats())
}

func TestEncodeTimeIsMonotonic(t *testing.T) {
	a := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	c := a.Add(time.Hour)
	assert.Less(t, EncodeTime(a), EncodeTime(b))
	assert.Less(t, EncodeTime(b), EncodeTime(c))
	assert.Equal(t, 3600.0, EncodeTime(c)-EncodeTime(a))
}
