package shape

import (
	"testing"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryFrame(t *testing.T) *frame.Frame {
	t.Helper()

	f, err := frame.New(
		&frame.Column{Name: "state", Kind: frame.KindString, Values: []any{"GA", "NC", "GA"}},
		&frame.Column{Name: "npi", Kind: frame.KindString, Values: []any{"1", "2", nil}},
		&frame.Column{Name: "total_claims", Kind: frame.KindInt, Values: []any{int64(1000), int64(234), nil}},
		&frame.Column{Name: "total_paid", Kind: frame.KindFloat, Values: []any{1234.5, 0.25, 10.0}},
	)
	require.NoError(t, err)

	return f
}

func TestSumAndCounts(t *testing.T) {
	f := summaryFrame(t)

	assert.Equal(t, 3, Count(f))

	sum, err := Sum(f, "total_claims")
	require.NoError(t, err)
	assert.InDelta(t, 1234.0, sum, 0.0001)

	distinct, err := CountDistinct(f, "state")
	require.NoError(t, err)
	assert.Equal(t, 2, distinct)

	distinct, err = CountDistinct(f, "npi")
	require.NoError(t, err)
	assert.Equal(t, 2, distinct)

	_, err = Sum(f, "state")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = Sum(f, "missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestMetrics(t *testing.T) {
	metrics, err := Metrics(summaryFrame(t), []MetricSpec{
		{Label: "States", Kind: MetricDistinct, Column: "state", Format: FormatInt},
		{Label: "Total Claims", Kind: MetricSum, Column: "total_claims", Format: FormatInt},
		{Label: "Total Paid", Kind: MetricSum, Column: "total_paid", Format: FormatMoney},
		{Label: "Rows", Kind: MetricCount, Format: FormatInt},
	})
	require.NoError(t, err)

	require.Len(t, metrics, 4)
	assert.Equal(t, "2", metrics[0].Text)
	assert.Equal(t, "1,234", metrics[1].Text)
	assert.Equal(t, "$1,244.75", metrics[2].Text)
	assert.Equal(t, "3", metrics[3].Text)

	_, err = Metrics(summaryFrame(t), []MetricSpec{{Label: "x", Kind: "median"}})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestMetrics_RecomputedFromDisplayedRows(t *testing.T) {
	f := summaryFrame(t)
	ga := f.Filter(func(i int) bool { return f.Columns[0].Values[i] == "GA" })

	metrics, err := Metrics(ga, []MetricSpec{{Label: "Total Claims", Kind: MetricSum, Column: "total_claims", Format: FormatInt}})
	require.NoError(t, err)

	assert.Equal(t, "1,000", metrics[0].Text)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "175", FormatNumber(175, FormatInt))
	assert.Equal(t, "12,345,678", FormatNumber(12345678, FormatInt))
	assert.Equal(t, "$0.00", FormatNumber(0, FormatMoney))
	assert.Equal(t, "$2,200.00", FormatNumber(2200, FormatMoney))
}
