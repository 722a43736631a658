package sync

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccboard/ccboard/internal/model"
)

func makeDays(dates ...string) []model.DailyAggregate {
	days := make([]model.DailyAggregate, len(dates))
	for i, d := range dates {
		days[i] = model.DailyAggregate{Date: d, RecordCount: 10, Cost: 1.5}
	}
	return days
}

func TestPlanIncludesDaysAfterWatermark(t *testing.T) {
	var dates []string
	for i := 1; i <= 10; i++ {
		dates = append(dates, fmt.Sprintf("2024-01-%02d", i))
	}
	days := makeDays(dates...)
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	planned, err := Plan("2024-01-05", days, now)
	require.NoError(t, err)

	var got []string
	for _, d := range planned {
		got = append(got, d.Date)
	}
	assert.ElementsMatch(t, []string{
		"2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10",
	}, got)
}

func TestPlanAlwaysIncludesToday(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	days := makeDays("2024-01-09", "2024-01-10")

	// Watermark already covers today, but today may still be growing
	planned, err := Plan("2024-01-10", days, now)
	require.NoError(t, err)

	require.Len(t, planned, 1)
	assert.Equal(t, "2024-01-10", planned[0].Date)
}

func TestPlanRFC3339Watermark(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	days := makeDays("2024-01-05", "2024-01-06")

	planned, err := Plan("2024-01-05T18:30:00Z", days, now)
	require.NoError(t, err)

	require.Len(t, planned, 1)
	assert.Equal(t, "2024-01-06", planned[0].Date)
}

func TestPlanEmptyWatermarkUploadsEverything(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	days := makeDays("2024-01-01", "2024-01-02", "2024-01-03")

	planned, err := Plan("", days, now)
	require.NoError(t, err)
	assert.Len(t, planned, 3)
}

func TestPlanUnparseableWatermarkUploadsEverything(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	days := makeDays("2024-01-01", "2024-01-02")

	planned, err := Plan("last tuesday", days, now)
	assert.ErrorIs(t, err, ErrInvalidWatermark)
	assert.Len(t, planned, 2)
}

func TestPlanNoDays(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	planned, err := Plan("2024-01-05", nil, now)
	require.NoError(t, err)
	assert.Empty(t, planned)
}

func TestToUploadData(t *testing.T) {
	days := []model.DailyAggregate{{
		Date: "2024-01-05",
		Usage: model.TokenUsage{
			InputTokens:  1000,
			OutputTokens: 400,
		},
		Cost:        2.5,
		RecordCount: 42,
	}}

	data := ToUploadData(days)
	require.Len(t, data, 1)
	assert.Equal(t, "2024-01-05", data[0].Date)
	assert.Equal(t, int64(42), data[0].TotalRequests)
	assert.Equal(t, int64(1000), data[0].TotalInputTokens)
	assert.Equal(t, int64(400), data[0].TotalOutputTokens)
	assert.Equal(t, 2.5, data[0].TotalCost)
}
