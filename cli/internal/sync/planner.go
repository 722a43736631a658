package sync

import (
	"errors"
	"time"

	"github.com/ccboard/ccboard/internal/api"
	"github.com/ccboard/ccboard/internal/model"
)

// ErrInvalidWatermark signals that the server's last sync date could not be
// parsed. The planner still returns the full local set so the caller can
// fall back to a complete upload instead of silently doing nothing.
var ErrInvalidWatermark = errors.New("unparseable last sync date")

// parseWatermark accepts a full timestamp or a plain date.
func parseWatermark(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// Plan selects the local days worth uploading given the server's last sync
// date. Days strictly newer than the watermark are included, plus today's
// local day unconditionally since it may still be accumulating. An empty
// watermark means a first sync: everything is uploaded.
func Plan(lastSyncDate string, days []model.DailyAggregate, now time.Time) ([]model.DailyAggregate, error) {
	if lastSyncDate == "" {
		return days, nil
	}

	watermarkTime, err := parseWatermark(lastSyncDate)
	if err != nil {
		return days, ErrInvalidWatermark
	}

	// YYYY-MM-DD strings compare correctly lexicographically.
	watermark := watermarkTime.Format("2006-01-02")
	today := now.Format("2006-01-02")

	var planned []model.DailyAggregate
	for _, day := range days {
		if day.Date > watermark || day.Date == today {
			planned = append(planned, day)
		}
	}
	return planned, nil
}

// ToUploadData converts daily aggregates to the upload wire format. The
// request count doubles as the day's totalRequests.
func ToUploadData(days []model.DailyAggregate) []api.DailyUsageData {
	payload := make([]api.DailyUsageData, len(days))
	for i, day := range days {
		payload[i] = api.DailyUsageData{
			Date:              day.Date,
			TotalRequests:     int64(day.RecordCount),
			TotalInputTokens:  day.Usage.InputTokens,
			TotalOutputTokens: day.Usage.OutputTokens,
			TotalCost:         day.Cost,
		}
	}
	return payload
}
