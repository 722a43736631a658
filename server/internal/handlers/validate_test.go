package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ccboard/ccboard/internal/api"
)

func TestValidateUsername(t *testing.T) {
	assert.Empty(t, validateUsername("alice"))
	assert.Empty(t, validateUsername("Alice_123"))
	assert.Empty(t, validateUsername(strings.Repeat("a", 30)))

	assert.Equal(t, "Username is required", validateUsername(""))

	invalid := "Username must be 3-30 characters and contain only letters, numbers, and underscores"
	assert.Equal(t, invalid, validateUsername("ab"))
	assert.Equal(t, invalid, validateUsername(strings.Repeat("a", 31)))
	assert.Equal(t, invalid, validateUsername("has space"))
	assert.Equal(t, invalid, validateUsername("dash-ed"))
}

func TestValidateDeviceID(t *testing.T) {
	assert.Empty(t, validateDeviceID("3b241101-e2bb-4255-8caf-4136c566a964"))
	assert.Equal(t, "Device ID is required", validateDeviceID(""))
	assert.Equal(t, "Invalid device ID format", validateDeviceID("too-short"))
}

func TestValidateDate(t *testing.T) {
	today := "2024-06-15"

	assert.Empty(t, validateDate("2024-06-15", today))
	assert.Empty(t, validateDate("2024-01-01", today))

	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD", validateDate("15-06-2024", today))
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD", validateDate("2024-13-45", today))
	assert.Equal(t, "Cannot upload data for future dates", validateDate("2024-06-16", today))
}

func TestValidateBulkUpload(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("empty batch", func(t *testing.T) {
		errs := validateBulkUpload(nil, now)
		assert.Equal(t, []string{"No usage data provided"}, errs)
	})

	t.Run("too many days", func(t *testing.T) {
		entries := make([]api.DailyUsageData, maxBulkUploadDays+1)
		errs := validateBulkUpload(entries, now)
		assert.Equal(t, []string{"Cannot upload more than 365 days at once"}, errs)
	})

	t.Run("valid batch", func(t *testing.T) {
		errs := validateBulkUpload([]api.DailyUsageData{
			{Date: "2024-06-14", TotalRequests: 10},
			{Date: "2024-06-15", TotalRequests: 20},
		}, now)
		assert.Empty(t, errs)
	})

	t.Run("collects per-entry errors", func(t *testing.T) {
		errs := validateBulkUpload([]api.DailyUsageData{
			{Date: "2024-06-14", TotalRequests: -1},
			{Date: "2024-06-14", TotalRequests: 5},
			{Date: "2999-01-01", TotalRequests: 5},
			{Date: "2024-06-13", TotalRequests: maxRequestsPerDay + 1},
		}, now)

		assert.Contains(t, errs, "Entry 0: Total requests must be a non-negative number")
		assert.Contains(t, errs, "Entry 1: Duplicate date 2024-06-14")
		assert.Contains(t, errs, "Entry 2: Cannot upload data for future dates")
		assert.Contains(t, errs, "Entry 3: Total requests cannot exceed 10000 per day")
	})

	t.Run("negative tokens and cost", func(t *testing.T) {
		errs := validateBulkUpload([]api.DailyUsageData{
			{Date: "2024-06-14", TotalInputTokens: -1},
			{Date: "2024-06-13", TotalOutputTokens: -1},
			{Date: "2024-06-12", TotalCost: -0.5},
		}, now)

		assert.Contains(t, errs, "Entry 0: Total input tokens must be a non-negative number")
		assert.Contains(t, errs, "Entry 1: Total output tokens must be a non-negative number")
		assert.Contains(t, errs, "Entry 2: Total cost must be a non-negative number")
	})
}
