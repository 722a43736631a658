package handlers

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ccboard/ccboard/internal/api"
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	dateRegex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

const (
	maxRequestsPerDay = 10000
	maxBulkUploadDays = 365
	deviceIDLength    = 36
)

// validateUsername returns an error message, or "" when the username is valid.
func validateUsername(username string) string {
	if username == "" {
		return "Username is required"
	}
	if !usernameRegex.MatchString(username) {
		return "Username must be 3-30 characters and contain only letters, numbers, and underscores"
	}
	return ""
}

// validateDeviceID returns an error message, or "" when the device ID is valid.
func validateDeviceID(deviceID string) string {
	if deviceID == "" {
		return "Device ID is required"
	}
	if len(deviceID) != deviceIDLength {
		return "Invalid device ID format"
	}
	return ""
}

// validateDate checks format, calendar validity, and that the date is not
// after the end of the current local day.
func validateDate(date, today string) string {
	if !dateRegex.MatchString(date) {
		return "Invalid date format. Use YYYY-MM-DD"
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "Invalid date format. Use YYYY-MM-DD"
	}
	if date > today {
		return "Cannot upload data for future dates"
	}
	return ""
}

func validateUsageData(entry api.DailyUsageData) string {
	if entry.TotalRequests < 0 {
		return "Total requests must be a non-negative number"
	}
	if entry.TotalRequests > maxRequestsPerDay {
		return fmt.Sprintf("Total requests cannot exceed %d per day", maxRequestsPerDay)
	}
	if entry.TotalInputTokens < 0 {
		return "Total input tokens must be a non-negative number"
	}
	if entry.TotalOutputTokens < 0 {
		return "Total output tokens must be a non-negative number"
	}
	if entry.TotalCost < 0 {
		return "Total cost must be a non-negative number"
	}
	return ""
}

// validateBulkUpload checks a whole batch and collects one message per
// offending entry. A non-empty result rejects the batch wholesale.
func validateBulkUpload(entries []api.DailyUsageData, now time.Time) []string {
	if len(entries) == 0 {
		return []string{"No usage data provided"}
	}
	if len(entries) > maxBulkUploadDays {
		return []string{fmt.Sprintf("Cannot upload more than %d days at once", maxBulkUploadDays)}
	}

	today := now.Format("2006-01-02")
	var errors []string
	seenDates := make(map[string]struct{})

	for i, entry := range entries {
		if msg := validateDate(entry.Date, today); msg != "" {
			errors = append(errors, fmt.Sprintf("Entry %d: %s", i, msg))
			continue
		}
		if _, dup := seenDates[entry.Date]; dup {
			errors = append(errors, fmt.Sprintf("Entry %d: Duplicate date %s", i, entry.Date))
		}
		seenDates[entry.Date] = struct{}{}

		if msg := validateUsageData(entry); msg != "" {
			errors = append(errors, fmt.Sprintf("Entry %d: %s", i, msg))
		}
	}

	return errors
}
