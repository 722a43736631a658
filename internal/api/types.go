// Package api holds the JSON types shared between the CLI client and the
// server for everything under /api/v1.
package api

// RegisterRequest is the body of POST /api/v1/users/register.
type RegisterRequest struct {
	Username string `json:"username"`
	DeviceID string `json:"deviceId"`
}

// RegisterResponse is the reply to a registration attempt.
type RegisterResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
	Created  bool   `json:"created"`
	Error    string `json:"error,omitempty"`
}

// DailyUsageData is one day of aggregated usage as reported by a client.
type DailyUsageData struct {
	Date              string  `json:"date"`
	TotalRequests     int64   `json:"totalRequests"`
	TotalInputTokens  int64   `json:"totalInputTokens"`
	TotalOutputTokens int64   `json:"totalOutputTokens"`
	TotalCost         float64 `json:"totalCost"`
}

// UploadRequest is the body of POST /api/v1/usage/upload.
type UploadRequest struct {
	Username   string           `json:"username"`
	DailyUsage []DailyUsageData `json:"dailyUsage"`
}

// UploadResponse reports per-batch reconciliation results. Row-level
// failures show up in Errors while Success stays true.
type UploadResponse struct {
	Success  bool     `json:"success"`
	Uploaded int      `json:"uploaded"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// SyncStatusResponse is the reply to GET /api/v1/users/{username}/sync-status.
type SyncStatusResponse struct {
	Username          string `json:"username"`
	LastSyncDate      string `json:"lastSyncDate"`
	LastUploadTime    string `json:"lastUploadTime"`
	TotalDaysUploaded int64  `json:"totalDaysUploaded"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	Username      string  `json:"username"`
	TotalRequests int64   `json:"totalRequests"`
	TotalTokens   int64   `json:"totalTokens"`
	TotalCost     float64 `json:"totalCost"`
	LastActive    string  `json:"lastActive"`
}

// LeaderboardResponse is the reply to GET /api/v1/leaderboard.
type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Total       int64              `json:"total"`
	Period      string             `json:"period"`
	Metric      string             `json:"metric"`
}

// GlobalRank holds a user's 1-based rank under each metric.
type GlobalRank struct {
	ByRequests int64 `json:"byRequests"`
	ByTokens   int64 `json:"byTokens"`
	ByCost     int64 `json:"byCost"`
}

// UserTotals mirrors a user's running totals.
type UserTotals struct {
	Requests     int64   `json:"requests"`
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	Cost         float64 `json:"cost"`
}

// ActivityDay is one day of recent activity in a stats response.
type ActivityDay struct {
	Date     string  `json:"date"`
	Requests int64   `json:"requests"`
	Cost     float64 `json:"cost"`
}

// UserStatsResponse is the reply to GET /api/v1/users/{username}/stats.
type UserStatsResponse struct {
	Username       string        `json:"username"`
	GlobalRank     GlobalRank    `json:"globalRank"`
	Totals         UserTotals    `json:"totals"`
	RecentActivity []ActivityDay `json:"recentActivity"`
}

// ErrorResponse is the generic error body for non-2xx replies.
type ErrorResponse struct {
	Error string `json:"error"`
}
