package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func mustCreateUser(t *testing.T, db *DB, username, deviceID string) *User {
	t.Helper()
	user, err := db.CreateUser(username, deviceID)
	require.NoError(t, err)
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	db := openTestDB(t)

	created := mustCreateUser(t, db, "alice", "device-a")

	user, err := db.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "device-a", user.DeviceID)
	assert.Zero(t, user.TotalRequests)
	assert.Empty(t, user.LastSyncDate)

	byDevice, err := db.GetUserByDeviceID("device-a")
	require.NoError(t, err)
	require.NotNil(t, byDevice)
	assert.Equal(t, "alice", byDevice.Username)

	missing, err := db.GetUserByUsername("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateUserUniqueConstraints(t *testing.T) {
	db := openTestDB(t)
	mustCreateUser(t, db, "alice", "device-a")

	_, err := db.CreateUser("alice", "device-b")
	assert.Error(t, err)

	_, err = db.CreateUser("bob", "device-a")
	assert.Error(t, err)
}

func TestApplyDailyUsageFirstUpload(t *testing.T) {
	db := openTestDB(t)
	user := mustCreateUser(t, db, "alice", "device-a")

	res, err := db.ApplyDailyUsage(user.ID, []DailyUsage{
		{Date: "2024-01-15", TotalRequests: 10, TotalInputTokens: 1000, TotalOutputTokens: 400, TotalCost: 2.5},
		{Date: "2024-01-16", TotalRequests: 5, TotalInputTokens: 500, TotalOutputTokens: 200, TotalCost: 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Uploaded)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Errors)

	user, err = db.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(15), user.TotalRequests)
	assert.Equal(t, int64(1500), user.TotalInputTokens)
	assert.Equal(t, int64(600), user.TotalOutputTokens)
	assert.InDelta(t, 3.5, user.TotalCost, 1e-9)
	assert.Equal(t, "2024-01-16", user.LastSyncDate)
	assert.NotEmpty(t, user.LastUploadAt)

	days, err := db.CountUploadedDays(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), days)
}

func TestApplyDailyUsageIdempotent(t *testing.T) {
	db := openTestDB(t)
	user := mustCreateUser(t, db, "alice", "device-a")

	batch := []DailyUsage{
		{Date: "2024-01-15", TotalRequests: 10, TotalInputTokens: 1000, TotalOutputTokens: 400, TotalCost: 2.5},
	}

	_, err := db.ApplyDailyUsage(user.ID, batch)
	require.NoError(t, err)

	// Replaying the identical batch changes nothing
	res, err := db.ApplyDailyUsage(user.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Uploaded) // equal counts overwrite in place
	assert.Zero(t, res.Skipped)

	user, err = db.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.TotalRequests)
	assert.Equal(t, int64(1000), user.TotalInputTokens)
	assert.InDelta(t, 2.5, user.TotalCost, 1e-9)
}

func TestApplyDailyUsageGrownDayAddsOnlyTheDifference(t *testing.T) {
	db := openTestDB(t)
	user := mustCreateUser(t, db, "alice", "device-a")

	_, err := db.ApplyDailyUsage(user.ID, []DailyUsage{
		{Date: "2024-01-15", TotalRequests: 5, TotalInputTokens: 500, TotalOutputTokens: 100, TotalCost: 1.0},
	})
	require.NoError(t, err)

	res, err := db.ApplyDailyUsage(user.ID, []DailyUsage{
		{Date: "2024-01-15", TotalRequests: 12, TotalInputTokens: 1200, TotalOutputTokens: 300, TotalCost: 2.4},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Uploaded)

	user, err = db.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(12), user.TotalRequests)
	assert.Equal(t, int64(1200), user.TotalInputTokens)
	assert.Equal(t, int64(300), user.TotalOutputTokens)
	assert.InDelta(t, 2.4, user.TotalCost, 1e-9)
}

func TestApplyDailyUsageRejectsStaleDay(t *testing.T) {
	db := openTestDB(t)
	user := mustCreateUser(t, db, "alice", "device-a")

	_, err := db.ApplyDailyUsage(user.ID, []DailyUsage{
		{Date: "2024-01-15", TotalRequests: 10, TotalInputTokens: 1000, TotalOutputTokens: 400, TotalCost: 2.5},
	})
	require.NoError(t, err)

	// A resend with fewer requests is stale and must not shrink the day
	res, err := db.ApplyDailyUsage(user.ID, []DailyUsage{
		{Date: "2024-01-15", TotalRequests: 3, TotalInputTokens: 300, TotalOutputTokens: 100, TotalCost: 0.5},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Uploaded)
	assert.Equal(t, 1, res.Skipped)

	user, err = db.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.TotalRequests)
	assert.InDelta(t, 2.5, user.TotalCost, 1e-9)
}

func TestRecalculateUserTotals(t *testing.T) {
	db := openTestDB(t)
	user := mustCreateUser(t, db, "alice", "device-a")

	_, err := db.ApplyDailyUsage(user.ID, []DailyUsage{
		{Date: "2024-01-15", TotalRequests: 10, TotalInputTokens: 1000, TotalOutputTokens: 400, TotalCost: 2.5},
		{Date: "2024-01-16", TotalRequests: 5, TotalInputTokens: 500, TotalOutputTokens: 200, TotalCost: 1.0},
	})
	require.NoError(t, err)

	// Simulate drift in the running totals
	_, err = db.Exec(`UPDATE users SET total_requests = 999, total_cost = 999 WHERE id = ?`, user.ID)
	require.NoError(t, err)

	require.NoError(t, db.RecalculateUserTotals(user.ID))

	user, err = db.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(15), user.TotalRequests)
	assert.Equal(t, int64(1500), user.TotalInputTokens)
	assert.Equal(t, int64(600), user.TotalOutputTokens)
	assert.InDelta(t, 3.5, user.TotalCost, 1e-9)
	assert.Equal(t, "2024-01-16", user.LastSyncDate)
}

func seedLeaderboard(t *testing.T, db *DB) {
	t.Helper()
	for _, u := range []struct {
		name string
		days []DailyUsage
	}{
		{"alice", []DailyUsage{
			{Date: "2024-01-10", TotalRequests: 100, TotalInputTokens: 10000, TotalOutputTokens: 5000, TotalCost: 50},
		}},
		{"bob", []DailyUsage{
			{Date: "2024-01-20", TotalRequests: 200, TotalInputTokens: 2000, TotalOutputTokens: 1000, TotalCost: 30},
		}},
		{"carol", []DailyUsage{
			{Date: "2024-01-20", TotalRequests: 50, TotalInputTokens: 20000, TotalOutputTokens: 10000, TotalCost: 50},
		}},
	} {
		user := mustCreateUser(t, db, u.name, "device-"+u.name)
		_, err := db.ApplyDailyUsage(user.ID, u.days)
		require.NoError(t, err)
	}
}

func TestLeaderboardAllTime(t *testing.T) {
	db := openTestDB(t)
	seedLeaderboard(t, db)

	rows, total, err := db.LeaderboardAllTime("requests", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, "alice", rows[1].Username)
	assert.Equal(t, "carol", rows[2].Username)

	rows, _, err = db.LeaderboardAllTime("tokens", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "carol", rows[0].Username)
	assert.Equal(t, int64(30000), rows[0].TotalTokens)
}

func TestLeaderboardTiesBreakOnUsername(t *testing.T) {
	db := openTestDB(t)
	seedLeaderboard(t, db)

	// alice and carol are tied at $50; alice sorts first
	rows, _, err := db.LeaderboardAllTime("cost", 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, "carol", rows[1].Username)
	assert.Equal(t, "bob", rows[2].Username)
}

func TestLeaderboardPagination(t *testing.T) {
	db := openTestDB(t)
	seedLeaderboard(t, db)

	rows, total, err := db.LeaderboardAllTime("requests", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Username)
}

func TestLeaderboardWindow(t *testing.T) {
	db := openTestDB(t)
	seedLeaderboard(t, db)

	// Only bob and carol were active on or after the cutoff
	rows, total, err := db.LeaderboardWindow("requests", "2024-01-15", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, "carol", rows[1].Username)
	assert.Equal(t, "2024-01-20", rows[0].LastActive)
}

func TestGlobalRanks(t *testing.T) {
	db := openTestDB(t)
	seedLeaderboard(t, db)

	alice, err := db.GetUserByUsername("alice")
	require.NoError(t, err)

	ranks, err := db.GlobalRanks(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ranks.ByRequests) // behind bob
	assert.Equal(t, int64(2), ranks.ByTokens)   // behind carol
	assert.Equal(t, int64(1), ranks.ByCost)     // tied with carol at the top
}

func TestRecentActivity(t *testing.T) {
	db := openTestDB(t)
	user := mustCreateUser(t, db, "alice", "device-a")

	_, err := db.ApplyDailyUsage(user.ID, []DailyUsage{
		{Date: "2024-01-10", TotalRequests: 1, TotalCost: 0.1},
		{Date: "2024-01-15", TotalRequests: 2, TotalCost: 0.2},
		{Date: "2024-01-20", TotalRequests: 3, TotalCost: 0.3},
	})
	require.NoError(t, err)

	days, err := db.RecentActivity(user.ID, "2024-01-12")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-20", days[0].Date)
	assert.Equal(t, "2024-01-15", days[1].Date)
	assert.Equal(t, int64(3), days[0].Requests)
}
