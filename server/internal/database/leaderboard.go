package database

import (
	"fmt"
)

// LeaderboardRow is one user's aggregate under a metric and window.
type LeaderboardRow struct {
	Username      string
	TotalRequests int64
	TotalTokens   int64
	TotalCost     float64
	LastActive    string
}

// ActivityDay is one day of a user's recent usage.
type ActivityDay struct {
	Date     string
	Requests int64
	Cost     float64
}

// GlobalRank holds a user's 1-based rank under each metric.
type GlobalRank struct {
	ByRequests int64
	ByTokens   int64
	ByCost     int64
}

// orderColumn maps a metric to its users-table ordering expression.
// Ties break on ascending username so pagination stays stable.
func orderColumn(metric string) string {
	switch metric {
	case "tokens":
		return "total_input_tokens + total_output_tokens"
	case "cost":
		return "total_cost"
	default:
		return "total_requests"
	}
}

// LeaderboardAllTime ranks users by their running totals.
func (db *DB) LeaderboardAllTime(metric string, limit, offset int) ([]LeaderboardRow, int64, error) {
	query := fmt.Sprintf(`
		SELECT username, total_requests, total_input_tokens + total_output_tokens,
		       total_cost, COALESCE(last_upload_at, '')
		FROM users
		ORDER BY %s DESC, username ASC
		LIMIT ? OFFSET ?
	`, orderColumn(metric))

	rows, err := db.Query(query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Username, &r.TotalRequests, &r.TotalTokens, &r.TotalCost, &r.LastActive); err != nil {
			return nil, 0, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// LeaderboardWindow ranks users by usage on days at or after cutoff
// (YYYY-MM-DD). Total counts only users active in the window.
func (db *DB) LeaderboardWindow(metric, cutoff string, limit, offset int) ([]LeaderboardRow, int64, error) {
	var orderExpr string
	switch metric {
	case "tokens":
		orderExpr = "SUM(d.total_input_tokens + d.total_output_tokens)"
	case "cost":
		orderExpr = "SUM(d.total_cost)"
	default:
		orderExpr = "SUM(d.total_requests)"
	}

	query := fmt.Sprintf(`
		SELECT u.username, SUM(d.total_requests),
		       SUM(d.total_input_tokens + d.total_output_tokens),
		       SUM(d.total_cost), MAX(d.date)
		FROM daily_usage d
		INNER JOIN users u ON u.id = d.user_id
		WHERE d.date >= ?
		GROUP BY d.user_id, u.username
		ORDER BY %s DESC, u.username ASC
		LIMIT ? OFFSET ?
	`, orderExpr)

	rows, err := db.Query(query, cutoff, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Username, &r.TotalRequests, &r.TotalTokens, &r.TotalCost, &r.LastActive); err != nil {
			return nil, 0, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	err = db.QueryRow(
		`SELECT COUNT(DISTINCT user_id) FROM daily_usage WHERE date >= ?`, cutoff,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// GlobalRanks computes a user's rank under each metric: one plus the number
// of users with a strictly greater value, so equal values share a rank.
func (db *DB) GlobalRanks(user *User) (*GlobalRank, error) {
	rank := &GlobalRank{}

	err := db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE total_requests > ?`, user.TotalRequests,
	).Scan(&rank.ByRequests)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE total_input_tokens + total_output_tokens > ?`,
		user.TotalInputTokens+user.TotalOutputTokens,
	).Scan(&rank.ByTokens)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE total_cost > ?`, user.TotalCost,
	).Scan(&rank.ByCost)
	if err != nil {
		return nil, err
	}

	rank.ByRequests++
	rank.ByTokens++
	rank.ByCost++
	return rank, nil
}

// RecentActivity returns up to 30 days of a user's usage at or after
// cutoff, newest first.
func (db *DB) RecentActivity(userID int64, cutoff string) ([]ActivityDay, error) {
	rows, err := db.Query(`
		SELECT date, total_requests, total_cost
		FROM daily_usage
		WHERE user_id = ? AND date >= ?
		ORDER BY date DESC
		LIMIT 30
	`, userID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []ActivityDay
	for rows.Next() {
		var d ActivityDay
		if err := rows.Scan(&d.Date, &d.Requests, &d.Cost); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
