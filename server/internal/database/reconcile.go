package database

import (
	"database/sql"
	"fmt"
	"time"
)

// DailyUsage is one validated day of usage as reported by a client.
type DailyUsage struct {
	Date              string
	TotalRequests     int64
	TotalInputTokens  int64
	TotalOutputTokens int64
	TotalCost         float64
}

// UploadResult summarizes a reconciled batch. Errors holds per-entry
// failures; entries that errored were neither uploaded nor skipped.
type UploadResult struct {
	Uploaded int
	Skipped  int
	Errors   []string
}

// totalsDelta accumulates the net change to a user's running totals.
type totalsDelta struct {
	requests     int64
	inputTokens  int64
	outputTokens int64
	cost         float64
}

func (d *totalsDelta) add(other totalsDelta) {
	d.requests += other.requests
	d.inputTokens += other.inputTokens
	d.outputTokens += other.outputTokens
	d.cost += other.cost
}

// ApplyDailyUsage reconciles a validated batch of daily usage against the
// stored rows for a user and updates the user's running totals by delta.
//
// Entries are processed in input order, each in its own transaction, so a
// failure on one row never blocks the rest. A stored day is overwritten
// only when the incoming totalRequests is not less than the stored value;
// anything older is a stale resubmission and is skipped. Re-uploading an
// unchanged day therefore skips, and re-uploading a grown day adds only
// the difference, keeping totals exact across retries.
func (db *DB) ApplyDailyUsage(userID int64, entries []DailyUsage) (*UploadResult, error) {
	res := &UploadResult{}
	now := time.Now().UTC().Format(time.RFC3339)

	var delta totalsDelta
	maxDate := ""
	for _, entry := range entries {
		if entry.Date > maxDate {
			maxDate = entry.Date
		}

		applied, entryDelta, err := db.applyEntry(userID, entry, now)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to process entry for %s: %v", entry.Date, err))
			continue
		}
		if applied {
			res.Uploaded++
			delta.add(entryDelta)
		} else {
			res.Skipped++
		}
	}

	_, err := db.Exec(`
		UPDATE users SET
			total_requests = total_requests + ?,
			total_input_tokens = total_input_tokens + ?,
			total_output_tokens = total_output_tokens + ?,
			total_cost = total_cost + ?,
			last_sync_date = ?,
			last_upload_at = ?
		WHERE id = ?
	`, delta.requests, delta.inputTokens, delta.outputTokens, delta.cost, maxDate, now, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update running totals: %w", err)
	}

	return res, nil
}

// applyEntry inserts or overwrites a single (user, date) row inside one
// immediate transaction and reports the resulting totals delta.
func (db *DB) applyEntry(userID int64, entry DailyUsage, now string) (bool, totalsDelta, error) {
	var delta totalsDelta

	tx, err := db.Begin()
	if err != nil {
		return false, delta, err
	}
	defer tx.Rollback()

	var rowID int64
	var stored DailyUsage
	err = tx.QueryRow(`
		SELECT id, total_requests, total_input_tokens, total_output_tokens, total_cost
		FROM daily_usage WHERE user_id = ? AND date = ?
	`, userID, entry.Date).Scan(&rowID, &stored.TotalRequests, &stored.TotalInputTokens, &stored.TotalOutputTokens, &stored.TotalCost)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO daily_usage
			(user_id, date, total_requests, total_input_tokens, total_output_tokens, total_cost, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, userID, entry.Date, entry.TotalRequests, entry.TotalInputTokens, entry.TotalOutputTokens, entry.TotalCost, now, now)
		if err != nil {
			return false, delta, err
		}
		delta = totalsDelta{
			requests:     entry.TotalRequests,
			inputTokens:  entry.TotalInputTokens,
			outputTokens: entry.TotalOutputTokens,
			cost:         entry.TotalCost,
		}

	case err != nil:
		return false, delta, err

	case entry.TotalRequests >= stored.TotalRequests:
		_, err = tx.Exec(`
			UPDATE daily_usage SET
				total_requests = ?, total_input_tokens = ?, total_output_tokens = ?,
				total_cost = ?, updated_at = ?
			WHERE id = ?
		`, entry.TotalRequests, entry.TotalInputTokens, entry.TotalOutputTokens, entry.TotalCost, now, rowID)
		if err != nil {
			return false, delta, err
		}
		delta = totalsDelta{
			requests:     entry.TotalRequests - stored.TotalRequests,
			inputTokens:  entry.TotalInputTokens - stored.TotalInputTokens,
			outputTokens: entry.TotalOutputTokens - stored.TotalOutputTokens,
			cost:         entry.TotalCost - stored.TotalCost,
		}

	default:
		// Stale or out-of-order resubmission
		return false, delta, tx.Commit()
	}

	return true, delta, tx.Commit()
}

// RecalculateUserTotals rebuilds a user's running totals and sync watermark
// from the daily_usage detail rows. Repair path for drift caused by partial
// failures or concurrent writers.
func (db *DB) RecalculateUserTotals(userID int64) error {
	_, err := db.Exec(`
		UPDATE users SET
			total_requests = COALESCE((SELECT SUM(total_requests) FROM daily_usage WHERE user_id = users.id), 0),
			total_input_tokens = COALESCE((SELECT SUM(total_input_tokens) FROM daily_usage WHERE user_id = users.id), 0),
			total_output_tokens = COALESCE((SELECT SUM(total_output_tokens) FROM daily_usage WHERE user_id = users.id), 0),
			total_cost = COALESCE((SELECT SUM(total_cost) FROM daily_usage WHERE user_id = users.id), 0),
			last_sync_date = (SELECT MAX(date) FROM daily_usage WHERE user_id = users.id)
		WHERE id = ?
	`, userID)
	return err
}
