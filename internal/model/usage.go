package model

import "time"

// UsageRecord represents a single usage entry parsed from a Claude Code JSONL line.
type UsageRecord struct {
	Timestamp time.Time
	MessageID string
	RequestID string
	Project   string
	Model     string
	Usage     TokenUsage
	CostUSD   *float64 // precomputed cost from the log line, when present
}

// DedupKey builds the identity key used to drop duplicate records.
// When one part is missing the key degrades to the other; when both are
// missing the returned key is empty and the record is never deduplicated.
func (r UsageRecord) DedupKey() string {
	if r.MessageID == "" && r.RequestID == "" {
		return ""
	}
	return r.MessageID + ":" + r.RequestID
}

// TokenUsage contains token counts from a Claude API response.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// Add accumulates another usage into this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// DailyAggregate is the per-calendar-day rollup of usage records.
// Date is a YYYY-MM-DD string in the scanner's timezone.
type DailyAggregate struct {
	Date        string
	Usage       TokenUsage
	Cost        float64
	Models      []string
	RecordCount int
}

// ModelPricing contains pricing info for a model (per token, not per million).
type ModelPricing struct {
	InputCostPerToken         float64
	OutputCostPerToken        float64
	CacheCreationCostPerToken float64
	CacheReadCostPerToken     float64
}
