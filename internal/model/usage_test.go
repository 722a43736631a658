package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupKey(t *testing.T) {
	rec := UsageRecord{MessageID: "msg_1", RequestID: "req_1"}
	assert.Equal(t, "msg_1:req_1", rec.DedupKey())

	// Either half alone still identifies the record
	assert.Equal(t, "msg_1:", UsageRecord{MessageID: "msg_1"}.DedupKey())
	assert.Equal(t, ":req_1", UsageRecord{RequestID: "req_1"}.DedupKey())

	// No identity at all means never deduplicate
	assert.Empty(t, UsageRecord{}.DedupKey())
}

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{InputTokens: 10, OutputTokens: 5}
	u.Add(TokenUsage{InputTokens: 1, OutputTokens: 2, CacheCreationInputTokens: 3, CacheReadInputTokens: 4})

	assert.Equal(t, TokenUsage{
		InputTokens:              11,
		OutputTokens:             7,
		CacheCreationInputTokens: 3,
		CacheReadInputTokens:     4,
	}, u)
}
