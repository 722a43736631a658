package pricing

import (
	"strings"

	"github.com/ccboard/ccboard/internal/model"
)

// table holds per-token pricing for known models.
var table = map[string]model.ModelPricing{
	// Opus 4.5
	"claude-opus-4-5-20251101": {
		InputCostPerToken:         5e-06,
		OutputCostPerToken:        2.5e-05,
		CacheCreationCostPerToken: 6.25e-06,
		CacheReadCostPerToken:     5e-07,
	},
	"claude-opus-4-5": {
		InputCostPerToken:         5e-06,
		OutputCostPerToken:        2.5e-05,
		CacheCreationCostPerToken: 6.25e-06,
		CacheReadCostPerToken:     5e-07,
	},
	// Opus 4.1
	"claude-opus-4-1-20250805": {
		InputCostPerToken:         1.5e-05,
		OutputCostPerToken:        7.5e-05,
		CacheCreationCostPerToken: 1.875e-05,
		CacheReadCostPerToken:     1.5e-06,
	},
	"claude-opus-4-1": {
		InputCostPerToken:         1.5e-05,
		OutputCostPerToken:        7.5e-05,
		CacheCreationCostPerToken: 1.875e-05,
		CacheReadCostPerToken:     1.5e-06,
	},
	// Opus 4
	"claude-opus-4-20250514": {
		InputCostPerToken:         1.5e-05,
		OutputCostPerToken:        7.5e-05,
		CacheCreationCostPerToken: 1.875e-05,
		CacheReadCostPerToken:     1.5e-06,
	},
	"claude-4-opus-20250514": {
		InputCostPerToken:         1.5e-05,
		OutputCostPerToken:        7.5e-05,
		CacheCreationCostPerToken: 1.875e-05,
		CacheReadCostPerToken:     1.5e-06,
	},
	// Sonnet 4.5
	"claude-sonnet-4-5-20250929": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	"claude-sonnet-4-5": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	// Sonnet 4
	"claude-sonnet-4-20250514": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	"claude-4-sonnet-20250514": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	// Sonnet 3.7
	"claude-3-7-sonnet-20250219": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	// Sonnet 3.5
	"claude-3-5-sonnet-20241022": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	"claude-3-5-sonnet-20240620": {
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	},
	// Haiku 4.5
	"claude-haiku-4-5-20251001": {
		InputCostPerToken:         1e-06,
		OutputCostPerToken:        5e-06,
		CacheCreationCostPerToken: 1.25e-06,
		CacheReadCostPerToken:     1e-07,
	},
	"claude-haiku-4-5": {
		InputCostPerToken:         1e-06,
		OutputCostPerToken:        5e-06,
		CacheCreationCostPerToken: 1.25e-06,
		CacheReadCostPerToken:     1e-07,
	},
	// Haiku 3.5
	"claude-3-5-haiku-20241022": {
		InputCostPerToken:         8e-07,
		OutputCostPerToken:        4e-06,
		CacheCreationCostPerToken: 1e-06,
		CacheReadCostPerToken:     8e-08,
	},
	// Haiku 3
	"claude-3-haiku-20240307": {
		InputCostPerToken:         2.5e-07,
		OutputCostPerToken:        1.25e-06,
		CacheCreationCostPerToken: 3e-07,
		CacheReadCostPerToken:     3e-08,
	},
	// Opus 3
	"claude-3-opus-20240229": {
		InputCostPerToken:         1.5e-05,
		OutputCostPerToken:        7.5e-05,
		CacheCreationCostPerToken: 1.875e-05,
		CacheReadCostPerToken:     1.5e-06,
	},
}

// GetPricing returns pricing for a model. Unknown models price at zero so
// that a new model never inflates a user's reported cost.
func GetPricing(modelName string) model.ModelPricing {
	if p, ok := table[modelName]; ok {
		return p
	}

	// Try to find a matching model by normalizing the name
	normalized := normalizeModelName(modelName)
	for name, p := range table {
		if normalizeModelName(name) == normalized {
			return p
		}
	}

	return model.ModelPricing{}
}

// normalizeModelName normalizes model names for matching
func normalizeModelName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimPrefix(name, "anthropic/")
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, ".", "")
	return name
}

// CalculateCost calculates the cost for a usage record
func CalculateCost(usage model.TokenUsage, pricing model.ModelPricing) float64 {
	cost := float64(usage.InputTokens) * pricing.InputCostPerToken
	cost += float64(usage.OutputTokens) * pricing.OutputCostPerToken
	cost += float64(usage.CacheCreationInputTokens) * pricing.CacheCreationCostPerToken
	cost += float64(usage.CacheReadInputTokens) * pricing.CacheReadCostPerToken
	return cost
}
