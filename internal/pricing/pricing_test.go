package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ccboard/ccboard/internal/model"
)

func TestGetPricingKnownModel(t *testing.T) {
	p := GetPricing("claude-sonnet-4-5-20250929")
	assert.Equal(t, 3e-06, p.InputCostPerToken)
	assert.Equal(t, 1.5e-05, p.OutputCostPerToken)
}

func TestGetPricingNormalizedMatch(t *testing.T) {
	// Provider-prefixed and dotted names resolve to the same pricing
	p := GetPricing("anthropic/claude-opus-4.5")
	assert.Equal(t, GetPricing("claude-opus-4-5"), p)
}

func TestGetPricingUnknownModelIsZero(t *testing.T) {
	p := GetPricing("some-future-model")
	assert.Equal(t, model.ModelPricing{}, p)

	usage := model.TokenUsage{InputTokens: 1000, OutputTokens: 500}
	assert.Zero(t, CalculateCost(usage, p))
}

func TestCalculateCost(t *testing.T) {
	usage := model.TokenUsage{
		InputTokens:              1000,
		OutputTokens:             500,
		CacheCreationInputTokens: 2000,
		CacheReadInputTokens:     10000,
	}
	p := GetPricing("claude-sonnet-4-5")

	want := 1000*3e-06 + 500*1.5e-05 + 2000*3.75e-06 + 10000*3e-07
	assert.InDelta(t, want, CalculateCost(usage, p), 1e-12)
}
