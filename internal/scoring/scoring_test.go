package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Tier
	}{
		{0, TierRed},
		{65, TierRed},
		{65.99, TierRed},
		{66, TierYellow},
		{84.99, TierYellow},
		{85, TierGreen},
		{100, TierGreen},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.score), "score %.2f", tc.score)
	}
}

func TestClassifyIsTotalAndMonotonic(t *testing.T) {
	prev := 4
	for i := 0; i <= 10000; i++ {
		score := float64(i) / 100
		tier := Classify(score)
		assert.True(t, tier.Valid())
		switch {
		case score >= 85:
			assert.Equal(t, TierGreen, tier)
		case score >= 66:
			assert.Equal(t, TierYellow, tier)
		default:
			assert.Equal(t, TierRed, tier)
		}
		assert.LessOrEqual(t, tier.Number(), prev)
		prev = tier.Number()
	}
}

func TestTierPresentation(t *testing.T) {
	assert.Equal(t, "Tier 1", TierGreen.Label())
	assert.Equal(t, "Developing", TierYellow.Band())
	assert.Equal(t, 3, TierRed.Number())
	assert.False(t, Tier("blue").Valid())
	assert.Empty(t, Tier("blue").Label())
}

func ptr(v bool) Correctness { return &v }

func TestAggregateExampleScenario(t *testing.T) {
	responses := make([]Correctness, 0, 20)
	for i := 0; i < 12; i++ {
		responses = append(responses, ptr(true))
	}
	for i := 0; i < 8; i++ {
		responses = append(responses, nil)
	}

	res := Aggregate(responses)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, TierGreen, res.Tier)
	assert.Equal(t, 12, res.CorrectCount)
	assert.Equal(t, 12, res.TotalGraded)
	assert.Equal(t, 8, res.PendingCount)
}

func TestAggregateRoundsToTwoDecimals(t *testing.T) {
	res := Aggregate([]Correctness{ptr(true), ptr(true), ptr(false)})
	assert.Equal(t, 66.67, res.Score)
	assert.Equal(t, TierYellow, res.Tier)
}

func TestAggregateNothingGraded(t *testing.T) {
	res := Aggregate([]Correctness{nil, nil})
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, TierRed, res.Tier)
	assert.Equal(t, 2, res.PendingCount)

	empty := Aggregate(nil)
	assert.Equal(t, 0, empty.TotalGraded)
}
