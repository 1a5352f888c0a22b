package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zcoinsAPI/internal/types/challenge"
)

func TestSanitize_Cost(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{nil, DefaultCost},
		{float64(3), 3},
		{float64(0), MinCost},
		{float64(-4), MinCost},
		{float64(99), MaxCost},
		{2.6, 3},
		{"4", 4},
		{" 1.4 ", 1},
		{"lots", DefaultCost},
		{true, DefaultCost},
	}
	for _, tc := range tests {
		got := Sanitize(RawChallenge{Cost: tc.in}, 0)
		assert.Equal(t, tc.want, got.Cost, "cost %v", tc.in)
	}
}

func TestSanitize_Reward(t *testing.T) {
	assert.Equal(t, DefaultReward, Sanitize(RawChallenge{}, 0).Reward)
	assert.Equal(t, MinReward, Sanitize(RawChallenge{Reward: float64(1)}, 0).Reward)
	assert.Equal(t, MaxReward, Sanitize(RawChallenge{Reward: float64(1000)}, 0).Reward)
	assert.Equal(t, 12, Sanitize(RawChallenge{Reward: "12"}, 0).Reward)
}

func TestSanitize_Penalty(t *testing.T) {
	assert.Equal(t, DefaultPenalty, Sanitize(RawChallenge{}, 0).FailurePenalty)
	assert.Equal(t, MinPenalty, Sanitize(RawChallenge{FailurePenalty: float64(0)}, 0).FailurePenalty)
	assert.Equal(t, MaxPenalty, Sanitize(RawChallenge{FailurePenalty: float64(50)}, 0).FailurePenalty)
}

func TestSanitize_TimeLimit(t *testing.T) {
	assert.Equal(t, DefaultMinutes, Sanitize(RawChallenge{}, 0).TimeLimitMinutes)
	assert.Equal(t, MinMinutes, Sanitize(RawChallenge{TimeLimit: float64(1)}, 0).TimeLimitMinutes)
	assert.Equal(t, MaxMinutes, Sanitize(RawChallenge{TimeLimit: "100000"}, 0).TimeLimitMinutes)
	assert.Equal(t, DefaultMinutes, Sanitize(RawChallenge{TimeLimit: "NaN"}, 0).TimeLimitMinutes)
}

func TestSanitize_Difficulty(t *testing.T) {
	assert.Equal(t, challenge.DifficultyHard, Sanitize(RawChallenge{Difficulty: " HARD "}, 0).Difficulty)
	assert.Equal(t, DefaultDifficulty, Sanitize(RawChallenge{Difficulty: "extreme"}, 0).Difficulty)
	assert.Equal(t, DefaultDifficulty, Sanitize(RawChallenge{}, 0).Difficulty)
}

func TestSanitize_Icon(t *testing.T) {
	assert.Equal(t, challenge.IconSun, Sanitize(RawChallenge{Icon: "Sun"}, 0).Icon)

	n := len(challenge.Icons)
	for i := 0; i < 2*n; i++ {
		got := Sanitize(RawChallenge{Icon: "rocket"}, i).Icon
		assert.Equal(t, challenge.Icons[i%n], got)
	}
	assert.True(t, Sanitize(RawChallenge{}, -3).Icon.Valid())
}

func TestSanitize_Text(t *testing.T) {
	got := Sanitize(RawChallenge{}, 2)
	assert.Equal(t, "Challenge 3", got.Title)
	assert.Equal(t, "تحدي 3", got.TitleAr)
	assert.Equal(t, defaultDescription, got.Description)
	assert.Equal(t, defaultDescriptionAr, got.DescriptionAr)
	assert.Equal(t, challenge.SourceAI, got.Source)

	got = Sanitize(RawChallenge{Title: "  Go   outside\n", Description: strings.Repeat("é", 600)}, 0)
	assert.Equal(t, "Go outside", got.Title)
	assert.Len(t, []rune(got.Description), maxDescriptionRunes)
}

// Whatever the model sends, the guardrails hold.
func TestSanitize_Guardrails(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"cost": -1e308, "reward": 1e308, "failure_penalty": "x", "difficulty": 7, "icon": null, "time_limit": []}`,
		`{"cost": "3.5", "reward": "25.4", "penalty": 9, "difficulty": "Easy", "icon": "WATER", "timeLimit": "30"}`,
		`{"title": 42, "cost": {"nested": 1}}`,
	}

	for i, in := range inputs {
		var raw RawChallenge
		require.NoError(t, json.Unmarshal([]byte(in), &raw), in)

		d := Sanitize(raw, i)
		assert.GreaterOrEqual(t, d.Cost, MinCost)
		assert.LessOrEqual(t, d.Cost, MaxCost)
		assert.GreaterOrEqual(t, d.Reward, MinReward)
		assert.LessOrEqual(t, d.Reward, MaxReward)
		assert.GreaterOrEqual(t, d.FailurePenalty, MinPenalty)
		assert.LessOrEqual(t, d.FailurePenalty, MaxPenalty)
		assert.GreaterOrEqual(t, d.TimeLimitMinutes, MinMinutes)
		assert.LessOrEqual(t, d.TimeLimitMinutes, MaxMinutes)
		assert.True(t, d.Difficulty.Valid())
		assert.True(t, d.Icon.Valid())
		assert.NotEmpty(t, d.Title)
	}
}

func TestRawChallenge_Aliases(t *testing.T) {
	var raw RawChallenge
	require.NoError(t, json.Unmarshal([]byte(`{"titleAr": "مشي", "failurePenalty": 2, "time_limit_minutes": 45}`), &raw))

	d := Sanitize(raw, 0)
	assert.Equal(t, "مشي", d.TitleAr)
	assert.Equal(t, 2, d.FailurePenalty)
	assert.Equal(t, 45, d.TimeLimitMinutes)
}
