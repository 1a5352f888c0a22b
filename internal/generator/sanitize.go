package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"zcoinsAPI/internal/types/challenge"
)

// Guardrails applied to every generated challenge.
const (
	MinCost, MaxCost, DefaultCost          = 1, 5, 2
	MinReward, MaxReward, DefaultReward    = 3, 25, 8
	MinPenalty, MaxPenalty, DefaultPenalty = 1, 8, 3
	MinMinutes, MaxMinutes, DefaultMinutes = 5, 1440, 60

	DefaultDifficulty = challenge.DifficultyMedium

	maxTitleRunes       = 80
	maxDescriptionRunes = 500

	defaultDescription   = "Complete this challenge and upload a photo as proof."
	defaultDescriptionAr = "أكمل هذا التحدي وارفع صورة كدليل."
)

// RawChallenge is one item of model output before sanitizing. Numeric
// fields hold whatever JSON value the model produced.
type RawChallenge struct {
	Title          string
	TitleAr        string
	Description    string
	DescriptionAr  string
	Difficulty     string
	Icon           string
	Cost           any
	Reward         any
	FailurePenalty any
	TimeLimit      any
}

// UnmarshalJSON accepts snake_case and camelCase keys and never fails on a
// wrong field type; bad values are left for Sanitize to default.
func (r *RawChallenge) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	pick := func(keys ...string) any {
		for _, k := range keys {
			if v, ok := m[k]; ok && v != nil {
				return v
			}
		}
		return nil
	}
	text := func(keys ...string) string {
		if s, ok := pick(keys...).(string); ok {
			return s
		}
		return ""
	}

	*r = RawChallenge{
		Title:          text("title"),
		TitleAr:        text("title_ar", "titleAr"),
		Description:    text("description"),
		DescriptionAr:  text("description_ar", "descriptionAr"),
		Difficulty:     text("difficulty"),
		Icon:           text("icon"),
		Cost:           pick("cost"),
		Reward:         pick("reward"),
		FailurePenalty: pick("failure_penalty", "failurePenalty", "penalty"),
		TimeLimit:      pick("time_limit", "timeLimit", "time_limit_minutes"),
	}
	return nil
}

// Sanitize turns untrusted model output into a Definition that satisfies
// every guardrail. index picks the fallback icon and default title.
func Sanitize(raw RawChallenge, index int) challenge.Definition {
	title := clean(raw.Title, maxTitleRunes)
	if title == "" {
		title = fmt.Sprintf("Challenge %d", index+1)
	}
	titleAr := clean(raw.TitleAr, maxTitleRunes)
	if titleAr == "" {
		titleAr = fmt.Sprintf("تحدي %d", index+1)
	}
	desc := clean(raw.Description, maxDescriptionRunes)
	if desc == "" {
		desc = defaultDescription
	}
	descAr := clean(raw.DescriptionAr, maxDescriptionRunes)
	if descAr == "" {
		descAr = defaultDescriptionAr
	}

	difficulty := challenge.Difficulty(strings.ToLower(strings.TrimSpace(raw.Difficulty)))
	if !difficulty.Valid() {
		difficulty = DefaultDifficulty
	}

	icon := challenge.Icon(strings.ToLower(strings.TrimSpace(raw.Icon)))
	if !icon.Valid() {
		icon = fallbackIcon(index)
	}

	return challenge.Definition{
		Title:            title,
		TitleAr:          titleAr,
		Description:      desc,
		DescriptionAr:    descAr,
		Cost:             clampOr(raw.Cost, MinCost, MaxCost, DefaultCost),
		Reward:           clampOr(raw.Reward, MinReward, MaxReward, DefaultReward),
		FailurePenalty:   clampOr(raw.FailurePenalty, MinPenalty, MaxPenalty, DefaultPenalty),
		Difficulty:       difficulty,
		TimeLimitMinutes: clampOr(raw.TimeLimit, MinMinutes, MaxMinutes, DefaultMinutes),
		Icon:             icon,
		Source:           challenge.SourceAI,
	}
}

func fallbackIcon(index int) challenge.Icon {
	n := len(challenge.Icons)
	return challenge.Icons[((index%n)+n)%n]
}

func clampOr(v any, lo, hi, def int) int {
	n, ok := toInt(v)
	if !ok {
		return def
	}
	return min(max(n, lo), hi)
}

// toInt reads a JSON number or numeric string, rounding half away from zero.
func toInt(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		return x, true
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// keep the conversion in range before clamping
	f = math.Max(math.Min(math.Round(f), 1e9), -1e9)
	return int(f), true
}

func clean(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit]))
}
