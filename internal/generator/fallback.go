package generator

import "zcoinsAPI/internal/types/challenge"

// fallbackChallenges mirrors the static rows seeded by the first migration.
// Keep both in sync.
var fallbackChallenges = []challenge.Definition{
	{
		ID:               "static-morning-walk",
		Title:            "Morning Walk",
		TitleAr:          "نزهة صباحية",
		Description:      "Take a 15-minute walk outside and photograph the view.",
		DescriptionAr:    "امشِ 15 دقيقة في الخارج والتقط صورة للمنظر.",
		Cost:             1,
		Reward:           5,
		FailurePenalty:   1,
		Difficulty:       challenge.DifficultyEasy,
		TimeLimitMinutes: 60,
		Icon:             challenge.IconWalk,
		Source:           challenge.SourceStatic,
	},
	{
		ID:               "static-read-pages",
		Title:            "Read 10 Pages",
		TitleAr:          "اقرأ 10 صفحات",
		Description:      "Read ten pages of any book and photograph the page you stopped at.",
		DescriptionAr:    "اقرأ عشر صفحات من أي كتاب وصوّر الصفحة التي توقفت عندها.",
		Cost:             2,
		Reward:           8,
		FailurePenalty:   3,
		Difficulty:       challenge.DifficultyMedium,
		TimeLimitMinutes: 120,
		Icon:             challenge.IconBook,
		Source:           challenge.SourceStatic,
	},
	{
		ID:               "static-hydrate",
		Title:            "Drink Water",
		TitleAr:          "اشرب الماء",
		Description:      "Drink a full glass of water and photograph the empty glass.",
		DescriptionAr:    "اشرب كوبًا كاملًا من الماء وصوّر الكوب الفارغ.",
		Cost:             1,
		Reward:           3,
		FailurePenalty:   1,
		Difficulty:       challenge.DifficultyEasy,
		TimeLimitMinutes: 30,
		Icon:             challenge.IconWater,
		Source:           challenge.SourceStatic,
	},
	{
		ID:               "static-cook-meal",
		Title:            "Cook a Healthy Meal",
		TitleAr:          "اطبخ وجبة صحية",
		Description:      "Prepare a healthy meal at home and photograph the plate.",
		DescriptionAr:    "حضّر وجبة صحية في المنزل وصوّر الطبق.",
		Cost:             3,
		Reward:           15,
		FailurePenalty:   5,
		Difficulty:       challenge.DifficultyHard,
		TimeLimitMinutes: 180,
		Icon:             challenge.IconFood,
		Source:           challenge.SourceStatic,
	},
	{
		ID:               "static-plant-care",
		Title:            "Water a Plant",
		TitleAr:          "اسقِ نبتة",
		Description:      "Water a plant and photograph it.",
		DescriptionAr:    "اسقِ نبتة وصوّرها.",
		Cost:             1,
		Reward:           4,
		FailurePenalty:   1,
		Difficulty:       challenge.DifficultyEasy,
		TimeLimitMinutes: 30,
		Icon:             challenge.IconPlant,
		Source:           challenge.SourceStatic,
	},
}

// FallbackChallenges returns a fresh copy of the hand-authored list served
// when generation fails.
func FallbackChallenges() []challenge.Definition {
	out := make([]challenge.Definition, len(fallbackChallenges))
	copy(out, fallbackChallenges)
	return out
}
