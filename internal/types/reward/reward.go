package reward

import "time"

const (
	Cooldown     = 20 * time.Hour
	StreakWindow = 48 * time.Hour
	// WeeklyZgold is added on every seventh consecutive claim.
	WeeklyZgold = 1
)

// DailyZcoins is indexed by (streak-1) % 7.
var DailyZcoins = [7]int{5, 5, 10, 10, 15, 15, 25}

// ZcoinsForStreak returns the zcoins paid for the claim that reaches streak.
func ZcoinsForStreak(streak int) int {
	if streak < 1 {
		streak = 1
	}
	return DailyZcoins[(streak-1)%len(DailyZcoins)]
}

// ZgoldForStreak is WeeklyZgold on day 7, 14, 21 and so on.
func ZgoldForStreak(streak int) int {
	if streak > 0 && streak%len(DailyZcoins) == 0 {
		return WeeklyZgold
	}
	return 0
}

type Status struct {
	Available     bool       `json:"available"`
	Streak        int        `json:"streak"`
	NextStreak    int        `json:"next_streak"`
	NextZcoins    int        `json:"next_zcoins"`
	NextZgold     int        `json:"next_zgold"`
	LastClaimedAt *time.Time `json:"last_claimed_at,omitempty"`
	NextClaimAt   *time.Time `json:"next_claim_at,omitempty"`
	ClaimCount    int        `json:"claim_count"`
}

type Claim struct {
	Streak        int       `json:"streak"`
	ZcoinsAwarded int       `json:"zcoins_awarded"`
	ZgoldAwarded  int       `json:"zgold_awarded"`
	Zcoins        int       `json:"zcoins"`
	Zgold         int       `json:"zgold"`
	ClaimedAt     time.Time `json:"claimed_at"`
}

// NextStreak continues the streak when the previous claim is recent enough
// and restarts it otherwise. last is nil for a first claim.
func NextStreak(last *time.Time, streak int, now time.Time) int {
	if last == nil || now.Sub(*last) > StreakWindow {
		return 1
	}
	return streak + 1
}
