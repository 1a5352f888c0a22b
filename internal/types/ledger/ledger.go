package ledger

import "time"

type Currency string

const (
	Zcoins Currency = "zcoins"
	Zgold  Currency = "zgold"
)

func (c Currency) Valid() bool {
	return c == Zcoins || c == Zgold
}

// Balance is the per-user ledger row. Balances are never negative.
type Balance struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Zcoins    int       `json:"zcoins" db:"zcoins"`
	Zgold     int       `json:"zgold" db:"zgold"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (b Balance) Of(c Currency) int {
	if c == Zgold {
		return b.Zgold
	}
	return b.Zcoins
}
