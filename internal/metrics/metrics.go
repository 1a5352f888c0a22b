// Package metrics holds the prometheus collectors for the game domain. HTTP
// request metrics live in the middleware package.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ChallengeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_attempts_total",
			Help: "Challenge workflow transitions by outcome",
		},
		[]string{"outcome"}, // started, scheduled, completed, failed, refunded, expired
	)
	LedgerMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Balance mutations applied to user ledgers",
		},
		[]string{"kind", "currency"}, // kind: spend, credit, debit
	)
	OracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Latency of calls to the remote AI functions",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 90},
		},
		[]string{"call", "result"},
	)
	GeneratorFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_generator_fallbacks_total",
			Help: "Generator runs that returned the built-in fallback list",
		},
	)
	ShopPurchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_purchases_total",
			Help: "Shop purchase attempts by result",
		},
		[]string{"result"},
	)
	RemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_dispatched_total",
			Help: "Push reminders by delivery result",
		},
		[]string{"result"},
	)
)

// Register adds the domain collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		ChallengeAttempts,
		LedgerMutations,
		OracleDuration,
		GeneratorFallbacks,
		ShopPurchases,
		RemindersSent,
	)
}
