package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsObserved counts every settlement record fed to the engine,
	// labeled by source channel.
	SettlementsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saldobot_settlements_observed_total",
		Help: "Settlement records delivered to the reconciliation engine.",
	}, []string{"channel"})

	// CreditsApplied counts settlements that resulted in a wallet credit.
	CreditsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saldobot_credits_applied_total",
		Help: "Settlements that credited a wallet exactly once.",
	}, []string{"channel"})

	// Orphans counts settlements matching no pending intent.
	Orphans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saldobot_settlements_orphaned_total",
		Help: "Settlement records that matched no pending deposit intent.",
	}, []string{"channel"})

	// Duplicates counts redelivered settlements dropped by the idempotency guard.
	Duplicates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saldobot_settlements_duplicate_total",
		Help: "Settlement redeliveries discarded without crediting.",
	}, []string{"channel"})

	// IntentsExpired counts deposit intents reaped after their payment window.
	IntentsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saldobot_deposit_intents_expired_total",
		Help: "Deposit intents expired unmatched.",
	})

	// FeedTickErrors counts settlement feed ticks that failed to fetch or parse.
	FeedTickErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saldobot_feed_tick_errors_total",
		Help: "Settlement feed poll ticks skipped due to fetch or parse failure.",
	})

	// ManualReviewFlags counts credits abandoned after a retried transaction failure.
	ManualReviewFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saldobot_manual_review_flags_total",
		Help: "Settlements flagged for manual reconciliation after transaction failures.",
	})
)
