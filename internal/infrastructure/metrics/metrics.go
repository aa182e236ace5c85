package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the business-level Prometheus metrics. Transport-level
// metrics (request counts, latency) live in the HTTP middleware.
type Metrics struct {
	// Entry metrics
	DraftsCreated   prometheus.Counter
	EntriesPosted   prometheus.Counter
	EntriesReversed prometheus.Counter
	PostDuration    prometheus.Histogram
	EntryErrors     *prometheus.CounterVec

	// Account metrics
	AccountsCreated     prometheus.Counter
	AccountsDeactivated prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns       prometheus.Counter
	CandidatesGenerated      prometheus.Histogram
	ReconciliationsCommitted *prometheus.CounterVec
	MatchScores              prometheus.Histogram
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DraftsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_entry_drafts_created_total",
			Help: "Total number of draft entries created",
		}),
		EntriesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_entries_posted_total",
			Help: "Total number of entries posted",
		}),
		EntriesReversed: factory.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_entries_reversed_total",
			Help: "Total number of entries reversed",
		}),
		PostDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finbooks_entry_post_duration_seconds",
			Help:    "Duration of entry posting",
			Buckets: prometheus.DefBuckets,
		}),
		EntryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbooks_entry_errors_total",
				Help: "Total number of failed entry operations",
			},
			[]string{"operation"},
		),

		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_accounts_deactivated_total",
			Help: "Total number of accounts deactivated",
		}),

		ReconciliationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_reconciliation_runs_total",
			Help: "Total number of candidate generation runs",
		}),
		CandidatesGenerated: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finbooks_reconciliation_candidates",
			Help:    "Candidates surfaced per reconciliation run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		ReconciliationsCommitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbooks_reconciliations_committed_total",
				Help: "Total number of committed reconciliations",
			},
			[]string{"mode"},
		),
		MatchScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finbooks_reconciliation_match_score",
			Help:    "Match scores of committed reconciliations",
			Buckets: []float64{0.8, 0.85, 0.9, 0.95, 0.99, 1},
		}),
	}
}
