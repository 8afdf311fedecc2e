package observability

import (
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messenger_queries_total",
			Help: "Total number of store queries issued by the messenger library.",
		},
		[]string{"op", "status"},
	)
	queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messenger_query_duration_seconds",
			Help:    "Store query latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	transactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messenger_transactions_total",
			Help: "Total number of store transactions, by outcome.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		queriesTotal,
		queryDuration,
		transactionsTotal,
	)
}

// ObserveQuery starts timing a store operation and returns the function to
// call once it finishes. A sql.ErrNoRows result is recorded as not_found
// rather than error since the repositories treat it as an expected outcome.
func ObserveQuery(op string) func(err error) {
	start := time.Now()
	return func(err error) {
		status := "ok"
		switch {
		case errors.Is(err, sql.ErrNoRows):
			status = "not_found"
		case err != nil:
			status = "error"
		}
		queriesTotal.WithLabelValues(op, status).Inc()
		queryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// ObserveTransaction records a transaction outcome.
func ObserveTransaction(committed bool) {
	status := "committed"
	if !committed {
		status = "rolled_back"
	}
	transactionsTotal.WithLabelValues(status).Inc()
}
