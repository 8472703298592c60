package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoteMetrics holds Prometheus metrics for the vote pipeline.
type VoteMetrics struct {
	VotesProcessed *prometheus.CounterVec
	VotesByType    *prometheus.CounterVec
	CastDuration   prometheus.Histogram
	RetriesTotal   prometheus.Counter
}

// NewVoteMetrics creates and registers vote pipeline metrics on the given registry.
func NewVoteMetrics(reg prometheus.Registerer) *VoteMetrics {
	m := &VoteMetrics{
		VotesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_processed_total",
			Help:      "Total number of vote operations, by result.",
		}, []string{"result"}),
		VotesByType: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_by_type_total",
			Help:      "Total number of applied votes, by sentiment.",
		}, []string{"vote"}),
		CastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vote_cast_duration_seconds",
			Help:      "Duration of cast vote operations in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_tx_retries_total",
			Help:      "Total number of retried vote transactions.",
		}),
	}

	reg.MustRegister(m.VotesProcessed, m.VotesByType, m.CastDuration, m.RetriesTotal)
	return m
}

// Result labels for VotesProcessed.
const (
	ResultAccepted = "accepted"
	ResultChanged  = "changed"
	ResultNoOp     = "noop"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultDeleted  = "deleted"
)
