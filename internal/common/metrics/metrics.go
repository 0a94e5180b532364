// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoresCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_scores_calculated_total",
			Help: "Total number of match scores calculated",
		},
		[]string{"trigger"},
	)

	ScoreCalculationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_score_calculations_failed_total",
			Help: "Total number of failed match score calculations",
		},
		[]string{"trigger", "error_code"},
	)

	PerfectMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_perfect_matches_total",
			Help: "Total number of scores classified as perfect matches",
		},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "match_batch_duration_seconds",
			Help: "Duration of batch recalculation runs in seconds",
		},
		[]string{"operation"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_notifications_sent_total",
			Help: "Total number of match notifications sent",
		},
		[]string{"kind"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_notifications_failed_total",
			Help: "Total number of match notification delivery failures",
		},
		[]string{"kind"},
	)

	CleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_cleanup_deleted_total",
			Help: "Total number of expired match scores deleted",
		},
	)
)
