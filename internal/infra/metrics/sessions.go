package metrics

import (
	"hotspot-pix-portal/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		sessionsCreatedTotal,
		sessionsTransitionsTotal,
		sessionsByStatus,
		sessionsSweptTotal,
	)
}

var (
	sessionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucher_sessions_created_total",
			Help: "Voucher sessions created, labeled by plan.",
		},
		[]string{"plan"},
	)

	sessionsTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucher_session_transitions_total",
			Help: "State machine transitions by resulting status.",
		},
		[]string{"to"},
	)

	sessionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voucher_sessions",
			Help: "Current number of stored sessions by status.",
		},
		[]string{"status"},
	)

	sessionsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voucher_sessions_swept_total",
			Help: "Terminal sessions evicted by the retention sweep.",
		},
	)
)

func IncSessionCreated(planID string) {
	sessionsCreatedTotal.WithLabelValues(norm(planID)).Inc()
}

func IncSessionTransition(to model.SessionStatus) {
	sessionsTransitionsTotal.WithLabelValues(string(to)).Inc()
}

func SetSessionsByStatus(counts map[model.SessionStatus]int) {
	statuses := []model.SessionStatus{
		model.SessionStatusPending,
		model.SessionStatusProcessing,
		model.SessionStatusCompleted,
		model.SessionStatusExpired,
	}
	for _, status := range statuses {
		sessionsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func AddSessionsSwept(count int) {
	sessionsSweptTotal.Add(float64(count))
}
