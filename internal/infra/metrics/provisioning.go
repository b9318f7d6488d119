package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		grantsTotal,
		grantRetriesTotal,
		provisioningStuck,
	)
}

var (
	grantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_grants_total",
			Help: "Router provisioning grants by result.",
		},
		[]string{"result"}, // ok | error
	)

	grantRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "router_grant_retries_total",
			Help: "Grant attempts beyond the first, across all sessions.",
		},
	)

	// provisioningStuck is the operator alert for paid sessions whose
	// activation exhausted the retry budget. Anything above zero needs a
	// human: money was received and the obligation is outstanding.
	provisioningStuck = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "provisioning_stuck_sessions_total",
			Help: "Paid sessions left in processing after grant retries were exhausted.",
		},
	)
)

func IncGrant(result string) {
	grantsTotal.WithLabelValues(norm(result)).Inc()
}

func IncGrantRetry() {
	grantRetriesTotal.Inc()
}

func IncProvisioningStuck() {
	provisioningStuck.Inc()
}
