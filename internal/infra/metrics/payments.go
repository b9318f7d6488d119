package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		chargesIssuedTotal,
		notificationsTotal,
		paymentsRevenueCents,
	)
}

var (
	chargesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pix_charges_issued_total",
			Help: "PIX charges requested at the provider, by result.",
		},
		[]string{"result"}, // ok | error
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Inbound payment notifications by disposition.",
		},
		[]string{"disposition"}, // applied | duplicate | pending | unknown_charge | invalid
	)

	paymentsRevenueCents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_revenue_cents_total",
			Help: "Total value of confirmed payments in centavos.",
		},
	)
)

func IncChargeIssued(result string) {
	chargesIssuedTotal.WithLabelValues(norm(result)).Inc()
}

func IncNotification(disposition string) {
	notificationsTotal.WithLabelValues(norm(disposition)).Inc()
}

func AddRevenueCents(amount int64) {
	paymentsRevenueCents.Add(float64(amount))
}
