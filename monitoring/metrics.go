package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_admissions_total",
			Help: "Admission decisions by outcome",
		},
		[]string{"outcome"},
	)

	paymentWebhooks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Payment gateway callbacks by result",
		},
		[]string{"result"},
	)

	badgeScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_scans_total",
			Help: "Badge scans by result",
		},
		[]string{"result"},
	)

	waitlistPromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waitlist_promotions_total",
			Help: "Waitlist entries promoted to a seat",
		},
	)
)

func RecordAdmission(outcome string) {
	admissions.WithLabelValues(outcome).Inc()
}

func RecordPaymentWebhook(result string) {
	paymentWebhooks.WithLabelValues(result).Inc()
}

func RecordBadgeScan(result string) {
	badgeScans.WithLabelValues(result).Inc()
}

func RecordWaitlistPromotion() {
	waitlistPromotions.Inc()
}
