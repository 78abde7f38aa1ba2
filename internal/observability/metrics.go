package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oua",
		Subsystem: "activities",
		Name:      "writes_total",
		Help:      "Activity writes by operation and result.",
	}, []string{"op", "result"})
	activityRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oua",
		Subsystem: "activities",
		Name:      "rejections_total",
		Help:      "Activity writes rejected by a validation rule, by error code.",
	}, []string{"code"})
	lastWriteGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oua",
		Subsystem: "activities",
		Name:      "last_write_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed activity write.",
	})
	webhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oua",
		Subsystem: "webhooks",
		Name:      "deliveries_total",
		Help:      "Webhook delivery attempts by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(activityWrites, activityRejections, lastWriteGauge, webhookDeliveries)
}

// RecordWrite counts a committed activity write and moves the watermark.
func RecordWrite(op string, ts time.Time) {
	activityWrites.WithLabelValues(op, "ok").Inc()
	if !ts.IsZero() {
		lastWriteGauge.Set(float64(ts.Unix()))
	}
}

// RecordRejection counts a write refused with the given error code.
func RecordRejection(op, code string) {
	activityWrites.WithLabelValues(op, "rejected").Inc()
	activityRejections.WithLabelValues(code).Inc()
}

// RecordFailure counts a write that failed for a non-domain reason.
func RecordFailure(op string) {
	activityWrites.WithLabelValues(op, "error").Inc()
}

func RecordWebhookDelivery(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	webhookDeliveries.WithLabelValues(result).Inc()
}
