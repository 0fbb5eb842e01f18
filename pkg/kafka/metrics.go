package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes used as the "outcome" label.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_producer_publish_total",
			Help: "Kafka publish attempts by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Duration of Kafka publish operations in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2},
		},
		[]string{"topic"},
	)
)

func observePublish(topic string, start time.Time, err error) {
	publishDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	publishTotal.WithLabelValues(topic, outcome).Inc()
}
