package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	producerPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_producer_messages_published_total",
		Help: "Kafka messages published successfully",
	}, []string{"topic"})

	producerFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_producer_messages_failed_total",
		Help: "Kafka messages that could not be published, including breaker rejections",
	}, []string{"topic"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kafka_producer_breaker_state",
		Help: "Producer circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
)
