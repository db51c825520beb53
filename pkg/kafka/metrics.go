package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProducerMessagesPublished counts the total number of messages published.
	ProducerMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_producer_messages_published_total",
			Help: "Total number of Kafka messages published",
		},
		[]string{"topic"},
	)

	// ProducerMessagesFailed counts publish attempts the broker rejected.
	ProducerMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_producer_messages_failed_total",
			Help: "Total number of Kafka messages that failed to publish",
		},
		[]string{"topic"},
	)

	// ProducerPublishDuration observes the duration of WriteMessages calls.
	ProducerPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Duration of Kafka publish calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	// ConsumerMessagesReceived counts messages fetched from the broker.
	ConsumerMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_received_total",
			Help: "Total number of Kafka messages fetched by consumers",
		},
		[]string{"topic", "consumer_group"},
	)

	// ConsumerMessagesProcessed counts messages the handler accepted.
	ConsumerMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_processed_total",
			Help: "Total number of Kafka messages processed successfully",
		},
		[]string{"topic", "consumer_group"},
	)

	// ConsumerMessagesFailed counts messages abandoned after retries.
	ConsumerMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_failed_total",
			Help: "Total number of Kafka messages whose handler failed permanently",
		},
		[]string{"topic", "consumer_group"},
	)

	// ConsumerMessagesDuplicate counts redeliveries skipped by IdempotentHandler.
	ConsumerMessagesDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_messages_duplicate_total",
			Help: "Total number of duplicate Kafka events skipped",
		},
		[]string{"event_type"},
	)

	// ConsumerDLQPublished counts messages forwarded to a dead-letter topic.
	ConsumerDLQPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_dlq_published_total",
			Help: "Total number of Kafka messages sent to a dead-letter topic",
		},
		[]string{"topic", "consumer_group"},
	)

	// ConsumerProcessingDuration observes handler time per message.
	ConsumerProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_consumer_processing_duration_seconds",
			Help:    "Duration of Kafka message handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic", "consumer_group"},
	)
)
