package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBOperation string

const (
	DBOperationRead            DBOperation = "read"
	DBOperationInsert          DBOperation = "insert"
	DBOperationCreateTempTable DBOperation = "create_temp_table"
	DBOperationRedisPush       DBOperation = "redis_push"
)

type PulsarMessageError string

const (
	PulsarMessageErrorDeserialization PulsarMessageError = "deserialization"
	PulsarMessageErrorProcessing      PulsarMessageError = "processing"
)

const ArtifactIngesterMetricsPrefix = "artifact_ingester_"

// Metrics are the counters shared by every stage of an ingestion pipeline.
type Metrics struct {
	dbErrors              *prometheus.CounterVec
	pulsarConnectionError prometheus.Counter
	pulsarMessageError    *prometheus.CounterVec
	storedMessages        prometheus.Counter
	batchSize             prometheus.Histogram
}

// New registers the pipeline metrics with reg, each name starting with prefix.
func New(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		dbErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "db_errors",
			Help: "Number of database errors grouped by database operation",
		}, []string{"operation"}),
		pulsarMessageError: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "pulsar_message_errors",
			Help: "Number of Pulsar message errors grouped by error type",
		}, []string{"error"}),
		pulsarConnectionError: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "pulsar_connection_errors",
			Help: "Number of Pulsar connection errors",
		}),
		storedMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "stored_messages",
			Help: "Number of Pulsar messages whose batch reached the sink without error",
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "batch_messages",
			Help:    "Number of Pulsar messages per batch handed to the sink",
			Buckets: prometheus.ExponentialBuckets(1, 4, 7),
		}),
	}
}

func (m *Metrics) RecordDBError(operation DBOperation) {
	m.dbErrors.WithLabelValues(string(operation)).Inc()
}

func (m *Metrics) RecordPulsarMessageError(reason PulsarMessageError) {
	m.pulsarMessageError.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) RecordPulsarConnectionError() {
	m.pulsarConnectionError.Inc()
}

// RecordBatchStored observes a batch of size messages that the sink accepted.
func (m *Metrics) RecordBatchStored(size int) {
	m.batchSize.Observe(float64(size))
	m.storedMessages.Add(float64(size))
}
