package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	commonmetrics "github.com/jobartifacts/artifactingester/internal/common/ingest/metrics"
)

type DropReason string

const (
	DropReasonMalformed  DropReason = "malformed"
	DropReasonUnresolved DropReason = "unresolved_identity"
)

var (
	singleton     *Metrics
	singletonOnce sync.Once
	prefix        = commonmetrics.ArtifactIngesterMetricsPrefix
)

// Metrics adds artifact specific counters to the pipeline metrics.
type Metrics struct {
	*commonmetrics.Metrics
	droppedRecords    *prometheus.CounterVec
	dispatchedRecords *prometheus.CounterVec
	loadFailures      prometheus.Counter
}

// Get returns the process-wide metrics, registering them with the default registry on first use.
func Get() *Metrics {
	singletonOnce.Do(func() {
		singleton = New(prometheus.DefaultRegisterer)
	})
	return singleton
}

// New registers a fresh set of metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Metrics: commonmetrics.New(prefix, reg),
		droppedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "dropped_records",
			Help: "Number of artifact records skipped, grouped by reason",
		}, []string{"reason"}),
		dispatchedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "dispatched_records",
			Help: "Number of artifact records handed to storage, grouped by variant",
		}, []string{"variant"}),
		loadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "load_failures",
			Help: "Number of submissions that could not be loaded",
		}),
	}
}

func (m *Metrics) RecordDroppedRecord(reason DropReason) {
	m.droppedRecords.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) RecordDispatched(variant string, count int) {
	m.dispatchedRecords.WithLabelValues(variant).Add(float64(count))
}

func (m *Metrics) RecordLoadFailure() {
	m.loadFailures.Inc()
}
