package configuration

import (
	"time"

	commonconfig "github.com/jobartifacts/artifactingester/internal/common/config"
	"github.com/jobartifacts/artifactingester/internal/common/ingest"
)

type ArtifactIngesterConfiguration struct {
	// Database holding the job and job_artifact tables
	Postgres commonconfig.PostgresConfig
	// Redis instance performance artifacts are queued on
	Redis commonconfig.RedisConfig
	// General Pulsar configuration
	Pulsar commonconfig.PulsarConfig
	// Metrics and health endpoint configuration
	Metrics commonconfig.MetricsConfig
	Logging commonconfig.LoggingConfig
	// Topic artifact submissions are read from
	ArtifactsTopic string `validate:"required"`
	// Pulsar subscription name
	SubscriptionName string `validate:"required"`
	// Number of messages that will be batched together before being inserted into the database
	BatchSize int `validate:"gt=0"`
	// Maximum time since the last batch before a batch will be inserted into the database
	BatchDuration time.Duration `validate:"gt=0"`
	// Artifact names routed to the performance subsystem
	PerformanceArtifactNames []string `validate:"required,dive,required"`
	// zlib level used for artifact blobs, -1 being the zlib default
	CompressionLevel int `validate:"gte=-2,lte=9"`
	// Number of resolved job guids remembered between batches
	JobLookupCacheSize int `validate:"gt=0"`
	// Time after which queued performance artifacts are deleted
	PerformanceRetentionPolicy PerformanceRetentionPolicy
	// Max number of performance artifacts sent to redis at a time
	MaxPerformanceRowsPerInsert int `validate:"gt=0"`
	// Backoff applied to retryable database and redis errors
	Retry RetryConfig
	// Port the artifact read api listens on. Zero disables it.
	HttpPort uint16
}

type PerformanceRetentionPolicy struct {
	ExpiryEnabled     bool
	RetentionDuration time.Duration `validate:"required_if=ExpiryEnabled true"`
}

type RetryConfig struct {
	InitialBackoff time.Duration `validate:"gt=0"`
	MaxBackoff     time.Duration `validate:"gtefield=InitialBackoff"`
	// Zero means retry until shutdown
	MaxAttempts int `validate:"gte=0"`
}

func (r RetryConfig) Policy() ingest.RetryPolicy {
	return ingest.RetryPolicy{
		InitialBackoff: r.InitialBackoff,
		MaxBackoff:     r.MaxBackoff,
		MaxAttempts:    r.MaxAttempts,
	}
}
