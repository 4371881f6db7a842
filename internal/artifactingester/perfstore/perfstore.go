package perfstore

import (
	"encoding/json"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/metrics"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/ingest"
	commonmetrics "github.com/jobartifacts/artifactingester/internal/common/ingest/metrics"
	"github.com/jobartifacts/artifactingester/internal/common/ingesterrors"
	"github.com/jobartifacts/artifactingester/internal/common/util"
)

const performanceQueuePrefix = "PerformanceArtifacts:"

type RetentionPolicy struct {
	ExpiryEnabled     bool
	RetentionDuration time.Duration
}

// PerformanceRecord is the entry queued for the performance subsystem.
type PerformanceRecord struct {
	JobId    int64                     `json:"job_id"`
	Artifact *model.CollectionArtifact `json:"artifact"`
}

// RedisPerformanceStore queues performance artifacts on one Redis list per project.
type RedisPerformanceStore struct {
	db          redis.UniversalClient
	retention   RetentionPolicy
	maxRows     int
	retryPolicy ingest.RetryPolicy
	metrics     *metrics.Metrics
}

func NewRedisPerformanceStore(
	db redis.UniversalClient,
	retention RetentionPolicy,
	maxRows int,
	retryPolicy ingest.RetryPolicy,
	metrics *metrics.Metrics,
) *RedisPerformanceStore {
	return &RedisPerformanceStore{
		db:          db,
		retention:   retention,
		maxRows:     maxRows,
		retryPolicy: retryPolicy,
		metrics:     metrics,
	}
}

// StorePerformanceArtifacts appends one record per artifact to the project's queue, preserving order.
// We never send more than maxRows records to redis at a time.
func (s *RedisPerformanceStore) StorePerformanceArtifacts(ctx *artifactcontext.Context, project string, jobIds []int64, artifacts []*model.CollectionArtifact) error {
	if len(jobIds) != len(artifacts) {
		return errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    "jobIds",
			Value:   len(jobIds),
			Message: "must have one job id per artifact",
		})
	}
	if len(artifacts) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(artifacts))
	for i, artifact := range artifacts {
		data, err := json.Marshal(&PerformanceRecord{JobId: jobIds[i], Artifact: artifact})
		if err != nil {
			return errors.WithStack(err)
		}
		rows = append(rows, data)
	}

	key := PerformanceQueueKey(project)
	for _, batch := range util.Batch(rows, s.maxRows) {
		start := time.Now()
		err := ingest.WithRetry(ctx, s.retryPolicy, func() (bool, error) {
			err := s.push(key, batch)
			if err != nil {
				s.metrics.RecordDBError(commonmetrics.DBOperationRedisPush)
			}
			return ingesterrors.IsNetworkError(err) || ingesterrors.IsRetryableRedisError(err), err
		})
		if err != nil {
			return errors.WithMessagef(err, "queueing performance artifacts on %s", key)
		}
		ctx.Log.Debugf("Queued %d performance artifacts in %s", len(batch), time.Since(start))
	}
	return nil
}

func (s *RedisPerformanceStore) push(key string, rows []interface{}) error {
	pipe := s.db.TxPipeline()
	pipe.RPush(key, rows...)
	if s.retention.ExpiryEnabled {
		pipe.Expire(key, s.retention.RetentionDuration)
	}
	_, err := pipe.Exec()
	return err
}

// Pending returns up to count records at the head of the project's queue without removing them.
func (s *RedisPerformanceStore) Pending(project string, count int64) ([]*PerformanceRecord, error) {
	values, err := s.db.LRange(PerformanceQueueKey(project), 0, count-1).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	records := make([]*PerformanceRecord, 0, len(values))
	for _, v := range values {
		record := &PerformanceRecord{}
		if err := json.Unmarshal([]byte(v), record); err != nil {
			return nil, errors.WithStack(err)
		}
		records = append(records, record)
	}
	return records, nil
}

func PerformanceQueueKey(project string) string {
	return performanceQueuePrefix + project
}
