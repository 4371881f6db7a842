package artifactingester

import (
	"github.com/go-redis/redis"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/artifactdb"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/classify"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/configuration"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/identity"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/instructions"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/loader"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/metrics"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/perfstore"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/schema"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/server"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/wire"
	"github.com/jobartifacts/artifactingester/internal/common"
	"github.com/jobartifacts/artifactingester/internal/common/app"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/compress"
	"github.com/jobartifacts/artifactingester/internal/common/database"
	"github.com/jobartifacts/artifactingester/internal/common/health"
	"github.com/jobartifacts/artifactingester/internal/common/ingest"
)

// Stores holds the connections artifacts are loaded into.
type Stores struct {
	Db          *pgxpool.Pool
	Redis       redis.UniversalClient
	Artifacts   *artifactdb.ArtifactDb
	Performance *perfstore.RedisPerformanceStore
}

// OpenStores connects to postgres and redis. Close must be called once the stores are no longer needed.
func OpenStores(config *configuration.ArtifactIngesterConfiguration, m *metrics.Metrics) (*Stores, error) {
	log.Infof("Opening connection pool to postgres")
	db, err := database.OpenPgxPool(config.Postgres)
	if err != nil {
		return nil, errors.WithMessage(err, "Error opening connection to postgres")
	}
	redisClient := redis.NewUniversalClient(config.Redis.AsUniversalOptions())
	retention := perfstore.RetentionPolicy{
		ExpiryEnabled:     config.PerformanceRetentionPolicy.ExpiryEnabled,
		RetentionDuration: config.PerformanceRetentionPolicy.RetentionDuration,
	}
	return &Stores{
		Db:          db,
		Redis:       redisClient,
		Artifacts:   artifactdb.NewArtifactDb(db, m, config.Retry.Policy()),
		Performance: perfstore.NewRedisPerformanceStore(redisClient, retention, config.MaxPerformanceRowsPerInsert, config.Retry.Policy(), m),
	}, nil
}

func (s *Stores) Close() {
	s.Db.Close()
	if err := s.Redis.Close(); err != nil {
		log.WithError(err).Warn("Error closing redis client")
	}
}

// Ping checks postgres and redis concurrently.
func (s *Stores) Ping(ctx *artifactcontext.Context) error {
	g, gctx := artifactcontext.ErrGroup(ctx)
	g.Go(func() error {
		return errors.WithMessage(s.Db.Ping(gctx), "Error connecting to postgres")
	})
	g.Go(func() error {
		return errors.WithMessage(s.Redis.Ping().Err(), "Error connecting to redis")
	})
	return g.Wait()
}

// NewLoader builds an ArtifactLoader dispatching to stores.
func NewLoader(config *configuration.ArtifactIngesterConfiguration, stores *Stores, m *metrics.Metrics) (*loader.ArtifactLoader, error) {
	compressor, err := compress.NewThreadSafeZlibCompressor(config.CompressionLevel)
	if err != nil {
		return nil, errors.WithMessage(err, "Error creating compressor")
	}
	converter := instructions.NewInstructionConverter(classify.NewClassifier(config.PerformanceArtifactNames), compressor, m)
	return loader.NewArtifactLoader(converter, loader.NewStorageSink(stores.Artifacts, stores.Performance), m), nil
}

// Run will create a pipeline that will take artifact submissions from Pulsar and store them in postgres and redis.
// This pipeline will run until a SIGTERM is received
func Run(config *configuration.ArtifactIngesterConfiguration) error {
	ctx := app.CreateContextWithShutdown()
	m := metrics.Get()

	stores, err := OpenStores(config, m)
	if err != nil {
		return err
	}
	defer stores.Close()

	if err := stores.Ping(ctx); err != nil {
		return err
	}
	if err := schema.Migrate(ctx, stores.Db); err != nil {
		return errors.WithMessage(err, "Error migrating database")
	}

	artifactLoader, err := NewLoader(config, stores, m)
	if err != nil {
		return err
	}
	lookup, err := identity.NewJobLookup(stores.Artifacts, config.JobLookupCacheSize)
	if err != nil {
		return errors.WithMessage(err, "Error creating job lookup")
	}

	startupCompleteCheck := &health.StartupCompleteChecker{}
	healthChecks := health.NewMultiChecker(
		startupCompleteCheck,
		health.FuncChecker(func() error { return stores.Db.Ping(ctx) }),
		health.FuncChecker(func() error { return stores.Redis.Ping().Err() }),
	)
	shutdownMetricServer := common.ServeMetrics(config.Metrics.Port, healthChecks)
	defer shutdownMetricServer()

	if config.HttpPort != 0 {
		artifactServer := server.NewArtifactServer(stores.Artifacts, compress.NewThreadSafeZlibDecompressor())
		shutdownHttpServer := common.ServeHttp(config.HttpPort, artifactServer.Handler())
		defer shutdownHttpServer()
	}

	pipeline := ingest.NewIngestionPipeline[*model.Submission, *model.SubmissionBatch](
		config.Pulsar,
		config.ArtifactsTopic,
		config.SubscriptionName,
		config.BatchSize,
		config.BatchDuration,
		wire.DecodeSubmission,
		SubmissionConverter{},
		NewSubmissionSink(lookup, artifactLoader, m),
		m.Metrics,
	)

	startupCompleteCheck.MarkComplete()
	if err := pipeline.Run(ctx); err != nil {
		return errors.WithMessage(err, "Error running ingestion pipeline")
	}
	return nil
}

// Migrate brings the artifact database up to date and exits.
func Migrate(config *configuration.ArtifactIngesterConfiguration) error {
	db, err := database.OpenPgxPool(config.Postgres)
	if err != nil {
		return errors.WithMessage(err, "Error opening connection to postgres")
	}
	defer db.Close()
	return schema.Migrate(artifactcontext.Background(), db)
}
