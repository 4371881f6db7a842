package artifactdb

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/metrics"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/database"
	"github.com/jobartifacts/artifactingester/internal/common/ingest"
	commonmetrics "github.com/jobartifacts/artifactingester/internal/common/ingest/metrics"
	"github.com/jobartifacts/artifactingester/internal/common/ingesterrors"
)

const upsertArtifactSql = `
	INSERT INTO job_artifact (job_id, name, type, blob) VALUES ($1, $2, $3, $4)
	ON CONFLICT (job_id, name) DO UPDATE SET type = EXCLUDED.type, blob = EXCLUDED.blob`

// ArtifactDb stores job artifacts in, and reads them back from, the job_artifact table.
type ArtifactDb struct {
	db          *pgxpool.Pool
	metrics     *metrics.Metrics
	retryPolicy ingest.RetryPolicy
}

func NewArtifactDb(db *pgxpool.Pool, metrics *metrics.Metrics, retryPolicy ingest.RetryPolicy) *ArtifactDb {
	return &ArtifactDb{db: db, metrics: metrics, retryPolicy: retryPolicy}
}

// StoreJobArtifacts inserts or updates one row per distinct upsert key. Where a key appears more than once the last
// instruction wins.
// We first try to batch insert the rows using the postgres copy protocol. If this fails then we try a slower, serial
// insert and report every row that could not be inserted.
func (a *ArtifactDb) StoreJobArtifacts(ctx *artifactcontext.Context, project string, instructions []*model.StoreArtifactInstruction) error {
	if len(instructions) == 0 {
		return nil
	}
	instructions = conflateArtifacts(instructions)

	err := a.StoreJobArtifactsBatch(ctx, instructions)
	if err != nil {
		ctx.Log.Warnf("Storing %d artifacts for %s via batch failed, will attempt to insert serially (this might be slow).  Error was %+v",
			len(instructions), project, err)
		return a.StoreJobArtifactsScalar(ctx, instructions)
	}
	return nil
}

func (a *ArtifactDb) StoreJobArtifactsBatch(ctx *artifactcontext.Context, instructions []*model.StoreArtifactInstruction) error {
	return a.withDatabaseRetry(ctx, func() error {
		tmpTable := database.UniqueTableName("job_artifact")

		createTmp := func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, fmt.Sprintf(`
				CREATE TEMPORARY TABLE %s
				(
					job_id bigint,
					name   varchar(50),
					type   varchar(50),
					blob   bytea
				) ON COMMIT DROP;`, tmpTable))
			if err != nil {
				a.metrics.RecordDBError(commonmetrics.DBOperationCreateTempTable)
			}
			return err
		}

		insertTmp := func(tx pgx.Tx) error {
			_, err := tx.CopyFrom(ctx,
				pgx.Identifier{tmpTable},
				[]string{"job_id", "name", "type", "blob"},
				pgx.CopyFromSlice(len(instructions), func(i int) ([]interface{}, error) {
					return []interface{}{
						instructions[i].JobId,
						instructions[i].Name,
						instructions[i].Type,
						instructions[i].Blob,
					}, nil
				}),
			)
			return err
		}

		copyToDest := func(tx pgx.Tx) error {
			_, err := tx.Exec(
				ctx,
				fmt.Sprintf(`
					INSERT INTO job_artifact (job_id, name, type, blob) SELECT job_id, name, type, blob FROM %s
					ON CONFLICT (job_id, name) DO UPDATE SET type = EXCLUDED.type, blob = EXCLUDED.blob`, tmpTable),
			)
			if err != nil {
				a.metrics.RecordDBError(commonmetrics.DBOperationInsert)
			}
			return err
		}

		return batchInsert(ctx, a.db, createTmp, insertTmp, copyToDest)
	})
}

// StoreJobArtifactsScalar inserts artifacts one by one, carrying on past rows that fail.
func (a *ArtifactDb) StoreJobArtifactsScalar(ctx *artifactcontext.Context, instructions []*model.StoreArtifactInstruction) error {
	var result *multierror.Error
	for _, i := range instructions {
		err := a.withDatabaseRetry(ctx, func() error {
			_, err := a.db.Exec(ctx, upsertArtifactSql, i.JobId, i.Name, i.Type, i.Blob)
			if err != nil {
				a.metrics.RecordDBError(commonmetrics.DBOperationInsert)
			}
			return err
		})
		if err != nil {
			ctx.Log.Warnf("Store artifact %s for job %d failed with error %+v", i.Name, i.JobId, err)
			result = multierror.Append(result, errors.WithMessagef(err, "artifact %s of job %d", i.Name, i.JobId))
		}
	}
	return result.ErrorOrNil()
}

// GetJobIds returns the ids of the jobs of project with the given guids. Unknown guids are left out.
func (a *ArtifactDb) GetJobIds(ctx *artifactcontext.Context, project string, guids []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(guids))
	if len(guids) == 0 {
		return ids, nil
	}
	err := a.withDatabaseRetry(ctx, func() error {
		rows, err := a.db.Query(ctx, `SELECT job_guid, id FROM job WHERE project = $1 AND job_guid = ANY($2)`, project, guids)
		if err != nil {
			a.metrics.RecordDBError(commonmetrics.DBOperationRead)
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var guid string
			var id int64
			if err := rows.Scan(&guid, &id); err != nil {
				return err
			}
			ids[guid] = id
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ids, nil
}

func (a *ArtifactDb) withDatabaseRetry(ctx *artifactcontext.Context, executeDb func() error) error {
	return ingest.WithRetry(ctx, a.retryPolicy, func() (bool, error) {
		err := executeDb()
		return ingesterrors.IsNetworkError(err) || ingesterrors.IsRetryablePostgresError(err), err
	})
}

func batchInsert(ctx *artifactcontext.Context, db *pgxpool.Pool, createTmp func(pgx.Tx) error,
	insertTmp func(pgx.Tx) error, copyToDest func(pgx.Tx) error,
) error {
	return pgx.BeginTxFunc(ctx, db, pgx.TxOptions{
		IsoLevel:       pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.Deferrable,
	}, func(tx pgx.Tx) error {
		// Create a temporary table to hold the staging data
		err := createTmp(tx)
		if err != nil {
			return err
		}

		err = insertTmp(tx)
		if err != nil {
			return err
		}

		return copyToDest(tx)
	})
}

// conflateArtifacts keeps the last instruction for each upsert key, in the position of the key's first occurrence.
// Instructions are then conflated again on the row they write, (job_id, name), as a single
// INSERT ... ON CONFLICT DO UPDATE cannot touch the same row twice.
func conflateArtifacts(instructions []*model.StoreArtifactInstruction) []*model.StoreArtifactInstruction {
	byKey := conflateBy(instructions, func(i *model.StoreArtifactInstruction) model.UpsertKey { return i.Key })
	return conflateBy(byKey, func(i *model.StoreArtifactInstruction) model.UpsertKey {
		return model.UpsertKey{JobId: i.JobId, Name: i.Name}
	})
}

func conflateBy(instructions []*model.StoreArtifactInstruction, key func(*model.StoreArtifactInstruction) model.UpsertKey) []*model.StoreArtifactInstruction {
	positions := make(map[model.UpsertKey]int, len(instructions))
	conflated := make([]*model.StoreArtifactInstruction, 0, len(instructions))
	for _, instruction := range instructions {
		k := key(instruction)
		if pos, ok := positions[k]; ok {
			conflated[pos] = instruction
			continue
		}
		positions[k] = len(conflated)
		conflated = append(conflated, instruction)
	}
	return conflated
}
