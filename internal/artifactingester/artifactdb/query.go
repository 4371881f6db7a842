package artifactdb

import (
	"strconv"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/filter"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	commonmetrics "github.com/jobartifacts/artifactingester/internal/common/ingest/metrics"
	"github.com/jobartifacts/artifactingester/internal/common/ingesterrors"
)

var (
	dialect = goqu.Dialect("postgres")

	jobTable         = goqu.T("job")
	jobArtifactTable = goqu.T("job_artifact")

	job_id      = goqu.I("job.id")
	job_project = goqu.I("job.project")

	jobArtifact_id    = goqu.I("job_artifact.id")
	jobArtifact_jobId = goqu.I("job_artifact.job_id")
	jobArtifact_name  = goqu.I("job_artifact.name")
	jobArtifact_type  = goqu.I("job_artifact.type")
	jobArtifact_blob  = goqu.I("job_artifact.blob")
)

type column struct {
	identifier exp.IdentifierExpression
	numeric    bool
}

// Columns the read path may filter on.
var filterableColumns = map[string]column{
	"id":     {identifier: jobArtifact_id, numeric: true},
	"job_id": {identifier: jobArtifact_jobId, numeric: true},
	"name":   {identifier: jobArtifact_name},
	"type":   {identifier: jobArtifact_type},
}

// GetJobArtifacts returns up to count artifacts of project matching every condition, ordered by id and skipping the
// first offset matches.
func (a *ArtifactDb) GetJobArtifacts(ctx *artifactcontext.Context, project string, conditions []filter.Condition, offset, count int) ([]*model.JobArtifact, error) {
	ds, err := createArtifactsDataset(project, conditions, offset, count)
	if err != nil {
		return nil, err
	}
	sql, args, err := ds.ToSQL()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var artifacts []*model.JobArtifact
	err = a.withDatabaseRetry(ctx, func() error {
		artifacts = nil
		rows, err := a.db.Query(ctx, sql, args...)
		if err != nil {
			a.metrics.RecordDBError(commonmetrics.DBOperationRead)
			return err
		}
		defer rows.Close()
		for rows.Next() {
			artifact := &model.JobArtifact{}
			if err := rows.Scan(&artifact.Id, &artifact.JobId, &artifact.Name, &artifact.Type, &artifact.Blob); err != nil {
				return err
			}
			artifacts = append(artifacts, artifact)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return artifacts, nil
}

func createArtifactsDataset(project string, conditions []filter.Condition, offset, count int) (*goqu.SelectDataset, error) {
	if offset < 0 {
		return nil, errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    "offset",
			Value:   offset,
			Message: "must not be negative",
		})
	}
	if count <= 0 {
		return nil, errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    "count",
			Value:   count,
			Message: "must be positive",
		})
	}

	where := []exp.Expression{job_project.Eq(project)}
	for _, condition := range conditions {
		expression, err := conditionExpression(condition)
		if err != nil {
			return nil, err
		}
		where = append(where, expression)
	}

	ds := dialect.
		From(jobArtifactTable).
		InnerJoin(jobTable, goqu.On(job_id.Eq(jobArtifact_jobId))).
		Select(jobArtifact_id, jobArtifact_jobId, jobArtifact_name, jobArtifact_type, jobArtifact_blob).
		Where(goqu.And(where...)).
		Order(jobArtifact_id.Asc()).
		Limit(uint(count)).
		Prepared(true)
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return ds, nil
}

func conditionExpression(condition filter.Condition) (exp.Expression, error) {
	col, ok := filterableColumns[condition.Field]
	if !ok {
		return nil, errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    condition.Field,
			Value:   condition.Value,
			Message: "filtering on this field is not supported",
		})
	}

	if condition.IsList() {
		values := make([]interface{}, 0, len(condition.Values))
		for _, v := range condition.Values {
			value, err := parseValue(condition.Field, col, v)
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		if condition.Operator == filter.NotIn {
			return col.identifier.NotIn(values...), nil
		}
		return col.identifier.In(values...), nil
	}

	value, err := parseValue(condition.Field, col, condition.Value)
	if err != nil {
		return nil, err
	}
	switch condition.Operator {
	case filter.Equal:
		return col.identifier.Eq(value), nil
	case filter.NotEqual:
		return col.identifier.Neq(value), nil
	case filter.GreaterThan:
		return col.identifier.Gt(value), nil
	case filter.GreaterThanOrEqual:
		return col.identifier.Gte(value), nil
	case filter.LessThan:
		return col.identifier.Lt(value), nil
	case filter.LessThanOrEqual:
		return col.identifier.Lte(value), nil
	default:
		return nil, errors.Errorf("unknown operator %s", condition.Operator)
	}
}

func parseValue(field string, col column, value string) (interface{}, error) {
	if !col.numeric {
		return value, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, errors.WithStack(&ingesterrors.ErrInvalidArgument{
			Name:    field,
			Value:   value,
			Message: "must be an integer",
		})
	}
	return n, nil
}
