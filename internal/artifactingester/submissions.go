package artifactingester

import (
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/identity"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/metrics"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/ingest"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
)

// IdentityResolver builds the identity map for the job guids of a project.
type IdentityResolver interface {
	Lookup(ctx *artifactcontext.Context, project string, guids []string) (identity.IdentityMap, error)
}

// Loader stores the artifacts of one submission.
type Loader interface {
	Load(ctx *artifactcontext.Context, project string, records []model.RawArtifact, identities identity.IdentityMap, addBugSuggestions bool) error
}

// SubmissionConverter gathers the decoded submissions of a pulsar batch.
type SubmissionConverter struct{}

func (SubmissionConverter) Convert(_ *artifactcontext.Context, msgs *ingest.MessagesWithIds[*model.Submission]) *model.SubmissionBatch {
	return &model.SubmissionBatch{
		Submissions: msgs.Messages,
		MessageIds:  msgs.MessageIds,
	}
}

// SubmissionSink resolves the job guids of each submission and loads its artifacts.
// A submission that fails to load is logged and counted. It does not stop the rest of the batch.
type SubmissionSink struct {
	resolver IdentityResolver
	loader   Loader
	metrics  *metrics.Metrics
}

func NewSubmissionSink(resolver IdentityResolver, loader Loader, metrics *metrics.Metrics) *SubmissionSink {
	return &SubmissionSink{resolver: resolver, loader: loader, metrics: metrics}
}

// Store only returns an error once ctx is done, in which case the batch is left unacknowledged.
func (s *SubmissionSink) Store(ctx *artifactcontext.Context, batch *model.SubmissionBatch) error {
	for _, submission := range batch.Submissions {
		err := s.load(ctx, submission)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return errors.WithMessage(ctx.Err(), err.Error())
		}
		s.metrics.RecordLoadFailure()
		logging.WithStacktrace(ctx.Log.WithField("project", submission.Project), err).
			Errorf("Failed to load %d artifacts", len(submission.Artifacts))
	}
	return nil
}

func (s *SubmissionSink) load(ctx *artifactcontext.Context, submission *model.Submission) error {
	identities, err := s.resolver.Lookup(ctx, submission.Project, identity.JobGuids(submission.Artifacts))
	if err != nil {
		return err
	}
	return s.loader.Load(ctx, submission.Project, submission.Artifacts, identities, submission.AddBugSuggestions)
}
