package loader

import (
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/classify"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/identity"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/instructions"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/metrics"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

// Sink is the storage backend artifacts are dispatched to.
type Sink interface {
	// StoreJobArtifacts inserts or updates artifacts keyed by their UpsertKey.
	StoreJobArtifacts(ctx *artifactcontext.Context, project string, artifacts []*model.StoreArtifactInstruction) error
	// StorePerformanceArtifacts hands performance artifacts to the performance subsystem. jobIds[i] is the
	// job of artifacts[i].
	StorePerformanceArtifacts(ctx *artifactcontext.Context, project string, jobIds []int64, artifacts []*model.CollectionArtifact) error
}

// ArtifactLoader converts artifact records into batches and dispatches each non-empty batch to a Sink once.
type ArtifactLoader struct {
	converter *instructions.InstructionConverter
	sink      Sink
	metrics   *metrics.Metrics
}

func NewArtifactLoader(converter *instructions.InstructionConverter, sink Sink, metrics *metrics.Metrics) *ArtifactLoader {
	return &ArtifactLoader{
		converter: converter,
		sink:      sink,
		metrics:   metrics,
	}
}

// Load stores the artifacts of project described by records.
// Nothing is dispatched if any record fails to convert. Otherwise batches are dispatched in the order placeholders,
// job artifacts, performance artifacts, stopping at the first sink error. Batches already dispatched are not undone.
// addBugSuggestions is accepted for compatibility and currently has no effect.
func (l *ArtifactLoader) Load(ctx *artifactcontext.Context, project string, records []model.RawArtifact, identities identity.IdentityMap, addBugSuggestions bool) error {
	ctx = artifactcontext.WithProject(ctx, project)
	if addBugSuggestions {
		ctx.Log.Debug("Bug suggestions requested; ignoring")
	}
	set, err := l.converter.Convert(ctx, project, records, identities)
	if err != nil {
		return err
	}
	return l.Dispatch(ctx, project, set)
}

// Dispatch sends every non-empty batch of set to the sink.
func (l *ArtifactLoader) Dispatch(ctx *artifactcontext.Context, project string, set *model.ArtifactSet) error {
	if len(set.Placeholders) > 0 {
		if err := l.sink.StoreJobArtifacts(ctx, project, set.Placeholders); err != nil {
			return errors.WithMessagef(err, "storing %d placeholder artifacts for %s", len(set.Placeholders), project)
		}
		l.metrics.RecordDispatched(classify.VariantPlaceholder.String(), len(set.Placeholders))
	}
	if len(set.JobArtifacts) > 0 {
		if err := l.sink.StoreJobArtifacts(ctx, project, set.JobArtifacts); err != nil {
			return errors.WithMessagef(err, "storing %d job artifacts for %s", len(set.JobArtifacts), project)
		}
		l.metrics.RecordDispatched(classify.VariantGeneric.String(), len(set.JobArtifacts))
	}
	if len(set.PerformanceArtifacts) > 0 {
		if len(set.PerformanceArtifacts) != len(set.PerformanceJobIds) {
			return errors.Errorf("%d performance artifacts but %d job ids", len(set.PerformanceArtifacts), len(set.PerformanceJobIds))
		}
		if err := l.sink.StorePerformanceArtifacts(ctx, project, set.PerformanceJobIds, set.PerformanceArtifacts); err != nil {
			return errors.WithMessagef(err, "storing %d performance artifacts for %s", len(set.PerformanceArtifacts), project)
		}
		l.metrics.RecordDispatched(classify.VariantPerformance.String(), len(set.PerformanceArtifacts))
	}
	ctx.Log.Debugf(
		"Dispatched %d placeholders, %d job artifacts and %d performance artifacts",
		len(set.Placeholders), len(set.JobArtifacts), len(set.PerformanceArtifacts))
	return nil
}
