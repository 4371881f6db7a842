package instructions

import (
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/classify"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/identity"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/metrics"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/compress"
)

// InstructionConverter turns artifact records into the batches of an ArtifactSet.
type InstructionConverter struct {
	classifier *classify.Classifier
	compressor compress.Compressor
	metrics    *metrics.Metrics
}

func NewInstructionConverter(classifier *classify.Classifier, compressor compress.Compressor, metrics *metrics.Metrics) *InstructionConverter {
	return &InstructionConverter{
		classifier: classifier,
		compressor: compressor,
		metrics:    metrics,
	}
}

// Convert classifies every record, resolves its job and appends it to the batch for its variant.
// Malformed records and records whose job guid does not resolve are logged and skipped. A generic record whose
// blob is not encoded fails the whole conversion with model.ErrInvalidPayload.
func (c *InstructionConverter) Convert(ctx *artifactcontext.Context, project string, records []model.RawArtifact, identities identity.IdentityMap) (*model.ArtifactSet, error) {
	log := ctx.Log.WithField("project", project)
	set := &model.ArtifactSet{}
	for idx, record := range records {
		classification, err := c.classifier.Classify(record)
		if err != nil {
			log.WithField("index", idx).Warnf("Artifact not defined for %s", project)
			c.metrics.RecordDroppedRecord(metrics.DropReasonMalformed)
			continue
		}

		jobId, ok := identities.Resolve(classification.JobGuid)
		if !ok {
			log.WithField("jobGuid", classification.JobGuid).Warnf("No job_id for %s job_guid %s", project, classification.JobGuid)
			c.metrics.RecordDroppedRecord(metrics.DropReasonUnresolved)
			continue
		}

		switch classification.Variant {
		case classify.VariantPlaceholder:
			handlePlaceholder(jobId, record.(*model.PlaceholderArtifact), set)
		case classify.VariantGeneric:
			err = c.handleGeneric(jobId, record.(*model.CollectionArtifact), set)
		case classify.VariantPerformance:
			handlePerformance(jobId, record.(*model.CollectionArtifact), set)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "artifact %d for job guid %s", idx, classification.JobGuid)
		}
	}
	return set, nil
}

// handlePlaceholder rewrites both job guids of the placeholder to jobId. The blob is stored as submitted.
func handlePlaceholder(jobId int64, placeholder *model.PlaceholderArtifact, set *model.ArtifactSet) {
	set.Placeholders = append(set.Placeholders, &model.StoreArtifactInstruction{
		JobId: jobId,
		Name:  placeholder.Name,
		Type:  placeholder.Type,
		Blob:  placeholder.Blob.Raw(),
		Key:   model.UpsertKey{JobId: jobId, Name: placeholder.Key.Name},
	})
}

func (c *InstructionConverter) handleGeneric(jobId int64, artifact *model.CollectionArtifact, set *model.ArtifactSet) error {
	blob, err := artifact.Blob.Encoded()
	if err != nil {
		return err
	}
	compressed, err := c.compressor.Compress(blob)
	if err != nil {
		return errors.WithMessage(err, "compressing artifact blob")
	}
	set.JobArtifacts = append(set.JobArtifacts, &model.StoreArtifactInstruction{
		JobId: jobId,
		Name:  artifact.Name,
		Type:  artifact.Type,
		Blob:  compressed,
		Key:   model.UpsertKey{JobId: jobId, Name: artifact.Name},
	})
	return nil
}

// handlePerformance forwards the artifact untouched; its blob belongs to the performance subsystem.
func handlePerformance(jobId int64, artifact *model.CollectionArtifact, set *model.ArtifactSet) {
	set.PerformanceArtifacts = append(set.PerformanceArtifacts, artifact)
	set.PerformanceJobIds = append(set.PerformanceJobIds, jobId)
}
