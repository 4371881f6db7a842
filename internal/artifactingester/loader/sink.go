package loader

import (
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

type JobArtifactStore interface {
	StoreJobArtifacts(ctx *artifactcontext.Context, project string, artifacts []*model.StoreArtifactInstruction) error
}

type PerformanceArtifactStore interface {
	StorePerformanceArtifacts(ctx *artifactcontext.Context, project string, jobIds []int64, artifacts []*model.CollectionArtifact) error
}

// StorageSink routes job artifacts and performance artifacts to separate backends.
type StorageSink struct {
	JobArtifactStore
	PerformanceArtifactStore
}

func NewStorageSink(jobs JobArtifactStore, performance PerformanceArtifactStore) *StorageSink {
	return &StorageSink{JobArtifactStore: jobs, PerformanceArtifactStore: performance}
}
