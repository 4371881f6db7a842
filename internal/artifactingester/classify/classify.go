package classify

import (
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
)

type Variant int

const (
	VariantPlaceholder Variant = iota
	VariantGeneric
	VariantPerformance
)

func (v Variant) String() string {
	switch v {
	case VariantPlaceholder:
		return "placeholder"
	case VariantGeneric:
		return "generic"
	case VariantPerformance:
		return "performance"
	default:
		return "unknown"
	}
}

// Classification is the variant of a record together with the job guid it belongs to.
type Classification struct {
	Variant Variant
	JobGuid string
}

// Classifier decides which batch a record belongs to. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	performanceNames map[string]bool
}

// NewClassifier creates a Classifier that treats collections named in performanceNames as performance artifacts.
func NewClassifier(performanceNames []string) *Classifier {
	names := make(map[string]bool, len(performanceNames))
	for _, name := range performanceNames {
		names[name] = true
	}
	return &Classifier{performanceNames: names}
}

// Classify returns the variant of record. Placeholders are recognised by shape alone; a collection is never
// a placeholder whatever its fields. Nil and empty records fail with model.ErrMalformedArtifact.
func (c *Classifier) Classify(record model.RawArtifact) (Classification, error) {
	switch r := record.(type) {
	case *model.PlaceholderArtifact:
		if r == nil {
			return Classification{}, errors.WithStack(model.ErrMalformedArtifact)
		}
		return Classification{Variant: VariantPlaceholder, JobGuid: r.JobGuid}, nil
	case *model.CollectionArtifact:
		if r.IsEmpty() {
			return Classification{}, errors.WithStack(model.ErrMalformedArtifact)
		}
		if c.performanceNames[r.Name] {
			return Classification{Variant: VariantPerformance, JobGuid: r.JobGuid}, nil
		}
		return Classification{Variant: VariantGeneric, JobGuid: r.JobGuid}, nil
	default:
		return Classification{}, errors.WithStack(model.ErrMalformedArtifact)
	}
}
