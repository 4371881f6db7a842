package classify

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
)

var performanceNames = []string{"performance", "talos_data"}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		record   model.RawArtifact
		expected Classification
	}{
		"placeholder": {
			record: &model.PlaceholderArtifact{
				JobGuid: "guid-1", Name: "name-a", Type: "json", Blob: model.TextBlob("{}"),
				Key: model.ArtifactKey{JobGuid: "guid-1", Name: "name-a"},
			},
			expected: Classification{Variant: VariantPlaceholder, JobGuid: "guid-1"},
		},
		"placeholder with a performance name": {
			record:   &model.PlaceholderArtifact{JobGuid: "guid-1", Name: "performance"},
			expected: Classification{Variant: VariantPlaceholder, JobGuid: "guid-1"},
		},
		"generic": {
			record:   &model.CollectionArtifact{Name: "foo", Type: "json", Blob: model.TextBlob(`{"x":1}`), JobGuid: "guid-2"},
			expected: Classification{Variant: VariantGeneric, JobGuid: "guid-2"},
		},
		"performance": {
			record: &model.CollectionArtifact{
				Name: "talos_data", Type: "json", Blob: model.StructuredBlob(json.RawMessage(`{"results":{}}`)), JobGuid: "guid-3",
			},
			expected: Classification{Variant: VariantPerformance, JobGuid: "guid-3"},
		},
		"name match is exact": {
			record:   &model.CollectionArtifact{Name: "Performance", JobGuid: "guid-4"},
			expected: Classification{Variant: VariantGeneric, JobGuid: "guid-4"},
		},
		"missing job guid still classifies": {
			record:   &model.CollectionArtifact{Name: "foo"},
			expected: Classification{Variant: VariantGeneric, JobGuid: ""},
		},
	}
	classifier := NewClassifier(performanceNames)
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			first, err := classifier.Classify(tc.record)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, first)

			// Classification is a pure function of the record
			second, err := classifier.Classify(tc.record)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestClassify_Malformed(t *testing.T) {
	var nilPlaceholder *model.PlaceholderArtifact
	var nilCollection *model.CollectionArtifact
	tests := map[string]model.RawArtifact{
		"nil":              nil,
		"nil placeholder":  nilPlaceholder,
		"nil collection":   nilCollection,
		"empty collection": &model.CollectionArtifact{},
	}
	classifier := NewClassifier(performanceNames)
	for name, record := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := classifier.Classify(record)
			assert.True(t, errors.Is(err, model.ErrMalformedArtifact))
		})
	}
}

func TestClassify_NoPerformanceNames(t *testing.T) {
	classification, err := NewClassifier(nil).Classify(&model.CollectionArtifact{Name: "performance", JobGuid: "guid-3"})
	require.NoError(t, err)
	assert.Equal(t, VariantGeneric, classification.Variant)
}

func TestVariant_String(t *testing.T) {
	assert.Equal(t, "placeholder", VariantPlaceholder.String())
	assert.Equal(t, "generic", VariantGeneric.String())
	assert.Equal(t, "performance", VariantPerformance.String())
	assert.Equal(t, "unknown", Variant(42).String())
}
