package wire

import (
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
)

func TestDecodeArtifacts(t *testing.T) {
	input := `[
		["guid-1", "name-a", "json", "{}", "guid-1", "name-a"],
		{"name": "foo", "type": "json", "blob": "{\"x\":1}", "job_guid": "guid-2"},
		{"name": "performance", "type": "json", "blob": {"suites": []}, "job_guid": "guid-3"},
		null, {}, [], "", 0, false
	]`
	records, err := DecodeArtifacts([]byte(input))
	require.NoError(t, err)
	require.Len(t, records, 9)

	assert.Equal(t, &model.PlaceholderArtifact{
		JobGuid: "guid-1",
		Name:    "name-a",
		Type:    "json",
		Blob:    model.TextBlob("{}"),
		Key:     model.ArtifactKey{JobGuid: "guid-1", Name: "name-a"},
	}, records[0])
	assert.Equal(t, &model.CollectionArtifact{
		Name:    "foo",
		Type:    "json",
		Blob:    model.TextBlob(`{"x":1}`),
		JobGuid: "guid-2",
	}, records[1])
	assert.Equal(t, &model.CollectionArtifact{
		Name:    "performance",
		Type:    "json",
		Blob:    model.StructuredBlob(json.RawMessage(`{"suites": []}`)),
		JobGuid: "guid-3",
	}, records[2])
	for _, record := range records[3:] {
		assert.Nil(t, record)
	}
}

func TestDecodeArtifacts_Errors(t *testing.T) {
	input := `[
		["guid-1", "name-a", "json"],
		"just a string",
		{"name": "foo", "type": "json", "blob": "x", "job_guid": "guid-2"},
		[1, "name-a", "json", "{}", "guid-1", "name-a"]
	]`
	records, err := DecodeArtifacts([]byte(input))
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)

	// The valid record still comes through.
	require.Len(t, records, 1)
	assert.Equal(t, "foo", records[0].(*model.CollectionArtifact).Name)
}

func TestDecodeArtifacts_CollectionWithoutName(t *testing.T) {
	tests := map[string]string{
		"missing name": `[{"type": "json", "blob": "x", "job_guid": "guid-2"}]`,
		"null name":    `[{"name": null, "type": "json", "blob": "x", "job_guid": "guid-2"}]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			records, err := DecodeArtifacts([]byte(input))
			assert.True(t, errors.Is(err, model.ErrMalformedArtifact))
			assert.Empty(t, records)
		})
	}

	records, err := DecodeArtifacts([]byte(`[{"name": "", "type": "json", "blob": "x", "job_guid": "guid-2"}]`))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDecodeArtifacts_NotAnArray(t *testing.T) {
	_, err := DecodeArtifacts([]byte(`{"name": "foo"}`))
	assert.Error(t, err)
}

func TestSubmissionRoundTrip(t *testing.T) {
	submission := &model.Submission{
		Project: "mozilla-central",
		Artifacts: []model.RawArtifact{
			&model.PlaceholderArtifact{
				JobGuid: "guid-1",
				Name:    "name-a",
				Type:    "json",
				Blob:    model.TextBlob("{}"),
				Key:     model.ArtifactKey{JobGuid: "guid-1", Name: "name-a"},
			},
			&model.CollectionArtifact{
				Name:    "talos_data",
				Type:    "json",
				Blob:    model.StructuredBlob(json.RawMessage(`{"results":{"tp5":[1,2]}}`)),
				JobGuid: "guid-3",
			},
			nil,
		},
		AddBugSuggestions: true,
	}
	payload, err := EncodeSubmission(submission)
	require.NoError(t, err)

	decoded, err := DecodeSubmission(payload)
	require.NoError(t, err)
	assert.Equal(t, submission, decoded)
}

func TestDecodeSubmission_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":        `not json`,
		"no project":      `{"artifacts": []}`,
		"bad artifacts":   `{"project": "try", "artifacts": [["too", "short"]]}`,
		"artifacts shape": `{"project": "try", "artifacts": {"name": "foo"}}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSubmission([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestDecodeSubmission_NoArtifacts(t *testing.T) {
	submission, err := DecodeSubmission([]byte(`{"project": "try"}`))
	require.NoError(t, err)
	assert.Equal(t, "try", submission.Project)
	assert.Empty(t, submission.Artifacts)
	assert.False(t, submission.AddBugSuggestions)
}
