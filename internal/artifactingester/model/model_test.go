package model

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlob_Encoded(t *testing.T) {
	data, err := TextBlob(`{"x":1}`).Encoded()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"x":1}`), data)

	_, err = StructuredBlob(json.RawMessage(`{"x":1}`)).Encoded()
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	_, err = Blob{}.Encoded()
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	empty, err := TextBlob("").Encoded()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBlob_AbsentWhenMissing(t *testing.T) {
	var artifact CollectionArtifact
	require.NoError(t, json.Unmarshal([]byte(`{"name":"foo","type":"json","job_guid":"guid-2"}`), &artifact))
	assert.Equal(t, BlobAbsent, artifact.Blob.Kind())
	assert.True(t, artifact.Blob.IsZero())

	out, err := json.Marshal(artifact.Blob)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestBlob_UnmarshalJSON(t *testing.T) {
	tests := map[string]struct {
		input        string
		expectedKind BlobKind
		expectedRaw  []byte
	}{
		"string":        {input: `"{\"x\":1}"`, expectedKind: BlobEncoded, expectedRaw: []byte(`{"x":1}`)},
		"empty string":  {input: `""`, expectedKind: BlobEncoded, expectedRaw: []byte{}},
		"null":          {input: `null`, expectedKind: BlobAbsent, expectedRaw: nil},
		"object":        {input: `{"suites": []}`, expectedKind: BlobStructured, expectedRaw: []byte(`{"suites": []}`)},
		"array":         {input: ` [1, 2] `, expectedKind: BlobStructured, expectedRaw: []byte(`[1, 2]`)},
		"number":        {input: `7`, expectedKind: BlobStructured, expectedRaw: []byte(`7`)},
		"unicode value": {input: `"café"`, expectedKind: BlobEncoded, expectedRaw: []byte("café")},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var b Blob
			require.NoError(t, b.UnmarshalJSON([]byte(tc.input)))
			assert.Equal(t, tc.expectedKind, b.Kind())
			assert.Equal(t, tc.expectedRaw, b.Raw())
		})
	}
}

func TestCollectionArtifact_JSONPassThrough(t *testing.T) {
	input := `{"name":"performance","type":"json","blob":{"framework":{"name":"talos"},"suites":[]},"job_guid":"guid-3"}`
	var artifact CollectionArtifact
	require.NoError(t, json.Unmarshal([]byte(input), &artifact))
	assert.Equal(t, BlobStructured, artifact.Blob.Kind())

	out, err := json.Marshal(&artifact)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestCollectionArtifact_IsEmpty(t *testing.T) {
	var nilArtifact *CollectionArtifact
	assert.True(t, nilArtifact.IsEmpty())
	assert.True(t, (&CollectionArtifact{}).IsEmpty())
	assert.False(t, (&CollectionArtifact{Name: "foo"}).IsEmpty())
	assert.False(t, (&CollectionArtifact{Blob: TextBlob("x")}).IsEmpty())
}

func TestStoreArtifactInstruction_Tuple(t *testing.T) {
	instruction := &StoreArtifactInstruction{
		JobId: 42,
		Name:  "name-a",
		Type:  "json",
		Blob:  []byte("{}"),
		Key:   UpsertKey{JobId: 42, Name: "name-a"},
	}
	assert.Equal(t, []interface{}{int64(42), "name-a", "json", "{}", int64(42), "name-a"}, instruction.Tuple())
}

func TestArtifactSet_IsEmpty(t *testing.T) {
	assert.True(t, (&ArtifactSet{}).IsEmpty())
	assert.False(t, (&ArtifactSet{PerformanceArtifacts: []*CollectionArtifact{{Name: "performance"}}, PerformanceJobIds: []int64{1}}).IsEmpty())
}
