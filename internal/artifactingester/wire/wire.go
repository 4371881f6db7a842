// Package wire decodes artifact submissions from their JSON representation.
package wire

import (
	"bytes"
	"encoding/json"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
)

const placeholderLength = 6

// DecodeArtifacts decodes a JSON array of artifact records. Six element arrays become placeholders and
// objects become collections. Falsy elements (null, false, 0, "", [] and {}) are kept as nil records so
// that they are reported as malformed downstream rather than silently disappearing.
// All element errors are returned together; records that did decode are still returned in order.
func DecodeArtifacts(data []byte) ([]model.RawArtifact, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, errors.Wrap(err, "artifacts must be a JSON array")
	}
	records := make([]model.RawArtifact, 0, len(elements))
	var result *multierror.Error
	for i, element := range elements {
		record, err := decodeArtifact(element)
		if err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "artifact %d", i))
			continue
		}
		records = append(records, record)
	}
	return records, result.ErrorOrNil()
}

func decodeArtifact(element json.RawMessage) (model.RawArtifact, error) {
	trimmed := bytes.TrimSpace(element)
	if isFalsy(trimmed) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		return decodePlaceholder(trimmed)
	case '{':
		return decodeCollection(trimmed)
	default:
		return nil, errors.Errorf("unexpected artifact %s", trimmed)
	}
}

// decodeCollection rejects objects without a name, as the name decides both the variant and the stored row.
func decodeCollection(data []byte) (model.RawArtifact, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.WithStack(err)
	}
	if name, ok := fields["name"]; !ok || isNull(name) {
		return nil, errors.WithMessage(model.ErrMalformedArtifact, "artifact has no name")
	}
	artifact := &model.CollectionArtifact{}
	if err := json.Unmarshal(data, artifact); err != nil {
		return nil, errors.WithStack(err)
	}
	return artifact, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func decodePlaceholder(data []byte) (model.RawArtifact, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(fields) != placeholderLength {
		return nil, errors.Errorf("placeholder must have %d fields but has %d", placeholderLength, len(fields))
	}
	var (
		jobGuid, name, artifactType, keyGuid, keyName string
		blob                                          model.Blob
	)
	targets := []interface{}{&jobGuid, &name, &artifactType, &blob, &keyGuid, &keyName}
	for i, target := range targets {
		if err := json.Unmarshal(fields[i], target); err != nil {
			return nil, errors.Wrapf(err, "placeholder field %d", i)
		}
	}
	return &model.PlaceholderArtifact{
		JobGuid: jobGuid,
		Name:    name,
		Type:    artifactType,
		Blob:    blob,
		Key:     model.ArtifactKey{JobGuid: keyGuid, Name: keyName},
	}, nil
}

func isFalsy(v []byte) bool {
	switch string(v) {
	case "", "null", "false", `""`:
		return true
	}
	var container []json.RawMessage
	if len(v) > 0 && v[0] == '[' {
		return json.Unmarshal(v, &container) == nil && len(container) == 0
	}
	var object map[string]json.RawMessage
	if len(v) > 0 && v[0] == '{' {
		return json.Unmarshal(v, &object) == nil && len(object) == 0
	}
	var number float64
	if json.Unmarshal(v, &number) == nil {
		return number == 0
	}
	return false
}

// EncodeArtifacts is the inverse of DecodeArtifacts. Nil records are written as null.
func EncodeArtifacts(records []model.RawArtifact) ([]byte, error) {
	elements := make([]interface{}, len(records))
	for i, record := range records {
		switch r := record.(type) {
		case nil:
			elements[i] = nil
		case *model.PlaceholderArtifact:
			elements[i] = []interface{}{r.JobGuid, r.Name, r.Type, r.Blob, r.Key.JobGuid, r.Key.Name}
		case *model.CollectionArtifact:
			elements[i] = r
		default:
			return nil, errors.Errorf("unknown artifact type %T", record)
		}
	}
	data, err := json.Marshal(elements)
	return data, errors.WithStack(err)
}

type submissionJson struct {
	Project           string          `json:"project"`
	Artifacts         json.RawMessage `json:"artifacts"`
	AddBugSuggestions bool            `json:"add_bug_suggestions"`
}

// DecodeSubmission decodes the envelope carried by each pulsar message:
// {"project": ..., "artifacts": [...], "add_bug_suggestions": ...}.
func DecodeSubmission(payload []byte) (*model.Submission, error) {
	var envelope submissionJson
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.WithStack(err)
	}
	if envelope.Project == "" {
		return nil, errors.New("submission has no project")
	}
	artifacts := []model.RawArtifact{}
	if len(envelope.Artifacts) > 0 {
		var err error
		artifacts, err = DecodeArtifacts(envelope.Artifacts)
		if err != nil {
			return nil, errors.WithMessagef(err, "project %s", envelope.Project)
		}
	}
	return &model.Submission{
		Project:           envelope.Project,
		Artifacts:         artifacts,
		AddBugSuggestions: envelope.AddBugSuggestions,
	}, nil
}

// EncodeSubmission is the inverse of DecodeSubmission.
func EncodeSubmission(submission *model.Submission) ([]byte, error) {
	artifacts, err := EncodeArtifacts(submission.Artifacts)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(submissionJson{
		Project:           submission.Project,
		Artifacts:         artifacts,
		AddBugSuggestions: submission.AddBugSuggestions,
	})
	return data, errors.WithStack(err)
}
