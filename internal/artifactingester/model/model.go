package model

import (
	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"
)

var (
	// ErrMalformedArtifact is returned for records that are nil or carry no fields at all.
	ErrMalformedArtifact = errors.New("artifact not defined")
	// ErrUnresolvedIdentity is returned when a record's job guid has no usable job id.
	ErrUnresolvedIdentity = errors.New("no job_id for job guid")
	// ErrInvalidPayload is returned when a blob that must be compressed is not encoded text or bytes.
	ErrInvalidPayload = errors.New("artifact blob is not encoded")
)

// RawArtifact is a single artifact record as submitted by a client.
// It is either a *PlaceholderArtifact or a *CollectionArtifact.
type RawArtifact interface {
	isRawArtifact()
}

// ArtifactKey is the secondary match key the backend uses to insert-or-update a submitted artifact.
type ArtifactKey struct {
	JobGuid string
	Name    string
}

// PlaceholderArtifact is the positional form [job_guid, name, type, blob, job_guid, name].
// The trailing guid and name are held in Key.
type PlaceholderArtifact struct {
	JobGuid string
	Name    string
	Type    string
	Blob    Blob
	Key     ArtifactKey
}

// CollectionArtifact is the keyed form of an artifact.
// Whether it is a performance artifact depends on Name alone.
type CollectionArtifact struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Blob    Blob   `json:"blob"`
	JobGuid string `json:"job_guid"`
}

func (*PlaceholderArtifact) isRawArtifact() {}
func (*CollectionArtifact) isRawArtifact()  {}

// IsEmpty reports whether the record carries no data.
func (a *CollectionArtifact) IsEmpty() bool {
	return a == nil || (a.Name == "" && a.Type == "" && a.JobGuid == "" && a.Blob.IsZero())
}

// UpsertKey identifies an artifact row: at most one artifact of a given name exists per job.
type UpsertKey struct {
	JobId int64
	Name  string
}

// StoreArtifactInstruction is an instruction to insert or update a row in the job_artifact table.
type StoreArtifactInstruction struct {
	JobId int64
	Name  string
	Type  string
	Blob  []byte
	Key   UpsertKey
}

// Tuple returns the instruction in the positional form (job_id, name, type, blob, job_id, name).
func (i *StoreArtifactInstruction) Tuple() []interface{} {
	return []interface{}{i.JobId, i.Name, i.Type, string(i.Blob), i.Key.JobId, i.Key.Name}
}

// ArtifactSet holds the batches built from one set of records. Each kind of instruction is stored in its
// own ordered list representing the order it was received.
type ArtifactSet struct {
	Placeholders []*StoreArtifactInstruction
	JobArtifacts []*StoreArtifactInstruction
	// PerformanceArtifacts are forwarded unmodified. PerformanceJobIds[i] is the job id of PerformanceArtifacts[i].
	PerformanceArtifacts []*CollectionArtifact
	PerformanceJobIds    []int64
}

// IsEmpty reports whether no batch holds any record.
func (s *ArtifactSet) IsEmpty() bool {
	return len(s.Placeholders) == 0 && len(s.JobArtifacts) == 0 && len(s.PerformanceArtifacts) == 0
}

// Submission is the unit a client submits: the artifacts of one project.
type Submission struct {
	Project           string        `json:"project"`
	Artifacts         []RawArtifact `json:"-"`
	AddBugSuggestions bool          `json:"add_bug_suggestions"`
}

// SubmissionBatch is a batch of submissions along with the ids of the pulsar messages they were read from.
type SubmissionBatch struct {
	Submissions []*Submission
	MessageIds  []pulsar.MessageID
}

func (b *SubmissionBatch) GetMessageIDs() []pulsar.MessageID {
	return b.MessageIds
}

// JobArtifact is a stored artifact as returned by the read path.
type JobArtifact struct {
	Id    int64  `json:"id"`
	JobId int64  `json:"job_id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Blob  []byte `json:"-"`
}
