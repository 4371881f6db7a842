package identity

import (
	"github.com/jobartifacts/artifactingester/internal/artifactingester/model"
	"github.com/jobartifacts/artifactingester/internal/common/util"
)

// IdentityMap maps a job guid to the id of its job. It is built once per load and never modified afterwards.
type IdentityMap map[string]int64

// Resolve returns the job id for guid. A guid that is absent, or maps to a non-positive id, does not resolve.
func (m IdentityMap) Resolve(guid string) (int64, bool) {
	id, ok := m[guid]
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// JobGuids returns the distinct job guids referenced by records, in order of first appearance.
func JobGuids(records []model.RawArtifact) []string {
	var guids []string
	for _, record := range records {
		switch r := record.(type) {
		case *model.PlaceholderArtifact:
			if r != nil && r.JobGuid != "" {
				guids = append(guids, r.JobGuid)
			}
		case *model.CollectionArtifact:
			if r != nil && r.JobGuid != "" {
				guids = append(guids, r.JobGuid)
			}
		}
	}
	return util.Unique(guids)
}
