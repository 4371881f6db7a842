package identity

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/util"
)

// JobIdSource finds the ids of the jobs of a project with the given guids.
// Guids without a job are left out of the result.
type JobIdSource interface {
	GetJobIds(ctx *artifactcontext.Context, project string, guids []string) (map[string]int64, error)
}

type cacheKey struct {
	project string
	guid    string
}

// JobLookup builds IdentityMaps, remembering every guid it has resolved.
// Guids that could not be resolved are not remembered, as their job may be ingested later.
type JobLookup struct {
	source JobIdSource
	cache  *lru.Cache
}

func NewJobLookup(source JobIdSource, cacheSize int) (*JobLookup, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &JobLookup{source: source, cache: cache}, nil
}

// Lookup resolves guids within project, querying the source only for guids not already cached.
func (l *JobLookup) Lookup(ctx *artifactcontext.Context, project string, guids []string) (IdentityMap, error) {
	identities := make(IdentityMap, len(guids))
	var missing []string
	for _, guid := range util.Unique(guids) {
		if id, ok := l.cache.Get(cacheKey{project: project, guid: guid}); ok {
			identities[guid] = id.(int64)
		} else {
			missing = append(missing, guid)
		}
	}
	if len(missing) == 0 {
		return identities, nil
	}

	found, err := l.source.GetJobIds(ctx, project, missing)
	if err != nil {
		return nil, err
	}
	for guid, id := range found {
		if id > 0 {
			l.cache.Add(cacheKey{project: project, guid: guid}, id)
		}
		identities[guid] = id
	}
	return identities, nil
}
