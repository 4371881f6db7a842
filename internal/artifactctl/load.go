package artifactctl

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/identity"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/wire"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

// Load reads a JSON array of artifact records from r and loads them into project.
func (a *App) Load(ctx *artifactcontext.Context, project string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "error reading artifact records")
	}
	records, err := wire.DecodeArtifacts(data)
	if err != nil {
		return errors.WithMessage(err, "error decoding artifact records")
	}

	guids := identity.JobGuids(records)
	identities, err := a.Params.Resolver.Lookup(ctx, project, guids)
	if err != nil {
		return errors.WithMessagef(err, "error resolving %d job guids for %s", len(guids), project)
	}
	if err := a.Params.Loader.Load(ctx, project, records, identities, false); err != nil {
		return errors.WithMessagef(err, "error loading artifacts for %s", project)
	}

	fmt.Fprintf(a.Out, "Loaded %d artifact records for %s (%d of %d jobs found)\n", len(records), project, len(identities), len(guids))
	return nil
}
