package artifactctl

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/artifactingester/filter"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

// List prints the stored artifacts of project matching filters, each of the form field__op=value.
func (a *App) List(ctx *artifactcontext.Context, project string, filters []string, offset, count int) error {
	values := url.Values{}
	for _, f := range filters {
		parsed, err := url.ParseQuery(f)
		if err != nil {
			return errors.Wrapf(err, "invalid filter %s", f)
		}
		for k, vs := range parsed {
			values[k] = append(values[k], vs...)
		}
	}
	queryFilter, err := filter.NewUrlQueryFilter(values)
	if err != nil {
		return err
	}

	artifacts, err := a.Params.Reader.GetJobArtifacts(ctx, project, queryFilter.Conditions(), offset, count)
	if err != nil {
		return errors.WithMessagef(err, "error listing artifacts for %s", project)
	}

	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tJOB ID\tNAME\tTYPE\tSIZE\n")
	for _, artifact := range artifacts {
		size := len(artifact.Blob)
		if blob, err := a.Params.Decompressor.Decompress(artifact.Blob); err == nil {
			size = len(blob)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\n", artifact.Id, artifact.JobId, artifact.Name, artifact.Type, size)
	}
	return w.Flush()
}
