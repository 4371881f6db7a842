package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobartifacts/artifactingester/internal/artifactctl"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

func listCmd(a *artifactctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list --project <project>",
		Short: "List stored artifacts",
		Long: `Lists the stored artifacts of a project ordered by id.
Filters take the form field=value or field__op=value, where op is one of gt, gte, lt, lte, ne, in or nin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			filters, _ := cmd.Flags().GetStringArray("filter")
			offset, _ := cmd.Flags().GetInt("offset")
			count, _ := cmd.Flags().GetInt("count")

			release, err := connect(cmd, a)
			if err != nil {
				return err
			}
			defer release()
			return a.List(artifactcontext.Background(), project, filters, offset, count)
		},
	}
	cmd.Flags().String("project", "", "project to list artifacts of")
	cmd.Flags().StringArray("filter", []string{}, "filter on id, job_id, name or type, e.g. name__in=a,b (repeatable)")
	cmd.Flags().Int("offset", 0, "number of matching artifacts to skip")
	cmd.Flags().Int("count", 10, "maximum number of artifacts to list")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
