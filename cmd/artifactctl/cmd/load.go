package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jobartifacts/artifactingester/internal/artifactctl"
	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

func loadCmd(a *artifactctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load --project <project> --file <records.json>",
		Short: "Load artifact records into storage",
		Long: `Loads a JSON array of artifact records, as submitted by build systems, for one project.
Records whose job cannot be found are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			file, _ := cmd.Flags().GetString("file")

			f, err := os.Open(file)
			if err != nil {
				return errors.WithStack(err)
			}
			defer f.Close()

			release, err := connect(cmd, a)
			if err != nil {
				return err
			}
			defer release()
			return a.Load(artifactcontext.Background(), project, f)
		},
	}
	cmd.Flags().String("project", "", "project the artifacts belong to")
	cmd.Flags().String("file", "", "file holding the artifact records")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
