package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jobartifacts/artifactingester/internal/artifactctl"
	"github.com/jobartifacts/artifactingester/internal/artifactingester"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/configuration"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/identity"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/metrics"
	"github.com/jobartifacts/artifactingester/internal/common"
	commonconfig "github.com/jobartifacts/artifactingester/internal/common/config"
)

const (
	configFlag        = "config"
	defaultConfigPath = "./config/artifactingester"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "artifactctl",
		Short:        "artifactctl loads and inspects job artifacts.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSlice(
		configFlag,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)",
	)

	app := artifactctl.New()
	cmd.AddCommand(
		loadCmd(app),
		listCmd(app),
	)
	return cmd
}

// connect fills in app's backends from the ingester configuration. The returned function releases them.
func connect(cmd *cobra.Command, app *artifactctl.App) (func(), error) {
	configPaths, err := cmd.Flags().GetStringSlice(configFlag)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var config configuration.ArtifactIngesterConfiguration
	common.LoadConfig(&config, defaultConfigPath, configPaths)
	if err := config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		return nil, errors.New("invalid configuration")
	}

	m := metrics.Get()
	stores, err := artifactingester.OpenStores(&config, m)
	if err != nil {
		return nil, err
	}
	loader, err := artifactingester.NewLoader(&config, stores, m)
	if err != nil {
		stores.Close()
		return nil, err
	}
	lookup, err := identity.NewJobLookup(stores.Artifacts, config.JobLookupCacheSize)
	if err != nil {
		stores.Close()
		return nil, err
	}

	app.Params.Resolver = lookup
	app.Params.Loader = loader
	app.Params.Reader = stores.Artifacts
	return stores.Close, nil
}
