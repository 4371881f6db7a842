package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jobartifacts/artifactingester/internal/artifactingester"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/configuration"
	"github.com/jobartifacts/artifactingester/internal/common"
	commonconfig "github.com/jobartifacts/artifactingester/internal/common/config"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
)

const (
	CustomConfigLocation string = "config"
	MigrateDatabase      string = "migrateDatabase"
)

func init() {
	pflag.StringSlice(
		CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)",
	)
	pflag.Bool(MigrateDatabase, false, "Migrate database instead of running the ingester")
	pflag.Parse()
}

func main() {
	logging.ConfigureCommandLineLogging()
	common.BindCommandlineArguments()

	var config configuration.ArtifactIngesterConfiguration
	userSpecifiedConfigs := viper.GetStringSlice(CustomConfigLocation)
	common.LoadConfig(&config, "./config/artifactingester", userSpecifiedConfigs)
	common.ConfigureLogging(config.Logging)

	if err := config.Validate(); err != nil {
		commonconfig.LogValidationErrors(err)
		os.Exit(-1)
	}

	var err error
	if viper.GetBool(MigrateDatabase) {
		err = artifactingester.Migrate(&config)
	} else {
		err = artifactingester.Run(&config)
	}
	if err != nil {
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Fatal("Artifact ingester failed")
	}
}
