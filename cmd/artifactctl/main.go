package main

import (
	"os"

	"github.com/jobartifacts/artifactingester/cmd/artifactctl/cmd"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
)

func main() {
	logging.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
