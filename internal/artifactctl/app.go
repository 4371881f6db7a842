package artifactctl

import (
	"io"
	"os"

	"github.com/jobartifacts/artifactingester/internal/artifactingester"
	"github.com/jobartifacts/artifactingester/internal/artifactingester/server"
	"github.com/jobartifacts/artifactingester/internal/common/compress"
)

// App encapsulates the artifactctl commands and their dependencies.
type App struct {
	Params *Params
	// Destination for command output
	Out io.Writer
}

// Params holds the backends commands run against.
type Params struct {
	Resolver     artifactingester.IdentityResolver
	Loader       artifactingester.Loader
	Reader       server.ArtifactReader
	Decompressor compress.Decompressor
}

// New instantiates an App with default parameters, writing to stdout.
func New() *App {
	return &App{
		Params: &Params{Decompressor: compress.NewZlibDecompressor()},
		Out:    os.Stdout,
	}
}
