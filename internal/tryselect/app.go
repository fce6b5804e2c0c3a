package tryselect

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/armadaproject/tryselect/internal/tryconfig"
	buildinfo "github.com/armadaproject/tryselect/internal/tryselect/build"
	"github.com/armadaproject/tryselect/internal/tryselect/configuration"
)

// App is the tryselect command-line application. Each exported method implements one command.
type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// Submitter receives the compiled try task config unless pushing is disabled.
	// If nil, the config is written to the configured submit directory.
	Submitter tryconfig.Submitter
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	Config configuration.Configuration
}

// New instantiates an App with default parameters, writing to standard output.
func New() *App {
	return &App{
		Params: &Params{},
		Out:    os.Stdout,
	}
}

func (a *App) submitter() tryconfig.Submitter {
	if a.Submitter != nil {
		return a.Submitter
	}
	return &tryconfig.FileSubmitter{Directory: a.Params.Config.Submit.Directory}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", buildinfo.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", buildinfo.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", buildinfo.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", buildinfo.BuildTime)
	return nil
}
