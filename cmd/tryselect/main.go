package main

import (
	"os"

	"github.com/armadaproject/tryselect/cmd/tryselect/cmd"
	"github.com/armadaproject/tryselect/internal/common/logging"
)

func main() {
	logging.ConfigureCommandLineLogging(os.Stderr)
	cmd.Execute()
}
