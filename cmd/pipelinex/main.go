package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/concourse/pipelinex"
)

// PipelinexCommand is the root go-flags command tree; "serve" is
// presently its only subcommand, mirroring cmd/concourse's
// ConcourseCommand{Web, Migrate, GenerateKey} shape at a scale this
// service actually needs.
type PipelinexCommand struct {
	Version func() `short:"v" long:"version" description:"Print the version of pipelinex and exit"`

	Serve ServeCommand `command:"serve" description:"Run the admission HTTP surface and the execution-plane worker pool."`
}

func main() {
	var cmd PipelinexCommand
	cmd.Version = func() {
		fmt.Println(pipelinex.Version)
		os.Exit(0)
	}

	parser := flags.NewParser(&cmd, flags.HelpFlag|flags.PassDoubleDash)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	handleError(err)
}

func handleError(err error) {
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
