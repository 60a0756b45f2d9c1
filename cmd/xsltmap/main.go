// Command xsltmap inspects and maintains XSLT data mappings.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/xsltmap/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Command failures have already been reported in the selected format.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
