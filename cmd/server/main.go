// Command server runs the courtside conversation orchestration engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "courtside",
		Short:   "Sports conversation orchestration and tool-dispatch engine",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newCheckConfigCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
