// Version command for the ledgerd CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridable at link time via -ldflags.
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ledgerd v" + version)
	},
}
