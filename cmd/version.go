package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/abhisek/practiz/internal/curriculum"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if semver.IsValid(version) {
			fmt.Fprintln(out, "practiz", semver.Canonical(version))
		} else {
			fmt.Fprintln(out, "practiz", version, "(development build)")
		}
		fmt.Fprintf(out, "content schema %s.x\n", curriculum.SupportedMajor)
	},
}
