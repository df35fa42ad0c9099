// lbt clean [path]
//
// New relative to the teacher, which has no equivalent subcommand: it
// never persisted enough incremental state to make "clean" a distinct
// operation from just deleting the build.ninja/Visual Studio output by
// hand.
package main

import (
	"github.com/spf13/cobra"

	"github.com/KhaosTian/LaurelBuildTool/internal/driver"
	"github.com/KhaosTian/LaurelBuildTool/internal/msg"
)

func doClean(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	d, err := driver.New(target)
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := d.Clean(); err != nil {
		msg.Fatal("%v", err)
	}
}

var cleanCmd = &cobra.Command{
	Use:   "clean [project path]",
	Short: "Remove the build directory and incremental cache",
	Args:  cobra.MaximumNArgs(1),
	Run:   doClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
