// lbt run [path]
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/KhaosTian/LaurelBuildTool/internal/driver"
	"github.com/KhaosTian/LaurelBuildTool/internal/msg"
)

var flagRunTarget string

func doRun(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) > 0 {
		target = args[0]
		args = args[1:] // remaining arguments are passed to the program
	}

	d, err := driver.New(target)
	if err != nil {
		msg.Fatal("%v", err)
	}
	d.ConfigurationOverride = flagConfiguration.Value()
	d.ToolchainOverride = flagToolchain

	if err := d.Run(context.Background(), flagRunTarget, args); err != nil {
		msg.Fatal("%v", err)
	}
}

var runCmd = &cobra.Command{
	Use:   "run [project path] -- [program args]",
	Short: "Build and run the project's executable target",
	Args:  cobra.ArbitraryArgs,
	Run:   doRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addBuildFlags(runCmd)
	runCmd.Flags().StringVar(&flagRunTarget, "target", "", "Executable target to run; required if more than one exists")
}
