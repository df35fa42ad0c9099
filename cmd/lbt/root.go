// lbt [path], lbt build [path]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KhaosTian/LaurelBuildTool/internal/driver"
	"github.com/KhaosTian/LaurelBuildTool/internal/msg"
)

var (
	flagConfiguration EnumValue = NewEnumValue("debug", map[string]string{
		"debug":          "Unoptimized build with debug info (default)",
		"release":        "Fully optimized build",
		"relwithdebinfo": "Optimized build that keeps debug info",
		"minsizerel":     "Build optimized for size",
	})
	flagToolchain string
)

func doBuild(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	d, err := driver.New(target)
	if err != nil {
		msg.Fatal("%v", err)
	}
	d.ConfigurationOverride = flagConfiguration.Value()
	d.ToolchainOverride = flagToolchain

	if err := d.Build(context.Background()); err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lbt [project path]",
	Short: "Laurel Build Tool",
	Long:  `Laurel Build Tool: an incremental C/C++ build orchestrator`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doBuild,
}

var buildCmd = &cobra.Command{
	Use:   "build [project path]",
	Short: "Build the project",
	Long:  `Build the project. If no project path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doBuild,
}

func init() {
	addBuildFlags(rootCmd)

	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().VarP(&flagConfiguration, "config", "c", "Build configuration, one of "+flagConfiguration.HelpString())
	cmd.RegisterFlagCompletionFunc("config", flagConfiguration.CompletionFunc())
	cmd.Flags().StringVarP(&flagToolchain, "toolchain", "t", "", "Toolchain to use (msvc, gcc, clang); autodetected if unset")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
