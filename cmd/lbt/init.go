// lbt init [name], lbt new [path]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KhaosTian/LaurelBuildTool/internal/msg"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "lbt"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// initIn scaffolds a new project in an existing directory: lbt.toml,
// build.cs, and a starter source tree.
func initIn(dir, name string, lib bool) {
	writefile(`[project]
name = "`+name+`"
version = "0.1.0"

[dependencies]
`, dir, "lbt.toml")

	mkdir(dir, "src")

	if lib {
		writefile(`Project("`+name+`", "0.1.0");
Languages("c++17");

StaticLibrary("`+name+`")
    .Sources("src/**.cpp", "src/**.cc", "src/**.c")
    .PublicInclude("src")
`, dir, "build.cs")

		writefile(`#include <cstdio>
#include "`+name+`.h"

void hello() {
    std::puts("Hello, World!");
}
`, dir, "src", name+".cpp")

		writefile(`#pragma once

void hello();
`, dir, "src", name+".h")
	} else {
		writefile(`Project("`+name+`", "0.1.0");
Languages("c++17");

Executable("`+name+`").Sources("src/main.cpp")
`, dir, "build.cs")

		writefile(`#include <cstdio>

int main() {
    std::puts("Hello, World!");
    return 0;
}
`, dir, "src", "main.cpp")
	}

	writefile(`build/
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to build, or %s to build and run.\n",
		color.HiCyanString(programName+" "+dir), color.HiCyanString(programName+" run "+dir))
}

var library bool

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new project in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], library)
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new project in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), library)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&library, "lib", "l", false, "Create a static library target")

	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVarP(&library, "lib", "l", false, "Create a static library target")
}
