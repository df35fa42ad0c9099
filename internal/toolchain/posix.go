package toolchain

import (
	"fmt"
	"path/filepath"
	"sort"
)

// gccLikeConfigFlags returns the fixed compile-flag set GCC and Clang both
// share for a given build configuration, per spec §4.4.
func gccLikeConfigFlags(cfg Configuration) []string {
	switch cfg {
	case Release:
		return []string{"-O3", "-DNDEBUG"}
	case RelWithDebInfo:
		return []string{"-O2", "-g", "-DNDEBUG"}
	case MinSizeRel:
		return []string{"-Os", "-DNDEBUG"}
	default: // Debug
		return []string{"-O0", "-g", "-D_DEBUG"}
	}
}

// gccLikeStdFlag maps the global language standard to the variant's
// -std= flag. An empty standard falls back to the variant's natural
// default (C++17).
func gccLikeStdFlag(isCxx bool, cStd, cxxStd string) string {
	if isCxx {
		if cxxStd == "" {
			cxxStd = "c++17"
		}
		return "-std=" + cxxStd
	}
	if cStd == "" {
		return ""
	}
	return "-std=" + cStd
}

// gccLikeCompileArgs assembles the argv (excluding the executable itself)
// for a GCC/Clang-compatible compile invocation.
func gccLikeCompileArgs(opts CompileOptions) []string {
	var args []string

	if std := gccLikeStdFlag(opts.IsCxx, opts.CStandard, opts.CxxStandard); std != "" {
		args = append(args, std)
	}
	args = append(args, gccLikeConfigFlags(opts.Configuration)...)

	args = append(args, "-finput-charset=UTF-8", "-fexec-charset=UTF-8")

	for _, dir := range opts.IncludeDirs {
		args = append(args, "-I"+dir)
	}

	for _, name := range sortedDefineKeys(opts.Defines) {
		v := opts.Defines[name]
		if v == "" {
			args = append(args, "-D"+name)
		} else {
			args = append(args, fmt.Sprintf("-D%s=%s", name, v))
		}
	}

	args = append(args, opts.ExtraFlags...)

	if opts.GenerateDeps {
		args = append(args, "-MMD", "-MF", opts.DepFilePath)
	}

	args = append(args, "-c", opts.Source, "-o", opts.OutputObject)
	return args
}

// gccLikeLinkArgs assembles the argv for a GCC/Clang-compatible link or
// archive invocation. archiver is returned separately since archiving
// uses a different executable than linking.
func gccLikeLinkArgs(opts LinkOptions) (useArchiver bool, args []string) {
	if opts.Kind == StaticLibrary {
		args = append(args, "rcs", opts.Output)
		args = append(args, opts.Objects...)
		return true, args
	}

	args = append(args, "-o", opts.Output)
	args = append(args, opts.Objects...)

	if opts.Kind == SharedLibrary {
		args = append(args, "-shared", "-fPIC")
	}

	for _, dir := range opts.LibraryDirs {
		args = append(args, "-L"+dir)
	}
	for _, lib := range opts.Libraries {
		args = append(args, "-l"+lib)
	}
	args = append(args, opts.ExtraFlags...)
	return false, args
}

func sortedDefineKeys(defines map[string]string) []string {
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// posixSystemRoots lists well-known system/SDK include roots used to
// classify GCC/Clang header dependencies as system vs. project headers.
var posixSystemRoots = []string{
	"/usr/include",
	"/usr/local/include",
	"/usr/lib/gcc",
	"/usr/lib/clang",
	"/Library/Developer/CommandLineTools",
	"/Applications/Xcode.app",
}

func isUnderAnyRoot(path string, roots []string) bool {
	clean := filepath.Clean(path)
	for _, root := range roots {
		rel, err := filepath.Rel(root, clean)
		if err == nil && rel != ".." && len(rel) > 0 && rel[0] != '.' {
			return true
		}
	}
	return false
}
