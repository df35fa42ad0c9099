// Package toolchain abstracts over vendor compiler families (MSVC-like,
// GCC-like, Clang-like), emitting concrete compile/link/archive
// invocations and parsing header-dependency output.
package toolchain

import (
	"fmt"
	"strings"

	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
)

// Configuration selects optimization level and debug-info flags.
type Configuration int

const (
	Debug Configuration = iota
	Release
	RelWithDebInfo
	MinSizeRel
)

func ParseConfiguration(s string) (Configuration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "release":
		return Release, nil
	case "relwithdebinfo":
		return RelWithDebInfo, nil
	case "minsizerel":
		return MinSizeRel, nil
	default:
		return 0, &lbterrors.ConfigError{Msg: fmt.Sprintf("unknown build configuration %q", s)}
	}
}

func (c Configuration) String() string {
	switch c {
	case Debug:
		return "debug"
	case Release:
		return "release"
	case RelWithDebInfo:
		return "relwithdebinfo"
	case MinSizeRel:
		return "minsizerel"
	default:
		return "unknown"
	}
}

// IsDebug reports whether artifacts built under this configuration get the
// "_d" debug suffix.
func (c Configuration) IsDebug() bool { return c == Debug }

// CompileOptions parameterizes one compile-command emission.
type CompileOptions struct {
	Source        string
	OutputObject  string
	Configuration Configuration
	IsCxx         bool
	CStandard     string // e.g. "c11"; empty means the variant's default
	CxxStandard   string // e.g. "c++17"
	IncludeDirs   []string
	Defines       map[string]string
	ExtraFlags    []string
	GenerateDeps  bool
	DepFilePath   string // required when GenerateDeps is true, for GCC/Clang
}

// LinkOptions parameterizes one link/archive-command emission.
type LinkOptions struct {
	Objects       []string
	Output        string
	Kind          Kind
	Configuration Configuration
	Libraries     []string // external library names (without the "lib"/".lib" decoration)
	LibraryDirs   []string
	ExtraFlags    []string
	IsCxx         bool
}

// Kind mirrors model.Kind without creating an import cycle between
// toolchain and model (model imports toolchain for Configuration).
type Kind int

const (
	Executable Kind = iota
	StaticLibrary
	SharedLibrary
	InterfaceOnly
)

// Command is an (executable, argv) pair ready to hand to os/exec.
type Command struct {
	Executable string
	Args       []string
}

// EnvOverlay is a name->value map applied on top of the current process
// environment when spawning toolchain child processes. A nil overlay
// means "no overlay; use the current environment unmodified".
type EnvOverlay map[string]string

// Toolchain is the vendor-agnostic contract every compiler family adapter
// implements.
type Toolchain interface {
	// Identify returns a short identifier ("gcc", "clang", "msvc") and a
	// version string, used as the toolchain-id component of cache keys.
	Identify() (id string, version string)

	// CompilerPath, LinkerPath, and ArchiverPath return the resolved
	// executable paths for this toolchain instance.
	CompilerPath(isCxx bool) string
	LinkerPath(isCxx bool) string
	ArchiverPath() string

	// InitEnvironment performs any one-time environment setup (e.g.
	// capturing vcvarsall.bat output) and returns the overlay to apply to
	// spawned processes. May return a nil overlay and a nil error when no
	// overlay is needed.
	InitEnvironment() (EnvOverlay, error)

	// EmitCompileCommand builds the compiler invocation for one
	// translation unit.
	EmitCompileCommand(opts CompileOptions) Command

	// EmitLinkCommand builds the link or archive invocation for one
	// target's artifact.
	EmitLinkCommand(opts LinkOptions) Command

	// ParseHeaderDeps extracts header paths from a completed compile's
	// captured output (the dep file's content for GCC/Clang, or the
	// compiler's stdout for MSVC's /showIncludes).
	ParseHeaderDeps(stdout []byte, depFileContent []byte) []string

	// IsSystemHeader classifies a header path as belonging to a
	// well-known system/SDK root versus the project tree.
	IsSystemHeader(path string) bool
}
