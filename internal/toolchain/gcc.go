package toolchain

import (
	"bytes"
	"os/exec"
	"strings"
)

// GCCToolchain drives a GCC-compatible compiler/linker pair found on PATH
// (or at explicit paths), emitting Makefile-style header dependencies via
// -MMD -MF.
type GCCToolchain struct {
	CC      string
	CXX     string
	AR      string
	version string
}

// NewGCCToolchain uses the given executables, defaulting to gcc/g++/ar for
// any that are empty; it does not probe PATH. The returned toolchain's
// version is queried lazily on first Identify call.
func NewGCCToolchain(cc, cxx, ar string) *GCCToolchain {
	if cc == "" {
		cc = "gcc"
	}
	if cxx == "" {
		cxx = "g++"
	}
	if ar == "" {
		ar = "ar"
	}
	return &GCCToolchain{CC: cc, CXX: cxx, AR: ar}
}

func (g *GCCToolchain) Identify() (string, string) {
	if g.version == "" {
		g.version = probeVersion(g.CC, "-dumpfullversion")
	}
	return "gcc", g.version
}

func (g *GCCToolchain) CompilerPath(isCxx bool) string {
	if isCxx {
		return g.CXX
	}
	return g.CC
}

func (g *GCCToolchain) LinkerPath(isCxx bool) string { return g.CompilerPath(isCxx) }
func (g *GCCToolchain) ArchiverPath() string         { return g.AR }

func (g *GCCToolchain) InitEnvironment() (EnvOverlay, error) { return nil, nil }

func (g *GCCToolchain) EmitCompileCommand(opts CompileOptions) Command {
	return Command{
		Executable: g.CompilerPath(opts.IsCxx),
		Args:       gccLikeCompileArgs(opts),
	}
}

func (g *GCCToolchain) EmitLinkCommand(opts LinkOptions) Command {
	useArchiver, args := gccLikeLinkArgs(opts)
	if useArchiver {
		return Command{Executable: g.ArchiverPath(), Args: args}
	}
	return Command{Executable: g.LinkerPath(opts.IsCxx), Args: args}
}

func (g *GCCToolchain) ParseHeaderDeps(_ []byte, depFileContent []byte) []string {
	return ParseMakeDepfile(depFileContent)
}

func (g *GCCToolchain) IsSystemHeader(path string) bool {
	return isUnderAnyRoot(path, posixSystemRoots)
}

// probeVersion runs exe with the given single flag and returns the first
// trimmed line of stdout, or "" if the process cannot be started.
func probeVersion(exe string, flag string) string {
	cmd := exec.Command(exe, flag)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	line := strings.SplitN(out.String(), "\n", 2)[0]
	return strings.TrimSpace(line)
}
