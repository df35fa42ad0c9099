package toolchain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MSVCToolchain drives cl.exe/link.exe/lib.exe. VsRoot is the located
// Visual Studio installation root (populated on Windows by
// DetectMSVC, via go-vssetup, or left empty to rely on PATH when
// vcvarsall has already been run by the caller's shell).
type MSVCToolchain struct {
	VsRoot      string
	HostArch    string // e.g. "x64"
	TargetArch  string // e.g. "x64"
	VcvarsEnv   EnvOverlay // captured once by InitEnvironment
	vsVersion   string
}

func NewMSVCToolchain(vsRoot, hostArch, targetArch, version string) *MSVCToolchain {
	if hostArch == "" {
		hostArch = "x64"
	}
	if targetArch == "" {
		targetArch = hostArch
	}
	return &MSVCToolchain{VsRoot: vsRoot, HostArch: hostArch, TargetArch: targetArch, vsVersion: version}
}

func (m *MSVCToolchain) Identify() (string, string) {
	if m.vsVersion == "" {
		return "msvc", "unknown"
	}
	return "msvc", m.vsVersion
}

func (m *MSVCToolchain) CompilerPath(isCxx bool) string { return "cl.exe" }
func (m *MSVCToolchain) LinkerPath(isCxx bool) string   { return "link.exe" }
func (m *MSVCToolchain) ArchiverPath() string           { return "lib.exe" }

// InitEnvironment shells out to vsRoot's vcvarsall.bat (windows-only; see
// runVcvarsall) and caches the resulting INCLUDE/LIB/LIBPATH/PATH
// overlay, so cl.exe/link.exe/lib.exe child processes can find the MSVC
// toolset without the invoking shell having run vcvarsall itself. A
// caller that already ran vcvarsall (no VsRoot known) gets a nil overlay
// and relies on the ambient environment instead.
func (m *MSVCToolchain) InitEnvironment() (EnvOverlay, error) {
	if m.VcvarsEnv != nil {
		return m.VcvarsEnv, nil
	}
	if m.VsRoot == "" {
		return nil, nil
	}
	overlay, err := runVcvarsall(m.VsRoot, m.HostArch, m.TargetArch)
	if err != nil {
		return nil, err
	}
	m.VcvarsEnv = overlay
	return overlay, nil
}

func (m *MSVCToolchain) stdFlag(isCxx bool, cStd, cxxStd string) string {
	if isCxx {
		if cxxStd == "" {
			cxxStd = "c++17"
		}
		return "/std:" + normalizeMSVCStd(cxxStd)
	}
	if cStd == "" {
		return ""
	}
	return "/std:" + normalizeMSVCStd(cStd)
}

func normalizeMSVCStd(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "c++", "c++")
	s = strings.ReplaceAll(s, "gnu++", "c++")
	return s
}

func (m *MSVCToolchain) configFlags(cfg Configuration) []string {
	switch cfg {
	case Release:
		return []string{"/O2", "/DNDEBUG", "/MD"}
	case RelWithDebInfo:
		return []string{"/O2", "/Zi", "/DNDEBUG", "/MD"}
	case MinSizeRel:
		return []string{"/O1", "/DNDEBUG", "/MD"}
	default: // Debug
		return []string{"/Od", "/Zi", "/D_DEBUG", "/MDd"}
	}
}

func (m *MSVCToolchain) EmitCompileCommand(opts CompileOptions) Command {
	var args []string

	args = append(args, "/nologo", "/c", "/utf-8", "/EHsc")

	if std := m.stdFlag(opts.IsCxx, opts.CStandard, opts.CxxStandard); std != "" {
		args = append(args, std)
	}
	args = append(args, m.configFlags(opts.Configuration)...)

	for _, dir := range opts.IncludeDirs {
		args = append(args, "/I"+dir)
	}
	for _, name := range sortedDefineKeys(opts.Defines) {
		v := opts.Defines[name]
		if v == "" {
			args = append(args, "/D"+name)
		} else {
			args = append(args, fmt.Sprintf("/D%s=%s", name, v))
		}
	}

	args = append(args, opts.ExtraFlags...)

	if opts.GenerateDeps {
		args = append(args, "/showIncludes", "/English-")
	}

	args = append(args, opts.Source, "/Fo"+opts.OutputObject)
	return Command{Executable: "cl.exe", Args: args}
}

func (m *MSVCToolchain) EmitLinkCommand(opts LinkOptions) Command {
	if opts.Kind == StaticLibrary {
		args := []string{"/nologo", "/OUT:" + opts.Output}
		args = append(args, opts.Objects...)
		return Command{Executable: "lib.exe", Args: args}
	}

	args := []string{"/nologo", "/OUT:" + opts.Output}
	if opts.Kind == SharedLibrary {
		args = append(args, "/DLL")
	}
	if opts.Configuration.IsDebug() {
		args = append(args, "/DEBUG")
	}
	for _, dir := range opts.LibraryDirs {
		args = append(args, "/LIBPATH:"+dir)
	}
	args = append(args, opts.Objects...)
	for _, lib := range opts.Libraries {
		args = append(args, withLibExt(lib))
	}
	args = append(args, opts.ExtraFlags...)
	return Command{Executable: "link.exe", Args: args}
}

func withLibExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".lib") {
		return name
	}
	return name + ".lib"
}

func (m *MSVCToolchain) ParseHeaderDeps(stdout []byte, _ []byte) []string {
	return ParseShowIncludes(stdout)
}

func (m *MSVCToolchain) IsSystemHeader(path string) bool {
	clean := filepath.Clean(path)
	if m.VsRoot != "" && isUnderAnyRoot(clean, []string{m.VsRoot}) {
		return true
	}
	lower := strings.ToLower(clean)
	return strings.Contains(lower, `windows kits`) || strings.Contains(lower, `microsoft visual studio`)
}
