package toolchain

// ClangToolchain drives a Clang-compatible compiler/linker pair. It shares
// its flag assembly with GCCToolchain (both speak the same driver
// dialect) and differs only in executable names and version probing.
type ClangToolchain struct {
	CC      string
	CXX     string
	AR      string
	version string
}

func NewClangToolchain(cc, cxx, ar string) *ClangToolchain {
	if cc == "" {
		cc = "clang"
	}
	if cxx == "" {
		cxx = "clang++"
	}
	if ar == "" {
		ar = "llvm-ar"
	}
	return &ClangToolchain{CC: cc, CXX: cxx, AR: ar}
}

func (c *ClangToolchain) Identify() (string, string) {
	if c.version == "" {
		c.version = probeVersion(c.CC, "-dumpversion")
	}
	return "clang", c.version
}

func (c *ClangToolchain) CompilerPath(isCxx bool) string {
	if isCxx {
		return c.CXX
	}
	return c.CC
}

func (c *ClangToolchain) LinkerPath(isCxx bool) string { return c.CompilerPath(isCxx) }
func (c *ClangToolchain) ArchiverPath() string         { return c.AR }

func (c *ClangToolchain) InitEnvironment() (EnvOverlay, error) { return nil, nil }

func (c *ClangToolchain) EmitCompileCommand(opts CompileOptions) Command {
	return Command{
		Executable: c.CompilerPath(opts.IsCxx),
		Args:       gccLikeCompileArgs(opts),
	}
}

func (c *ClangToolchain) EmitLinkCommand(opts LinkOptions) Command {
	useArchiver, args := gccLikeLinkArgs(opts)
	if useArchiver {
		return Command{Executable: c.ArchiverPath(), Args: args}
	}
	return Command{Executable: c.LinkerPath(opts.IsCxx), Args: args}
}

func (c *ClangToolchain) ParseHeaderDeps(_ []byte, depFileContent []byte) []string {
	return ParseMakeDepfile(depFileContent)
}

func (c *ClangToolchain) IsSystemHeader(path string) bool {
	return isUnderAnyRoot(path, posixSystemRoots)
}
