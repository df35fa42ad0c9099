// Package scripthost evaluates a project's build.cs script against the
// in-memory Build Model, exposing a chainable callback surface as an
// expr-lang environment. Grounded on internal/builder/config.go's
// ConfigEnv/RunBuildScript expr-lang usage, generalized from "one boolean
// expression gating a TOML section" to a full multi-statement program
// that drives model.Model construction directly.
package scripthost

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
	"github.com/KhaosTian/LaurelBuildTool/internal/model"
)

// Env is the expr-lang environment a build.cs program runs against. Every
// method returns a value usable in further expr-lang expressions so
// scripts can chain calls the way the teacher's ConfigEnv.Patch/ReadFile
// do, generalized to a full target-construction surface.
type Env struct {
	BaseDir    string            `expr:"base_dir"`
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`

	m *model.Model
}

// New builds a script environment rooted at baseDir, evaluating against m.
func New(m *model.Model, baseDir string) *Env {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}
	return &Env{
		BaseDir:    baseDir,
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		m:          m,
	}
}

// Project sets the project name and version, returning the Env so script
// calls can be chained like qobs's fluent ConfigEnv methods.
func (e *Env) Project(name, version string) *Env {
	e.m.SetProjectName(name)
	e.m.SetVersion(version)
	return e
}

func (e *Env) Languages(specs ...string) *Env {
	if err := e.m.SetLanguages(specs...); err != nil {
		panic(err)
	}
	return e
}

func (e *Env) Configuration(name string) *Env {
	if err := e.m.SetConfiguration(name); err != nil {
		panic(err)
	}
	return e
}

func (e *Env) Toolchain(name string) *Env {
	e.m.SetToolchainPreference(name)
	return e
}

func (e *Env) Define(name, value string) *Env {
	e.m.AddGlobalDefines(map[string]string{name: value})
	return e
}

// Executable, StaticLibrary, SharedLibrary, and InterfaceLibrary are the
// per-kind target constructors a build.cs program calls; each returns a
// *TargetEnv so further chained calls (.Sources(...), .Link(...), ...)
// configure that one target.
func (e *Env) Executable(name string) *TargetEnv { return e.newTarget(name, model.Executable) }
func (e *Env) StaticLibrary(name string) *TargetEnv {
	return e.newTarget(name, model.StaticLibrary)
}
func (e *Env) SharedLibrary(name string) *TargetEnv {
	return e.newTarget(name, model.SharedLibrary)
}
func (e *Env) InterfaceLibrary(name string) *TargetEnv {
	return e.newTarget(name, model.InterfaceOnly)
}

func (e *Env) newTarget(name string, kind model.Kind) *TargetEnv {
	t, err := e.m.CreateTarget(name, kind, e.BaseDir)
	if err != nil {
		panic(err)
	}
	return &TargetEnv{t: t, env: e}
}

// Patch applies a unified-diff patch (in patchText) to path, relative to
// the script's base directory. Unchanged in spirit from the teacher's
// ConfigEnv.Patch — same diffmatchpatch call shape — but the patch text
// now always comes from the build script itself rather than a fetched
// dependency's patch file, since dependency fetching is out of scope.
func (e *Env) Patch(path, patchText string) bool {
	fullPath := filepath.Join(e.BaseDir, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		panic(err)
	}

	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patchText)
	if err != nil {
		panic(err)
	}
	patchedText, results := dmp.PatchApply(patches, string(data))
	applied := false
	for _, ok := range results {
		if ok {
			applied = true
			break
		}
	}
	if !applied {
		return false
	}

	if err := os.WriteFile(fullPath, []byte(patchedText), 0o644); err != nil {
		panic(err)
	}
	return true
}

// ReadFile reads path relative to the script's base directory, refusing
// to escape it.
func (e *Env) ReadFile(path string) string {
	fullPath := filepath.Join(e.BaseDir, path)
	rel, err := filepath.Rel(e.BaseDir, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		panic(fmt.Sprintf("path %q escapes base directory %q", path, e.BaseDir))
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// TargetEnv is the chainable configuration surface for one target,
// returned by Env.Executable/StaticLibrary/SharedLibrary/InterfaceLibrary.
type TargetEnv struct {
	t   *model.Target
	env *Env
}

func (te *TargetEnv) Sources(patterns ...string) *TargetEnv {
	te.t.AddSources(patterns...)
	return te
}

func (te *TargetEnv) Include(dirs ...string) *TargetEnv {
	te.t.AddIncludeDir(model.Private, dirs...)
	return te
}

func (te *TargetEnv) PublicInclude(dirs ...string) *TargetEnv {
	te.t.AddIncludeDir(model.Public, dirs...)
	return te
}

func (te *TargetEnv) ExportInclude(dirs ...string) *TargetEnv {
	te.t.AddExportedIncludeDir(dirs...)
	return te
}

func (te *TargetEnv) Define(name, value string) *TargetEnv {
	te.t.AddDefine(name, value)
	return te
}

func (te *TargetEnv) DependsOn(names ...string) *TargetEnv {
	te.t.AddDependencies(names...)
	return te
}

func (te *TargetEnv) Link(libs ...string) *TargetEnv {
	te.t.AddExternalLibs(libs...)
	return te
}

func (te *TargetEnv) LinkSystem(libs ...string) *TargetEnv {
	te.t.AddSystemLibs(libs...)
	return te
}

func (te *TargetEnv) LibSearchDirs(dirs ...string) *TargetEnv {
	te.t.AddLibSearchDirs(dirs...)
	return te
}

func (te *TargetEnv) CompilerFlags(flags ...string) *TargetEnv {
	te.t.AddCompilerFlags(flags...)
	return te
}

func (te *TargetEnv) LinkerFlags(flags ...string) *TargetEnv {
	te.t.AddLinkerFlags(flags...)
	return te
}

func (te *TargetEnv) PrecompiledHeader(path string) *TargetEnv {
	te.t.SetPrecompiledHeader(path)
	return te
}

// Done returns to the project-level Env, for scripts that prefer an
// explicit end-of-chain marker over just starting a new statement.
func (te *TargetEnv) Done() *Env { return te.env }

// RunFile compiles and runs the build.cs program at path against m,
// rooted at baseDir. Grounded on config.go's RunBuildScript, generalized
// from a single boolean-returning expression to a full statement program
// (expr-lang's expr.Compile/expr.Run already support this; the teacher
// only ever fed it single expressions).
func RunFile(m *model.Model, baseDir, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &lbterrors.IoError{Msg: fmt.Sprintf("reading build script %s", path), Err: err}
	}
	return Run(m, baseDir, string(data))
}

// Run compiles and executes source against m.
func Run(m *model.Model, baseDir, source string) (err error) {
	env := New(m, baseDir)

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &lbterrors.ConfigError{Msg: "build script panicked", Err: e}
			} else {
				err = &lbterrors.ConfigError{Msg: fmt.Sprintf("build script panicked: %v", r)}
			}
		}
	}()

	program, compileErr := expr.Compile(source, expr.Env(env), expr.AllowUndefinedVariables())
	if compileErr != nil {
		return &lbterrors.ConfigError{Msg: "compiling build script", Err: compileErr}
	}
	if _, runErr := expr.Run(program, env); runErr != nil {
		return &lbterrors.ConfigError{Msg: "running build script", Err: runErr}
	}
	return nil
}

// includeScriptName is the build script file looked for inside a directory
// named by Include, matching driver.ScriptName (duplicated rather than
// imported, since driver already imports scripthost and importing back
// would create a cycle).
const includeScriptName = "build.cs"

// Include evaluates <BaseDir>/<relPath>/build.cs against a nested Env
// rooted at that subdirectory, for build.cs programs that split
// configuration across multiple files (e.g. a per-subdirectory build.cs
// each adding its own targets). Each included script runs with its own
// directory as its base, per spec's "each script runs with its own
// directory as CWD during evaluation" rule — targets it creates resolve
// their sources and include dirs against the subdirectory, not the root.
func (e *Env) Include(relPath string) bool {
	subDir := filepath.Join(e.BaseDir, relPath)
	scriptPath := filepath.Join(subDir, includeScriptName)

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		panic(err)
	}

	nested := &Env{
		BaseDir:    subDir,
		TargetOS:   e.TargetOS,
		TargetArch: e.TargetArch,
		Environ:    e.Environ,
		m:          e.m,
	}

	program, err := expr.Compile(string(data), expr.Env(nested), expr.AllowUndefinedVariables())
	if err != nil {
		panic(err)
	}
	if _, err := expr.Run(program, nested); err != nil {
		panic(err)
	}
	return true
}
