// Package driver orchestrates one end-to-end build: locate the project,
// evaluate its build script, freeze the model, build the dependency
// graph, detect a toolchain, and run the Compile and Link Schedulers.
// Grounded on internal/builder/builder.go's Builder/NewBuilderInDirectory/
// Build/BuildAndRun, generalized from "always cwd, Qobs.toml" to an
// upward lbt.toml search and the spec's explicit multi-step orchestration
// sequence.
package driver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/KhaosTian/LaurelBuildTool/internal/cache"
	"github.com/KhaosTian/LaurelBuildTool/internal/graph"
	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
	"github.com/KhaosTian/LaurelBuildTool/internal/model"
	"github.com/KhaosTian/LaurelBuildTool/internal/msg"
	"github.com/KhaosTian/LaurelBuildTool/internal/progress"
	"github.com/KhaosTian/LaurelBuildTool/internal/scheduler"
	"github.com/KhaosTian/LaurelBuildTool/internal/scripthost"
	"github.com/KhaosTian/LaurelBuildTool/internal/toolchain"
)

// ManifestName is the static project manifest the Driver searches for,
// analogous to the teacher's Qobs.toml.
const ManifestName = "lbt.toml"

// ScriptName is the build script evaluated against the frozen model.
const ScriptName = "build.cs"

// StateDirName holds the persistent incremental-build cache, separate
// from the build output tree. Clean removes both build/ and the cache
// file in here, keeping only the directory's .gitignore.
const StateDirName = ".lbt"

// CacheFileName is the cache file within StateDirName.
const CacheFileName = "cache.json"

// Manifest is the static [project]/[dependencies] shape parsed out of
// lbt.toml before build.cs runs, grounded on internal/builder/config.go's
// Config/PackageSection. No [profile.*] tables are read.
type Manifest struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Dependencies map[string]string `toml:"dependencies"`
}

// Driver is one located project's build session.
type Driver struct {
	BaseDir   string
	BuildDir  string // <root>/build, the configuration-agnostic parent
	ConfigDir string // <root>/build/<config>, populated once evaluate() resolves the configuration
	StateDir  string // <root>/.lbt
	Manifest  Manifest
	Model     *model.Model
	Toolchain toolchain.Toolchain
	EnvOverlay toolchain.EnvOverlay
	Cache     *cache.Cache
	Jobs      int

	ConfigurationOverride string
	ToolchainOverride     string
}

// Locate searches startDir and its ancestors for lbt.toml, mirroring the
// upward-search convention most build tools use for their manifest
// (the teacher instead always assumes the given path directly).
func Locate(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &lbterrors.ConfigError{Msg: fmt.Sprintf("no %s found in %s or any parent directory", ManifestName, startDir)}
		}
		dir = parent
	}
}

// New locates and loads a project rooted at or above startDir.
func New(startDir string) (*Driver, error) {
	baseDir, err := Locate(startDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(baseDir, ManifestName))
	if err != nil {
		return nil, &lbterrors.IoError{Msg: "reading " + ManifestName, Err: err}
	}
	var manifest Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, &lbterrors.ConfigError{Msg: "parsing " + ManifestName, Err: err}
	}

	return &Driver{
		BaseDir:  baseDir,
		BuildDir: filepath.Join(baseDir, "build"),
		StateDir: filepath.Join(baseDir, StateDirName),
		Manifest: manifest,
		Jobs:     runtime.NumCPU(),
	}, nil
}

// evaluate runs build.cs against a fresh model.Model, applies CLI
// overrides, freezes the model, and resolves the dependency graph.
func (d *Driver) evaluate() (*graph.Graph, error) {
	d.Model = model.NewModel()
	d.Model.SetProjectName(d.Manifest.Project.Name)
	d.Model.SetVersion(d.Manifest.Project.Version)

	scriptPath := filepath.Join(d.BaseDir, ScriptName)
	if _, err := os.Stat(scriptPath); err == nil {
		if err := scripthost.RunFile(d.Model, d.BaseDir, scriptPath); err != nil {
			return nil, err
		}
	}

	if d.ConfigurationOverride != "" {
		if err := d.Model.SetConfiguration(d.ConfigurationOverride); err != nil {
			return nil, err
		}
	}
	if d.ToolchainOverride != "" {
		d.Model.SetToolchainPreference(d.ToolchainOverride)
	}

	if err := d.Model.Freeze(); err != nil {
		return nil, err
	}
	d.ConfigDir = filepath.Join(d.BuildDir, d.Model.Settings.Configuration.String())

	g, err := graph.Build(d.Model)
	if err != nil {
		return nil, err
	}
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &lbterrors.CycleError{Path: cycle}
	}
	return g, nil
}

// Build runs the full evaluate -> detect -> init-env -> compile -> link
// sequence, per spec's Driver orchestration steps.
func (d *Driver) Build(ctx context.Context) error {
	g, err := d.evaluate()
	if err != nil {
		return err
	}

	tc, err := toolchain.Detect(d.Model.Settings.ToolchainPreference, d.Model.Settings.Arch, d.Model.Settings.Arch)
	if err != nil {
		return err
	}
	d.Toolchain = tc

	overlay, err := tc.InitEnvironment()
	if err != nil {
		// toolchain environment setup failures warn and continue, per
		// spec's "warn, don't abort" rule for non-fatal toolchain issues.
		msg.Warn("toolchain environment setup failed: %v", err)
	} else {
		d.EnvOverlay = overlay
	}

	if err := os.MkdirAll(d.ConfigDir, 0o755); err != nil {
		return &lbterrors.IoError{Msg: "creating build directory", Err: err}
	}
	if err := d.ensureStateDir(); err != nil {
		return err
	}
	d.Cache = cache.Open(d.StateDir, CacheFileName)

	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}

	candidates := d.compileCandidates(g, order)
	plan, err := scheduler.Plan(d.Cache, candidates, tc)
	if err != nil {
		return err
	}

	rebuilt := make(map[string]bool, len(plan.Tasks))
	if len(plan.Tasks) > 0 {
		counter := progress.NewCounter(int64(len(plan.Tasks)), 0, os.Stdout)
		results, err := scheduler.Run(ctx, d.Cache, tc, d.EnvOverlay, plan, d.Jobs, counter)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err == nil {
				rebuilt[r.Task.Object] = true
			}
		}
	}

	linkTasks, err := scheduler.PlanLinks(d.Cache, g, d.Model, tc, order, rebuilt, d.ConfigDir)
	if err != nil {
		return err
	}
	if len(linkTasks) > 0 {
		if _, err := scheduler.RunLinks(ctx, d.Cache, tc, d.EnvOverlay, linkTasks); err != nil {
			return err
		}
	}

	if err := d.Cache.Save(); err != nil {
		msg.Warn("failed to save build cache: %v", err)
	}

	return nil
}

// compileCandidates builds one CompileTask per source file across every
// target in the frozen model, using the graph's effective-include-dir
// resolution for each target's compile flags.
func (d *Driver) compileCandidates(g *graph.Graph, order []string) []scheduler.CompileTask {
	var tasks []scheduler.CompileTask
	for _, name := range order {
		t, ok := d.Model.Target(name)
		if !ok || t.Kind == model.InterfaceOnly {
			continue
		}

		includeDirs, err := g.EffectiveIncludeDirs(name)
		if err != nil {
			continue
		}

		for _, src := range t.Sources {
			obj := objectPath(d.ConfigDir, name, t.BaseDir, src)
			isCxx := isCxxSource(src)
			depFile := obj + ".d"

			defines := mergedDefines(d.Model.Settings.GlobalDefines, t.Defines)
			tasks = append(tasks, scheduler.CompileTask{
				Target:  name,
				Source:  src,
				Object:  obj,
				DepFile: depFile,
				Opts: toolchain.CompileOptions{
					Source:        src,
					OutputObject:  obj,
					Configuration: d.Model.Settings.Configuration,
					IsCxx:         isCxx,
					CStandard:     d.Model.Settings.CStandard,
					CxxStandard:   d.Model.Settings.CxxStandard,
					IncludeDirs:   includeDirs,
					Defines:       defines,
					ExtraFlags:    t.CompilerFlags,
					GenerateDeps:  true,
					DepFilePath:   depFile,
				},
			})
		}
	}
	return tasks
}

func mergedDefines(global, local map[string]string) map[string]string {
	out := make(map[string]string, len(global)+len(local))
	for k, v := range global {
		out[k] = v
	}
	for k, v := range local {
		out[k] = v
	}
	return out
}

func isCxxSource(path string) bool {
	switch filepath.Ext(path) {
	case ".cpp", ".cc", ".cxx", ".c++":
		return true
	default:
		return false
	}
}

func objectPath(buildDir, targetName, baseDir, source string) string {
	rel, err := filepath.Rel(baseDir, source)
	if err != nil {
		rel = filepath.Base(source)
	}
	return filepath.Join(buildDir, targetName+".dir", rel+".o")
}

// ensureStateDir creates the .lbt state directory and, on first creation,
// scaffolds a .gitignore excluding its entire contents — the cache file
// is local build-machine state, never meant to be committed.
func (d *Driver) ensureStateDir() error {
	if _, err := os.Stat(d.StateDir); err == nil {
		return nil
	}
	if err := os.MkdirAll(d.StateDir, 0o755); err != nil {
		return &lbterrors.IoError{Msg: "creating state directory", Err: err}
	}
	gitignore := filepath.Join(d.StateDir, ".gitignore")
	if err := os.WriteFile(gitignore, []byte("*\n"), 0o644); err != nil {
		return &lbterrors.IoError{Msg: "writing .lbt/.gitignore", Err: err}
	}
	return nil
}

// Clean removes the build directory and the persistent cache store,
// leaving .lbt/.gitignore in place.
func (d *Driver) Clean() error {
	if err := os.RemoveAll(d.BuildDir); err != nil {
		return &lbterrors.IoError{Msg: "removing build directory", Err: err}
	}
	cachePath := filepath.Join(d.StateDir, CacheFileName)
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return &lbterrors.IoError{Msg: "removing cache file", Err: err}
	}
	return nil
}

// Run builds the project, then executes the named executable target
// (or the sole executable target, if exactly one exists) with args.
func (d *Driver) Run(ctx context.Context, targetName string, args []string) error {
	if err := d.Build(ctx); err != nil {
		return err
	}

	t, err := d.resolveRunnable(targetName)
	if err != nil {
		return err
	}

	artifact := filepath.Join(d.ConfigDir, artifactName(t, d.Model))
	cmd := exec.CommandContext(ctx, artifact, args...)
	cmd.Dir = d.ConfigDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return &lbterrors.ToolchainError{Msg: fmt.Sprintf("running %s", artifact), Fatal: true}
	}
	return nil
}

func (d *Driver) resolveRunnable(name string) (*model.Target, error) {
	if name != "" {
		t, ok := d.Model.Target(name)
		if !ok {
			return nil, &lbterrors.ConfigError{Msg: fmt.Sprintf("unknown target %q", name)}
		}
		if t.Kind != model.Executable {
			return nil, &lbterrors.ConfigError{Msg: fmt.Sprintf("target %q is not executable", name)}
		}
		return t, nil
	}

	var exes []*model.Target
	for _, t := range d.Model.Targets() {
		if t.Kind == model.Executable {
			exes = append(exes, t)
		}
	}
	switch len(exes) {
	case 0:
		return nil, &lbterrors.ConfigError{Msg: "no executable target defined"}
	case 1:
		return exes[0], nil
	default:
		return nil, &lbterrors.ConfigError{Msg: "multiple executable targets defined; specify one by name"}
	}
}

func artifactName(t *model.Target, m *model.Model) string {
	name := t.Name
	if m.Settings.Platform == "windows" || runtime.GOOS == "windows" {
		name += ".exe"
	}
	if m.Settings.Configuration.IsDebug() {
		ext := filepath.Ext(name)
		name = name[:len(name)-len(ext)] + "_d" + ext
	}
	return name
}
