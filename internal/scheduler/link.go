package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/KhaosTian/LaurelBuildTool/internal/cache"
	"github.com/KhaosTian/LaurelBuildTool/internal/fingerprint"
	"github.com/KhaosTian/LaurelBuildTool/internal/graph"
	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
	"github.com/KhaosTian/LaurelBuildTool/internal/model"
	"github.com/KhaosTian/LaurelBuildTool/internal/toolchain"
)

// LinkTask is one target's link or archive step.
type LinkTask struct {
	Target string
	Opts   toolchain.LinkOptions
}

// LinkResult captures the outcome of one link task.
type LinkResult struct {
	Task    LinkTask
	Skipped bool
	Err     error
	Stdout  string
	Stderr  string
}

// PlanLinks builds one LinkTask per target that needs it: a target needs
// relinking when any of its own compile tasks ran, its output artifact is
// missing, or any dependency it links against was itself rebuilt —
// mirroring qobsbuilder.go's planBuild relink-reason accounting, now
// walking the full dependency graph instead of one flat list.
func PlanLinks(c *cache.Cache, g *graph.Graph, m *model.Model, tc toolchain.Toolchain, order []string, rebuiltObjects map[string]bool, buildDir string) ([]LinkTask, error) {
	toolchainID, _ := tc.Identify()
	rebuiltTargets := make(map[string]bool)
	var tasks []LinkTask

	for _, name := range order {
		t, ok := m.Target(name)
		if !ok {
			continue
		}
		if t.Kind == model.InterfaceOnly {
			continue
		}

		ownObjects := make([]string, 0, len(t.Sources))
		targetDirty := false
		for _, src := range t.Sources {
			obj := objectPathFor(buildDir, name, t.BaseDir, src)
			ownObjects = append(ownObjects, obj)
			if rebuiltObjects[obj] {
				targetDirty = true
			}
		}

		for _, dep := range t.Dependencies {
			if rebuiltTargets[dep] {
				targetDirty = true
			}
		}

		isMSVC := toolchainID == "msvc"
		depObjects, depLibs, depLibDirs := collectDependencyLinkInputs(g, m, buildDir, name, isMSVC)

		objects := append(append([]string(nil), ownObjects...), depObjects...)
		libDirs := append(append([]string(nil), t.LibSearchDirs...), depLibDirs...)
		var libs []string
		libs = append(libs, depLibs...)
		libs = append(libs, t.ExternalLibs...)
		libs = append(libs, t.SystemLibs...)

		output := artifactPath(buildDir, t, m)

		opts := toolchain.LinkOptions{
			Objects:     objects,
			Output:      output,
			LibraryDirs: libDirs,
			Libraries:   libs,
			ExtraFlags:  t.LinkerFlags,
		}
		argsFP := linkArgsFingerprint(opts)
		inputFP := linkInputFingerprint(opts)

		needsRelink := targetDirty
		if !needsRelink {
			needsRelink = c.NeedsRelink(output, name, argsFP, inputFP, toolchainID)
		}

		if needsRelink {
			rebuiltTargets[name] = true
			kind := toToolchainKind(t.Kind)

			tasks = append(tasks, LinkTask{
				Target: name,
				Opts: toolchain.LinkOptions{
					Objects:     objects,
					Output:      output,
					Kind:        kind,
					LibraryDirs: libDirs,
					Libraries:   libs,
					ExtraFlags:  t.LinkerFlags,
					IsCxx:       hasCxxSources(t),
				},
			})
		}
	}

	return tasks, nil
}

// RunLinks executes link tasks serially (link order already respects the
// dependency graph, and linking is typically I/O- rather than CPU-bound
// relative to compilation, so no worker pool is used here).
func RunLinks(ctx context.Context, c *cache.Cache, tc toolchain.Toolchain, env toolchain.EnvOverlay, tasks []LinkTask) ([]LinkResult, error) {
	results := make([]LinkResult, 0, len(tasks))
	for _, task := range tasks {
		res := runLink(ctx, tc, env, task)
		results = append(results, res)
		if res.Err != nil {
			return results, &lbterrors.LinkError{Target: task.Target, Stdout: res.Stdout, Stderr: res.Stderr, Err: res.Err}
		}

		argsFP := linkArgsFingerprint(task.Opts)
		inputFP := linkInputFingerprint(task.Opts)
		id, _ := tc.Identify()
		c.RecordLink(cache.LinkUnit{
			Target:           task.Target,
			Output:           task.Opts.Output,
			ArgsFingerprint:  argsFP,
			InputFingerprint: inputFP,
			ToolchainID:      id,
		})
	}
	return results, nil
}

func runLink(ctx context.Context, tc toolchain.Toolchain, env toolchain.EnvOverlay, task LinkTask) LinkResult {
	if err := os.MkdirAll(filepath.Dir(task.Opts.Output), 0o755); err != nil {
		return LinkResult{Task: task, Err: fmt.Errorf("creating output directory: %w", err)}
	}

	command := tc.EmitLinkCommand(task.Opts)
	cmd := exec.CommandContext(ctx, command.Executable, command.Args...)
	cmd.Env = applyEnvOverlay(env)

	var stdout, stderr buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return LinkResult{Task: task, Err: err, Stdout: stdout.String(), Stderr: stderr.String()}
}

func toToolchainKind(k model.Kind) toolchain.Kind {
	switch k {
	case model.StaticLibrary:
		return toolchain.StaticLibrary
	case model.SharedLibrary:
		return toolchain.SharedLibrary
	case model.InterfaceOnly:
		return toolchain.InterfaceOnly
	default:
		return toolchain.Executable
	}
}

func hasCxxSources(t *model.Target) bool {
	for _, s := range t.Sources {
		if isCxxSource(s) {
			return true
		}
	}
	return false
}

func isCxxSource(path string) bool {
	switch filepath.Ext(path) {
	case ".cpp", ".cc", ".cxx", ".c++", ".hpp":
		return true
	default:
		return false
	}
}

func objectPathFor(buildDir, targetName, baseDir, source string) string {
	rel, err := filepath.Rel(baseDir, source)
	if err != nil {
		rel = filepath.Base(source)
	}
	return filepath.Join(buildDir, targetName+".dir", rel+".o")
}

func artifactPath(buildDir string, t *model.Target, m *model.Model) string {
	name := t.Name
	switch t.Kind {
	case model.StaticLibrary:
		name = libPrefix(m) + t.Name + staticExt(m)
	case model.SharedLibrary:
		name = libPrefix(m) + t.Name + sharedExt(m)
	case model.Executable:
		name = t.Name + exeExt(m)
	}
	if m.Settings.Configuration.IsDebug() && t.Kind != model.InterfaceOnly {
		name = withDebugSuffix(name, m)
	}
	return filepath.Join(buildDir, name)
}

func libPrefix(m *model.Model) string {
	if m.Settings.Platform == "windows" {
		return ""
	}
	return "lib"
}

func staticExt(m *model.Model) string {
	if m.Settings.Platform == "windows" {
		return ".lib"
	}
	return ".a"
}

func sharedExt(m *model.Model) string {
	switch m.Settings.Platform {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}

func exeExt(m *model.Model) string {
	if m.Settings.Platform == "windows" {
		return ".exe"
	}
	return ""
}

// withDebugSuffix inserts the "_d" debug-artifact marker before the
// extension, per spec's debug-suffix naming rule.
func withDebugSuffix(name string, m *model.Model) string {
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	return base + "_d" + ext
}

// collectDependencyLinkInputs walks name's transitive dependency targets
// and classifies each one per spec §4.7: a static-library dependency's
// artifact is appended directly to the object list (direct link); a
// shared-library dependency contributes its MSVC import library to the
// object list, or just its bare name to libraries on POSIX (a full path
// there would be invalid "-l<path>" syntax, since -l always means
// "lib<arg>.so/.a" rather than a literal file). Interface-only
// dependencies contribute neither — they exist only for transitive
// include/define propagation.
func collectDependencyLinkInputs(g *graph.Graph, m *model.Model, buildDir, name string, isMSVC bool) (objects, libs, libDirs []string) {
	for _, dep := range g.TransitiveDeps(name) {
		t, ok := m.Target(dep)
		if !ok || t.Kind == model.InterfaceOnly {
			continue
		}
		libDirs = append(libDirs, buildDir)
		switch t.Kind {
		case model.StaticLibrary:
			objects = append(objects, artifactPath(buildDir, t, m))
		case model.SharedLibrary:
			if isMSVC {
				objects = append(objects, importLibraryPath(buildDir, t, m))
			} else {
				libs = append(libs, t.Name)
			}
		}
	}
	return objects, libs, libDirs
}

// importLibraryPath returns the MSVC import-library path a shared-library
// target's link step also produces, named like a static library (no "lib"
// prefix, ".lib" extension, same debug suffix rule) but alongside the .dll.
func importLibraryPath(buildDir string, t *model.Target, m *model.Model) string {
	name := t.Name + ".lib"
	if m.Settings.Configuration.IsDebug() {
		name = withDebugSuffix(name, m)
	}
	return filepath.Join(buildDir, name)
}

// linkArgsFingerprint and linkInputFingerprint are shared between
// PlanLinks (deciding whether to relink) and RunLinks (recording what was
// actually linked), so a plan's relink decision and its recorded
// fingerprints always agree on what they hash.
func linkArgsFingerprint(opts toolchain.LinkOptions) string {
	args := append(append(append([]string(nil), opts.ExtraFlags...), opts.Libraries...), opts.LibraryDirs...)
	return fingerprint.HashStrings(args)
}

func linkInputFingerprint(opts toolchain.LinkOptions) string {
	return fingerprint.HashStrings(sortedCopy(opts.Objects))
}

func sortedCopy(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
