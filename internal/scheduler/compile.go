// Package scheduler runs the Compile and Link Schedulers: bounded
// parallel compile jobs consulting the incremental cache, followed by a
// per-target link pass that walks the dependency graph. Grounded on
// gen/qobsbuilder.go's runJobs/runCompileJob/runLinkJob/executeBuild,
// generalized to richer per-task results and cache-backed skip decisions.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KhaosTian/LaurelBuildTool/internal/cache"
	"github.com/KhaosTian/LaurelBuildTool/internal/fingerprint"
	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
	"github.com/KhaosTian/LaurelBuildTool/internal/progress"
	"github.com/KhaosTian/LaurelBuildTool/internal/toolchain"
)

// CompileTask is one translation unit to compile.
type CompileTask struct {
	Target       string
	Source       string
	Object       string
	DepFile      string
	Opts         toolchain.CompileOptions
}

// CompileResult captures the outcome of one compile task.
type CompileResult struct {
	Task     CompileTask
	Skipped  bool
	Err      error
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CompilePlan is the set of tasks the Compile Scheduler will actually run,
// after consulting the cache; tasks that are up to date are never
// attempted.
type CompilePlan struct {
	Tasks   []CompileTask
	Skipped []CompileTask
}

// Plan consults c for each candidate task and partitions them into tasks
// that need to run and tasks that are already up to date, per
// qobsbuilder.go's isSourceFileDirty check generalized to the cache's
// richer NeedsRecompile.
func Plan(c *cache.Cache, candidates []CompileTask, tc toolchain.Toolchain) (CompilePlan, error) {
	id, version := tc.Identify()
	var plan CompilePlan
	for _, task := range candidates {
		argsFP := CompileArgsFingerprint(tc, task.Opts)
		dirty, err := c.NeedsRecompile(task.Object, task.Source, argsFP, id, version)
		if err != nil {
			return CompilePlan{}, err
		}
		if dirty {
			plan.Tasks = append(plan.Tasks, task)
		} else {
			plan.Skipped = append(plan.Skipped, task)
		}
	}
	return plan, nil
}

// Run executes plan.Tasks with up to limit concurrent workers, recording
// each successful compile's fingerprints and header deps into c, and
// reporting progress through counter. Returns the first error encountered
// (via errgroup) after all in-flight workers settle.
func Run(ctx context.Context, c *cache.Cache, tc toolchain.Toolchain, env toolchain.EnvOverlay, plan CompilePlan, limit int, counter *progress.Counter) ([]CompileResult, error) {
	results := make([]CompileResult, len(plan.Tasks))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, task := range plan.Tasks {
		i, task := i, task
		eg.Go(func() error {
			res := runOne(egCtx, tc, env, task)
			results[i] = res

			if res.Err == nil {
				id, version := tc.Identify()
				argsFP := CompileArgsFingerprint(tc, task.Opts)
				srcFP, hashErr := c.FileFingerprint(task.Source)
				if hashErr == nil {
					headerDeps := readHeaderDeps(tc, task, res.Stdout)
					_ = c.RecordCompilation(cache.CompileUnit{
						Source:            task.Source,
						Object:            task.Object,
						SourceFingerprint: srcFP,
						ArgsFingerprint:   argsFP,
						ToolchainID:       id,
						ToolchainVersion:  version,
					}, headerDeps)
				}
			}

			if counter != nil {
				counter.Advance(res.Err == nil)
			}
			if res.Err != nil {
				return &lbterrors.CompileError{
					Source: task.Source,
					Stdout: res.Stdout,
					Stderr: res.Stderr,
					Err:    res.Err,
				}
			}
			return nil
		})
	}

	err := eg.Wait()
	if counter != nil {
		counter.Finish()
	}
	return results, err
}

func runOne(ctx context.Context, tc toolchain.Toolchain, env toolchain.EnvOverlay, task CompileTask) CompileResult {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(task.Object), 0o755); err != nil {
		return CompileResult{Task: task, Err: fmt.Errorf("creating object directory: %w", err)}
	}

	command := tc.EmitCompileCommand(task.Opts)
	cmd := exec.CommandContext(ctx, command.Executable, command.Args...)
	cmd.Env = applyEnvOverlay(env)

	var stdout, stderr buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return CompileResult{
		Task:     task,
		Err:      err,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
}

// readHeaderDeps resolves the header set a just-completed compile
// produced: from the dep file on disk for GCC/Clang, or from captured
// stdout for MSVC's /showIncludes. System headers (identified by
// tc.IsSystemHeader) are dropped here per spec's "deps-hash over the
// sorted non-system header content hashes" rule — recording them would
// make the cache sensitive to SDK/toolchain header churn that has nothing
// to do with the project.
func readHeaderDeps(tc toolchain.Toolchain, task CompileTask, stdout string) []string {
	var depFileContent []byte
	if task.DepFile != "" {
		if data, err := os.ReadFile(task.DepFile); err == nil {
			depFileContent = data
		}
	}

	all := tc.ParseHeaderDeps([]byte(stdout), depFileContent)
	deps := make([]string, 0, len(all))
	for _, h := range all {
		if !tc.IsSystemHeader(h) {
			deps = append(deps, h)
		}
	}
	return deps
}

// CompileArgsFingerprint hashes the full assembled compiler command line
// for opts, not just its raw ExtraFlags: include dirs, defines, the
// configuration, and the language standard all change the emitted
// arguments and must invalidate the cache when they change, per spec's
// cache-soundness requirement.
func CompileArgsFingerprint(tc toolchain.Toolchain, opts toolchain.CompileOptions) string {
	return fingerprint.HashStrings(tc.EmitCompileCommand(opts).Args)
}
