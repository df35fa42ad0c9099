// Package model implements the in-memory Build Model: the named target set
// assembled by script callbacks during evaluation, then frozen and read by
// the dependency graph, toolchain, cache, and schedulers.
package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
	"github.com/KhaosTian/LaurelBuildTool/internal/toolchain"
)

// Kind is a target's output kind.
type Kind int

const (
	Executable Kind = iota
	StaticLibrary
	SharedLibrary
	InterfaceOnly
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "executable", "exe", "bin":
		return Executable, nil
	case "staticlibrary", "static", "staticlib":
		return StaticLibrary, nil
	case "sharedlibrary", "shared", "sharedlib", "dll", "dylib", "so":
		return SharedLibrary, nil
	case "interfaceonly", "interface", "headeronly":
		return InterfaceOnly, nil
	default:
		return 0, &lbterrors.ConfigError{Msg: fmt.Sprintf("unknown target kind %q", s)}
	}
}

func (k Kind) String() string {
	switch k {
	case Executable:
		return "Executable"
	case StaticLibrary:
		return "StaticLibrary"
	case SharedLibrary:
		return "SharedLibrary"
	case InterfaceOnly:
		return "InterfaceOnly"
	default:
		return "Unknown"
	}
}

// Visibility controls whether an include directory is private to its
// target or propagated transitively to dependents.
type Visibility int

const (
	Private Visibility = iota
	Public
)

func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "private":
		return Private, nil
	case "public":
		return Public, nil
	default:
		return 0, &lbterrors.ConfigError{Msg: fmt.Sprintf("unknown visibility %q", s)}
	}
}

// Target is one named build unit.
type Target struct {
	Name    string
	Kind    Kind
	BaseDir string

	sourcePatterns []string
	Sources        []string // resolved absolute paths, valid after Freeze

	PrivateIncludeDirs  []string
	PublicIncludeDirs   []string
	ExportedIncludeDirs []string

	Defines       map[string]string
	CompilerFlags []string
	LinkerFlags   []string

	Dependencies  []string // explicit target-name dependencies, insertion order, deduped
	ExternalLibs  []string // linked library names (may or may not match a target)
	SystemLibs    []string
	LibSearchDirs []string

	PrecompiledHeader string

	model *Model
	seen  map[string]struct{} // dedup set for Dependencies
}

func (t *Target) checkMutable() {
	if t.model != nil && t.model.frozen {
		panic(fmt.Sprintf("target %q: mutated after model freeze", t.Name))
	}
}

// AddSources registers glob patterns to resolve at Freeze time. A pattern
// prefixed with '!' excludes previously (or later) matched files.
func (t *Target) AddSources(patterns ...string) *Target {
	t.checkMutable()
	t.sourcePatterns = append(t.sourcePatterns, patterns...)
	return t
}

func (t *Target) AddIncludeDir(vis Visibility, dirs ...string) *Target {
	t.checkMutable()
	abs := t.absolutize(dirs)
	if vis == Public {
		t.PublicIncludeDirs = append(t.PublicIncludeDirs, abs...)
	} else {
		t.PrivateIncludeDirs = append(t.PrivateIncludeDirs, abs...)
	}
	return t
}

// AddExportedIncludeDir adds an include directory that is always public,
// including for InterfaceOnly targets which contribute only these.
func (t *Target) AddExportedIncludeDir(dirs ...string) *Target {
	t.checkMutable()
	t.ExportedIncludeDirs = append(t.ExportedIncludeDirs, t.absolutize(dirs)...)
	return t
}

func (t *Target) AddDefine(name, value string) *Target {
	t.checkMutable()
	if t.Defines == nil {
		t.Defines = make(map[string]string)
	}
	t.Defines[name] = value
	return t
}

func (t *Target) AddDefines(defines map[string]string) *Target {
	t.checkMutable()
	for k, v := range defines {
		t.AddDefine(k, v)
	}
	return t
}

func (t *Target) AddDependencies(names ...string) *Target {
	t.checkMutable()
	if t.seen == nil {
		t.seen = make(map[string]struct{})
	}
	for _, name := range names {
		if _, ok := t.seen[name]; ok {
			continue
		}
		t.seen[name] = struct{}{}
		t.Dependencies = append(t.Dependencies, name)
	}
	return t
}

func (t *Target) AddExternalLibs(names ...string) *Target {
	t.checkMutable()
	t.ExternalLibs = append(t.ExternalLibs, names...)
	return t
}

func (t *Target) AddSystemLibs(names ...string) *Target {
	t.checkMutable()
	t.SystemLibs = append(t.SystemLibs, names...)
	return t
}

func (t *Target) AddLibSearchDirs(dirs ...string) *Target {
	t.checkMutable()
	t.LibSearchDirs = append(t.LibSearchDirs, t.absolutize(dirs)...)
	return t
}

func (t *Target) AddCompilerFlags(flags ...string) *Target {
	t.checkMutable()
	t.CompilerFlags = append(t.CompilerFlags, flags...)
	return t
}

func (t *Target) AddLinkerFlags(flags ...string) *Target {
	t.checkMutable()
	t.LinkerFlags = append(t.LinkerFlags, flags...)
	return t
}

func (t *Target) SetPrecompiledHeader(path string) *Target {
	t.checkMutable()
	if path != "" {
		t.PrecompiledHeader = t.absolutize([]string{path})[0]
	}
	return t
}

func (t *Target) absolutize(dirs []string) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		if filepath.IsAbs(d) {
			out[i] = filepath.Clean(d)
		} else {
			out[i] = filepath.Clean(filepath.Join(t.BaseDir, d))
		}
	}
	return out
}

// resolveSources globs sourcePatterns against BaseDir, honoring '!'
// exclusions, and populates Sources with absolute, cleaned paths.
func (t *Target) resolveSources() error {
	sources, err := resolveGlobs(t.BaseDir, t.sourcePatterns)
	if err != nil {
		return err
	}
	t.Sources = sources
	return nil
}

// GlobalSettings is the process-wide configuration set once per
// invocation, frozen alongside the target set.
type GlobalSettings struct {
	ProjectName string
	Version     string
	CStandard   string // e.g. "c11"
	CxxStandard string // e.g. "c++17"
	Arch        string
	Platform    string

	GlobalDefines map[string]string

	ToolchainPreference string
	Configuration       toolchain.Configuration
}

// Model is the mutable registry filled in by script callbacks, then
// frozen and handed to the dependency graph, toolchain, cache, and
// schedulers as a read-only value.
type Model struct {
	mu       sync.Mutex
	frozen   bool
	Settings GlobalSettings

	targets map[string]*Target
	order   []string // insertion order, for Kahn tie-breaking
}

func NewModel() *Model {
	return &Model{
		targets: make(map[string]*Target),
		Settings: GlobalSettings{
			GlobalDefines: make(map[string]string),
			Configuration: toolchain.Debug,
		},
	}
}

func (m *Model) checkMutable() {
	if m.frozen {
		panic("model: mutated after freeze")
	}
}

func (m *Model) SetProjectName(name string) { m.checkMutable(); m.Settings.ProjectName = name }
func (m *Model) SetVersion(v string)         { m.checkMutable(); m.Settings.Version = v }
func (m *Model) SetArch(arch string)         { m.checkMutable(); m.Settings.Arch = arch }
func (m *Model) SetPlatform(plat string)     { m.checkMutable(); m.Settings.Platform = plat }

func (m *Model) SetToolchainPreference(name string) {
	m.checkMutable()
	m.Settings.ToolchainPreference = name
}

func (m *Model) AddGlobalDefines(defines map[string]string) {
	m.checkMutable()
	for k, v := range defines {
		m.Settings.GlobalDefines[k] = v
	}
}

// SetConfiguration parses a loose build-configuration string
// ("debug", "release", "relwithdebinfo", "minsizerel").
func (m *Model) SetConfiguration(s string) error {
	m.checkMutable()
	cfg, err := toolchain.ParseConfiguration(s)
	if err != nil {
		return err
	}
	m.Settings.Configuration = cfg
	return nil
}

// SetLanguages accepts either a structured "c11"/"c++17"-style pair or a
// single loose string like "c++17", updating whichever standard(s) it names.
func (m *Model) SetLanguages(specs ...string) error {
	m.checkMutable()
	for _, s := range specs {
		lower := strings.ToLower(strings.TrimSpace(s))
		switch {
		case strings.HasPrefix(lower, "c++") || strings.HasPrefix(lower, "cxx"):
			m.Settings.CxxStandard = normalizeStd(lower)
		case strings.HasPrefix(lower, "c"):
			m.Settings.CStandard = normalizeStd(lower)
		default:
			return &lbterrors.ConfigError{Msg: fmt.Sprintf("unrecognized language standard %q", s)}
		}
	}
	return nil
}

func normalizeStd(s string) string {
	s = strings.ReplaceAll(s, "cxx", "c++")
	return s
}

// CreateTarget registers a new target. Fails with ConfigError on a
// duplicate name.
func (m *Model) CreateTarget(name string, kind Kind, baseDir string) (*Target, error) {
	m.checkMutable()
	if _, exists := m.targets[name]; exists {
		return nil, &lbterrors.ConfigError{Msg: fmt.Sprintf("duplicate target name %q", name)}
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	t := &Target{
		Name:    name,
		Kind:    kind,
		BaseDir: abs,
		model:   m,
	}
	m.targets[name] = t
	m.order = append(m.order, name)
	return t, nil
}

func (m *Model) Target(name string) (*Target, bool) {
	t, ok := m.targets[name]
	return t, ok
}

// Targets returns every target in insertion order.
func (m *Model) Targets() []*Target {
	out := make([]*Target, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.targets[name])
	}
	return out
}

// Order returns the insertion-order index of name, or -1 if unknown. Used
// by the dependency graph to break topological-sort ties stably.
func (m *Model) Order(name string) int {
	for i, n := range m.order {
		if n == name {
			return i
		}
	}
	return -1
}

// Freeze resolves every target's source globs and locks the model against
// further mutation. The global settings are not validated here.
func (m *Model) Freeze() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frozen {
		return nil
	}
	for _, name := range m.order {
		if err := m.targets[name].resolveSources(); err != nil {
			return &lbterrors.ConfigError{Msg: fmt.Sprintf("resolving sources for %q", name), Err: err}
		}
	}
	m.frozen = true
	return nil
}

func (m *Model) Frozen() bool { return m.frozen }
