// Package cache implements the persistent incremental-build cache: a
// content- and argument-fingerprinted record of each compile unit and the
// header dependencies it picked up on its last successful compile.
//
// Stored as a single JSON file per spec's design notes (an explicitly
// sanctioned alternative to a SQLite-backed index), loaded once per
// invocation and rewritten atomically at the end of a build. Grounded on
// gen/qobsbuilder.go's BuildState/loadBuildState/saveBuildState, split
// into three normalized entities and extended with header-dependency
// tracking the teacher never did.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KhaosTian/LaurelBuildTool/internal/fingerprint"
	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
)

// FileMeta records a file's last-observed content fingerprint, keyed by
// its absolute path.
type FileMeta struct {
	Fingerprint string `json:"fingerprint"`
}

// HeaderDep is one header a compile unit picked up, recorded so a later
// build can tell whether the unit needs to recompile because a header it
// transitively includes changed.
type HeaderDep struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
}

// CompileUnit is the cached record for one source file's last successful
// compile.
type CompileUnit struct {
	Source           string      `json:"source"`
	Object           string      `json:"object"`
	SourceFingerprint string     `json:"source_fingerprint"`
	ArgsFingerprint  string      `json:"args_fingerprint"`
	ToolchainID      string      `json:"toolchain_id"`
	ToolchainVersion string      `json:"toolchain_version"`
	HeaderDeps       []HeaderDep `json:"header_deps,omitempty"`
}

// LinkUnit is the cached record for one target's last successful link.
type LinkUnit struct {
	Target           string   `json:"target"`
	Output           string   `json:"output"`
	ArgsFingerprint  string   `json:"args_fingerprint"`
	InputFingerprint string   `json:"input_fingerprint"` // hash of the sorted object and dependency-artifact paths
	ToolchainID      string   `json:"toolchain_id"`
}

// state is the on-disk document shape.
type state struct {
	Files    map[string]FileMeta    `json:"files"`
	Compiles map[string]CompileUnit `json:"compiles"` // keyed by object path
	Links    map[string]LinkUnit    `json:"links"`     // keyed by target name
}

// Cache is the in-memory, mutex-guarded view of one build directory's
// incremental state.
type Cache struct {
	mu       sync.RWMutex
	path     string
	st       state
	hashCache map[string]string // path -> fingerprint, scoped to one invocation
}

// Open loads the cache file at dir/<name> if present, or starts empty if
// it does not exist yet or fails to parse (a corrupt cache degrades to a
// full rebuild rather than aborting).
func Open(dir, name string) *Cache {
	c := &Cache{
		path: filepath.Join(dir, name),
		st: state{
			Files:    make(map[string]FileMeta),
			Compiles: make(map[string]CompileUnit),
			Links:    make(map[string]LinkUnit),
		},
		hashCache: make(map[string]string),
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return c
	}
	var loaded state
	if err := json.Unmarshal(data, &loaded); err != nil {
		return c
	}
	if loaded.Files != nil {
		c.st.Files = loaded.Files
	}
	if loaded.Compiles != nil {
		c.st.Compiles = loaded.Compiles
	}
	if loaded.Links != nil {
		c.st.Links = loaded.Links
	}
	return c
}

// FileFingerprint returns path's content fingerprint, memoized for the
// lifetime of this Cache instance (mirrors qobsbuilder.go's fileHash
// in-memory cache).
func (c *Cache) FileFingerprint(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.hashCache[path]; ok {
		return h, nil
	}
	h, err := fingerprint.HashFile(path)
	if err != nil {
		return "", err
	}
	c.hashCache[path] = h
	return h, nil
}

// NeedsRecompile reports whether a compile unit must be rebuilt: its
// object file is missing, no prior record exists, the source content or
// compile arguments changed, the toolchain differs, or any recorded
// header dependency changed. Always checks object-file existence first
// per spec, extending qobsbuilder.go's isSourceFileDirty object-existence
// check from sources-only to the full compile-unit record.
func (c *Cache) NeedsRecompile(objPath, sourcePath, argsFingerprint, toolchainID, toolchainVersion string) (bool, error) {
	if _, err := os.Stat(objPath); os.IsNotExist(err) {
		return true, nil
	}

	c.mu.RLock()
	unit, ok := c.st.Compiles[objPath]
	c.mu.RUnlock()
	if !ok {
		return true, nil
	}

	if unit.Source != sourcePath || unit.ArgsFingerprint != argsFingerprint {
		return true, nil
	}
	if unit.ToolchainID != toolchainID || unit.ToolchainVersion != toolchainVersion {
		return true, nil
	}

	srcHash, err := c.FileFingerprint(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, fmt.Errorf("source file %s not found", sourcePath)
		}
		return false, err
	}
	if unit.SourceFingerprint != srcHash {
		return true, nil
	}

	for _, dep := range unit.HeaderDeps {
		hash, err := c.FileFingerprint(dep.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return true, nil
			}
			return false, err
		}
		if hash != dep.Fingerprint {
			return true, nil
		}
	}

	return false, nil
}

// RecordCompilation stores a successful compile's fingerprints and
// discovered header set, replacing any prior record for the same object
// path.
func (c *Cache) RecordCompilation(unit CompileUnit, headerPaths []string) error {
	deps := make([]HeaderDep, 0, len(headerPaths))
	for _, p := range headerPaths {
		h, err := c.FileFingerprint(p)
		if err != nil {
			continue // a header that vanished between compile and record just drops out
		}
		deps = append(deps, HeaderDep{Path: p, Fingerprint: h})
	}
	unit.HeaderDeps = deps

	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Compiles[unit.Object] = unit
	return nil
}

// NeedsRelink reports whether a target's link step must rerun: its
// output artifact is missing, no prior record exists, or the argument or
// input fingerprint changed.
func (c *Cache) NeedsRelink(outputPath, target, argsFingerprint, inputFingerprint, toolchainID string) bool {
	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		return true
	}

	c.mu.RLock()
	unit, ok := c.st.Links[target]
	c.mu.RUnlock()
	if !ok {
		return true
	}
	return unit.ArgsFingerprint != argsFingerprint ||
		unit.InputFingerprint != inputFingerprint ||
		unit.ToolchainID != toolchainID
}

func (c *Cache) RecordLink(unit LinkUnit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Links[unit.Target] = unit
}

// Clear empties all recorded state, used by the clean command.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Files = make(map[string]FileMeta)
	c.st.Compiles = make(map[string]CompileUnit)
	c.st.Links = make(map[string]LinkUnit)
}

// Save persists the cache to disk atomically via a temp-file-then-rename,
// grounded on the rename-into-place idiom the teacher's now-dropped
// dep.go used for downloaded archives.
func (c *Cache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.st, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return &lbterrors.CacheError{Msg: "marshaling cache", Err: err}
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &lbterrors.CacheError{Msg: "creating cache directory", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return &lbterrors.CacheError{Msg: "creating temp cache file", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &lbterrors.CacheError{Msg: "writing temp cache file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &lbterrors.CacheError{Msg: "closing temp cache file", Err: err}
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return &lbterrors.CacheError{Msg: "renaming cache file into place", Err: err}
	}
	return nil
}
