package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestLocateFindsManifestInAncestor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\n")
	sub := filepath.Join(root, "src", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := Locate(sub)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if found != root {
		t.Fatalf("Locate = %q, want %q", found, root)
	}
}

func TestLocateFailsWithNoManifest(t *testing.T) {
	dir := t.TempDir()
	if _, err := Locate(dir); err == nil {
		t.Fatal("expected error when no manifest is found")
	}
}

func TestNewParsesManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\nversion = \"1.0.0\"\n")

	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Manifest.Project.Name != "demo" || d.Manifest.Project.Version != "1.0.0" {
		t.Fatalf("Manifest = %+v, want name=demo version=1.0.0", d.Manifest)
	}
}

func TestEvaluateBuildsModelFromScript(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\nversion = \"0.1.0\"\n")
	writeFile(t, filepath.Join(root, "src", "main.cpp"), "int main(){}")
	writeFile(t, filepath.Join(root, ScriptName), `Languages("c++17"); Executable("app").Sources("src/main.cpp")`)

	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g, err := d.evaluate()
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if len(order) != 1 || order[0] != "app" {
		t.Fatalf("order = %v, want [app]", order)
	}
}

func TestCleanRemovesBuildDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\n")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	writeFile(t, filepath.Join(d.BuildDir, "marker"), "x")

	if err := d.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(d.BuildDir); !os.IsNotExist(err) {
		t.Fatalf("expected build dir to be removed, stat err = %v", err)
	}
}

func TestCleanRemovesCacheFileButKeepsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\n")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.ensureStateDir(); err != nil {
		t.Fatalf("ensureStateDir: %v", err)
	}
	cachePath := filepath.Join(d.StateDir, CacheFileName)
	writeFile(t, cachePath, "{}")

	if err := d.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Fatalf("expected cache file to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(d.StateDir, ".gitignore")); err != nil {
		t.Fatalf("expected .lbt/.gitignore to survive Clean: %v", err)
	}
}

func TestEvaluateResolvesConfigDirUnderConfigurationName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\nversion = \"0.1.0\"\n")
	writeFile(t, filepath.Join(root, "src", "main.cpp"), "int main(){}")
	writeFile(t, filepath.Join(root, ScriptName), `Languages("c++17"); Executable("app").Sources("src/main.cpp")`)

	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d.evaluate(); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	want := filepath.Join(d.BuildDir, d.Model.Settings.Configuration.String())
	if d.ConfigDir != want {
		t.Fatalf("ConfigDir = %q, want %q", d.ConfigDir, want)
	}
	if d.ConfigDir == d.BuildDir {
		t.Fatal("ConfigDir must be a configuration-named subdirectory of BuildDir, not BuildDir itself")
	}
}

func TestBuildScaffoldsStateDirWithGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "[project]\nname = \"demo\"\nversion = \"0.1.0\"\n")
	writeFile(t, filepath.Join(root, "src", "main.cpp"), "int main(){}")
	writeFile(t, filepath.Join(root, ScriptName), `Languages("c++17"); Executable("app").Sources("src/main.cpp")`)

	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d.evaluate(); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if err := d.ensureStateDir(); err != nil {
		t.Fatalf("ensureStateDir: %v", err)
	}

	wantStateDir := filepath.Join(root, StateDirName)
	if d.StateDir != wantStateDir {
		t.Fatalf("StateDir = %q, want %q", d.StateDir, wantStateDir)
	}
	gitignore, err := os.ReadFile(filepath.Join(wantStateDir, ".gitignore"))
	if err != nil {
		t.Fatalf("reading .lbt/.gitignore: %v", err)
	}
	if string(gitignore) != "*\n" {
		t.Fatalf(".lbt/.gitignore = %q, want \"*\\n\"", string(gitignore))
	}
}
