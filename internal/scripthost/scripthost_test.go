package scripthost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KhaosTian/LaurelBuildTool/internal/model"
)

func TestRunBuildsTargets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.cpp"), []byte("int main(){}"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := model.NewModel()
	script := `
Project("demo", "0.1.0");
Languages("c++17");
Executable("app").Sources("main.cpp").Define("DEMO", "1")
`
	if err := Run(m, dir, script); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if m.Settings.ProjectName != "demo" {
		t.Fatalf("ProjectName = %q, want demo", m.Settings.ProjectName)
	}
	target, ok := m.Target("app")
	if !ok {
		t.Fatal("expected target \"app\" to be created")
	}
	if target.Defines["DEMO"] != "1" {
		t.Fatalf("expected DEMO=1 define, got %v", target.Defines)
	}
}

func TestRunInvalidScriptReturnsConfigError(t *testing.T) {
	dir := t.TempDir()
	m := model.NewModel()
	if err := Run(m, dir, "this is not valid expr syntax {{{"); err == nil {
		t.Fatal("expected error for invalid script")
	}
}

func TestIncludeResolvesNestedScriptAgainstItsOwnDirectory(t *testing.T) {
	root := t.TempDir()
	subDir := filepath.Join(root, "mathlib")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(subDir, "add.cpp"), []byte("int add(int,int);"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(subDir, "build.cs"), []byte(
		`StaticLibrary("mathlib").Sources("add.cpp")`,
	), 0o644); err != nil {
		t.Fatal(err)
	}

	m := model.NewModel()
	script := `Include("mathlib")`
	if err := Run(m, root, script); err != nil {
		t.Fatalf("Run: %v", err)
	}

	target, ok := m.Target("mathlib")
	if !ok {
		t.Fatal("expected target \"mathlib\" to be created by the included script")
	}
	if target.BaseDir != subDir {
		t.Fatalf("BaseDir = %q, want %q (the included script's own directory)", target.BaseDir, subDir)
	}
	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if len(target.Sources) != 1 || filepath.Base(target.Sources[0]) != "add.cpp" {
		t.Fatalf("Sources = %v, want [.../mathlib/add.cpp]", target.Sources)
	}
}

func TestRunDuplicateTargetPanicsIntoError(t *testing.T) {
	dir := t.TempDir()
	m := model.NewModel()
	script := `
Executable("app");
Executable("app")
`
	if err := Run(m, dir, script); err == nil {
		t.Fatal("expected error for duplicate target name")
	}
}
