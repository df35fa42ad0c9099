package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateTargetRejectsDuplicate(t *testing.T) {
	m := NewModel()
	dir := t.TempDir()
	if _, err := m.CreateTarget("app", Executable, dir); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if _, err := m.CreateTarget("app", Executable, dir); err == nil {
		t.Fatal("expected error creating a duplicate target name")
	}
}

func TestFreezeResolvesSources(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.cpp"), []byte("// a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.cpp"), []byte("// b"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewModel()
	target, err := m.CreateTarget("app", Executable, dir)
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	target.AddSources("*.cpp")

	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if len(target.Sources) != 2 {
		t.Fatalf("Sources = %v, want 2 entries", target.Sources)
	}
}

func TestMutationAfterFreezePanics(t *testing.T) {
	m := NewModel()
	target, err := m.CreateTarget("app", Executable, t.TempDir())
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic mutating a frozen target")
		}
	}()
	target.AddDefine("FOO", "1")
}

func TestTargetsPreservesInsertionOrder(t *testing.T) {
	m := NewModel()
	dir := t.TempDir()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		if _, err := m.CreateTarget(n, StaticLibrary, dir); err != nil {
			t.Fatalf("CreateTarget(%s): %v", n, err)
		}
	}

	targets := m.Targets()
	if len(targets) != 3 {
		t.Fatalf("Targets() returned %d entries, want 3", len(targets))
	}
	for i, n := range names {
		if targets[i].Name != n {
			t.Fatalf("Targets()[%d] = %q, want %q", i, targets[i].Name, n)
		}
	}
}

func TestAddIncludeDirVisibility(t *testing.T) {
	dir := t.TempDir()
	m := NewModel()
	target, err := m.CreateTarget("lib", StaticLibrary, dir)
	if err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	target.AddIncludeDir(Public, "pub")
	target.AddIncludeDir(Private, "priv")

	if len(target.PublicIncludeDirs) != 1 || len(target.PrivateIncludeDirs) != 1 {
		t.Fatalf("PublicIncludeDirs=%v PrivateIncludeDirs=%v", target.PublicIncludeDirs, target.PrivateIncludeDirs)
	}
}

func TestParseKindUnknown(t *testing.T) {
	if _, err := ParseKind("bogus"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
