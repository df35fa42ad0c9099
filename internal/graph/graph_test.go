package graph

import (
	"testing"

	"github.com/KhaosTian/LaurelBuildTool/internal/model"
)

func newTestModel(t *testing.T) *model.Model {
	t.Helper()
	return model.NewModel()
}

func mustCreate(t *testing.T, m *model.Model, name string, kind model.Kind) *model.Target {
	t.Helper()
	tgt, err := m.CreateTarget(name, kind, t.TempDir())
	if err != nil {
		t.Fatalf("CreateTarget(%s): %v", name, err)
	}
	return tgt
}

func TestTopologicalOrderInsertionTieBreak(t *testing.T) {
	m := newTestModel(t)
	// Insert in the order c, b, a; all three are independent, so the
	// topological order must preserve insertion order on ties, not sort
	// alphabetically.
	mustCreate(t, m, "c", model.StaticLibrary)
	mustCreate(t, m, "b", model.StaticLibrary)
	mustCreate(t, m, "a", model.StaticLibrary)
	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	g, err := Build(m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	want := []string{"c", "b", "a"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("TopologicalOrder = %v, want %v", order, want)
		}
	}
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	m := newTestModel(t)
	mustCreate(t, m, "app", model.Executable).AddDependencies("lib")
	mustCreate(t, m, "lib", model.StaticLibrary)
	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	g, err := Build(m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	libIdx, appIdx := indexOf(order, "lib"), indexOf(order, "app")
	if libIdx < 0 || appIdx < 0 || libIdx > appIdx {
		t.Fatalf("expected lib before app, got %v", order)
	}
}

func TestFindCycle(t *testing.T) {
	m := newTestModel(t)
	mustCreate(t, m, "a", model.StaticLibrary).AddDependencies("b")
	mustCreate(t, m, "b", model.StaticLibrary).AddDependencies("a")
	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	g, err := Build(m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := g.TopologicalOrder(); err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	cycle := g.FindCycle()
	if len(cycle) < 2 || cycle[0] != cycle[len(cycle)-1] {
		t.Fatalf("FindCycle = %v, want a closed path", cycle)
	}
}

func TestBuildRejectsUnknownDependency(t *testing.T) {
	m := newTestModel(t)
	mustCreate(t, m, "app", model.Executable).AddDependencies("missing")
	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if _, err := Build(m); err == nil {
		t.Fatal("expected error for unknown dependency, got nil")
	}
}

func TestEffectiveIncludeDirsPropagatesPublicOnly(t *testing.T) {
	m := newTestModel(t)
	lib := mustCreate(t, m, "lib", model.StaticLibrary)
	lib.AddIncludeDir(model.Public, "pub")
	lib.AddIncludeDir(model.Private, "priv")
	app := mustCreate(t, m, "app", model.Executable)
	app.AddDependencies("lib")
	if err := m.Freeze(); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	g, err := Build(m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dirs, err := g.EffectiveIncludeDirs("app")
	if err != nil {
		t.Fatalf("EffectiveIncludeDirs: %v", err)
	}

	var sawPub, sawPriv bool
	for _, d := range dirs {
		if hasSuffix(d, "pub") {
			sawPub = true
		}
		if hasSuffix(d, "priv") {
			sawPriv = true
		}
	}
	if !sawPub {
		t.Errorf("expected lib's public include dir to propagate to app, dirs=%v", dirs)
	}
	if sawPriv {
		t.Errorf("did not expect lib's private include dir to propagate to app, dirs=%v", dirs)
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
