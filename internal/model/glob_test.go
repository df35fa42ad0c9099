package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveGlobsExcludesPattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.cpp", "b.cpp", "a_test.cpp"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("// "+name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := resolveGlobs(dir, []string{"*.cpp", "!*_test.cpp"})
	if err != nil {
		t.Fatalf("resolveGlobs: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("resolveGlobs = %v, want 2 files excluding *_test.cpp", files)
	}
	for _, f := range files {
		if filepath.Base(f) == "a_test.cpp" {
			t.Fatalf("expected a_test.cpp to be excluded, got %v", files)
		}
	}
}

func TestResolveGlobsMalformedPatternYieldsNoFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.cpp"), []byte("// a"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := resolveGlobs(dir, []string{"[invalid"})
	if err != nil {
		t.Fatalf("resolveGlobs should not error on malformed pattern: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("resolveGlobs = %v, want 0 files for malformed pattern", files)
	}
}

func TestResolveGlobsDeduplicates(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.cpp"), []byte("// a"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := resolveGlobs(dir, []string{"*.cpp", "a.cpp"})
	if err != nil {
		t.Fatalf("resolveGlobs: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("resolveGlobs = %v, want exactly 1 deduplicated entry", files)
	}
}
