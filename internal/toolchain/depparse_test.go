package toolchain

import (
	"reflect"
	"testing"
)

func TestParseMakeDepfile(t *testing.T) {
	data := []byte("main.o: main.c foo.h \\\n  bar.h \\\n  baz\\ qux.h\n")
	got := ParseMakeDepfile(data)
	want := []string{"main.c", "foo.h", "bar.h", "baz qux.h"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseMakeDepfile = %#v, want %#v", got, want)
	}
}

func TestParseMakeDepfileEmpty(t *testing.T) {
	if got := ParseMakeDepfile(nil); got != nil {
		t.Fatalf("ParseMakeDepfile(nil) = %#v, want nil", got)
	}
	if got := ParseMakeDepfile([]byte("  \n")); got != nil {
		t.Fatalf("ParseMakeDepfile(blank) = %#v, want nil", got)
	}
}

func TestParseMakeDepfileDedupes(t *testing.T) {
	data := []byte("main.o: foo.h foo.h bar.h\n")
	got := ParseMakeDepfile(data)
	want := []string{"foo.h", "bar.h"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseMakeDepfile = %#v, want %#v", got, want)
	}
}

func TestParseShowIncludes(t *testing.T) {
	stdout := []byte("main.cpp\r\n" +
		"Note: including file: C:\\inc\\foo.h\r\n" +
		"Note: including file:  C:\\inc\\bar.h\r\n" +
		"Note: including file: C:\\inc\\foo.h\r\n")
	got := ParseShowIncludes(stdout)
	want := []string{`C:\inc\foo.h`, `C:\inc\bar.h`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseShowIncludes = %#v, want %#v", got, want)
	}
}

func TestFilterNonSourceLine(t *testing.T) {
	if !FilterNonSourceLine("Note: including file: foo.h") {
		t.Fatal("expected marker line to be filtered")
	}
	if FilterNonSourceLine("main.cpp(3): warning C4101") {
		t.Fatal("expected diagnostic line to pass through")
	}
}
