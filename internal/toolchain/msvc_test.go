package toolchain

import "testing"

func TestMSVCEmitCompileCommand(t *testing.T) {
	msvc := NewMSVCToolchain("", "x64", "x64", "17.9")
	cmd := msvc.EmitCompileCommand(CompileOptions{
		Source:        "src\\main.cpp",
		OutputObject:  "build\\main.obj",
		Configuration: Release,
		IsCxx:         true,
		CxxStandard:   "c++17",
		IncludeDirs:   []string{"include"},
		GenerateDeps:  true,
	})
	if cmd.Executable != "cl.exe" {
		t.Fatalf("executable = %q, want cl.exe", cmd.Executable)
	}
	for _, want := range []string{"/std:c++17", "/O2", "/DNDEBUG", "/Iinclude", "/showIncludes", "/English-"} {
		if !containsArg(cmd.Args, want) {
			t.Errorf("args %v missing %q", cmd.Args, want)
		}
	}
}

func TestMSVCEmitLinkCommandDLL(t *testing.T) {
	msvc := NewMSVCToolchain("", "x64", "x64", "17.9")
	cmd := msvc.EmitLinkCommand(LinkOptions{
		Objects:   []string{"a.obj"},
		Output:    "foo.dll",
		Kind:      SharedLibrary,
		Libraries: []string{"user32"},
	})
	if cmd.Executable != "link.exe" {
		t.Fatalf("executable = %q, want link.exe", cmd.Executable)
	}
	if !containsArg(cmd.Args, "/DLL") {
		t.Fatalf("expected /DLL, got %v", cmd.Args)
	}
	if !containsArg(cmd.Args, "user32.lib") {
		t.Fatalf("expected user32.lib, got %v", cmd.Args)
	}
}

func TestMSVCIsSystemHeader(t *testing.T) {
	msvc := NewMSVCToolchain("", "x64", "x64", "")
	if !msvc.IsSystemHeader(`C:\Program Files (x86)\Windows Kits\10\Include\um\windows.h`) {
		t.Fatal("expected Windows Kits header to be classified as system")
	}
	if msvc.IsSystemHeader(`C:\proj\src\foo.h`) {
		t.Fatal("did not expect project header to be classified as system")
	}
}
