package toolchain

import (
	"os/exec"
	"runtime"

	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
)

// variant names a compiler family the way a user's toolchainPreference
// setting or CLI flag spells it.
type variant struct {
	name  string
	probe func(hostArch, targetArch string) (Toolchain, bool)
}

// Detect picks the first available toolchain variant in the
// platform-specific preference order (Windows: MSVC before Clang before
// GCC; elsewhere: Clang before GCC), honoring an explicit preference when
// non-empty. Returns a ToolchainError if nothing usable is found.
func Detect(preference, hostArch, targetArch string) (Toolchain, error) {
	variants := platformOrder()

	if preference != "" {
		for _, v := range variants {
			if v.name == preference {
				if tc, ok := v.probe(hostArch, targetArch); ok {
					return tc, nil
				}
				return nil, &lbterrors.ToolchainError{
					Msg:   "requested toolchain " + preference + " is not available on this system",
					Fatal: true,
				}
			}
		}
		return nil, &lbterrors.ToolchainError{Msg: "unknown toolchain preference " + preference, Fatal: true}
	}

	for _, v := range variants {
		if tc, ok := v.probe(hostArch, targetArch); ok {
			return tc, nil
		}
	}
	return nil, &lbterrors.ToolchainError{Msg: "no usable C/C++ toolchain found on PATH", Fatal: true}
}

func platformOrder() []variant {
	msvc := variant{name: "msvc", probe: probeMSVC}
	clang := variant{name: "clang", probe: probeClang}
	gcc := variant{name: "gcc", probe: probeGCC}

	if runtime.GOOS == "windows" {
		return []variant{msvc, clang, gcc}
	}
	return []variant{clang, gcc, msvc}
}

func probeGCC(hostArch, targetArch string) (Toolchain, bool) {
	if _, err := exec.LookPath("gcc"); err != nil {
		return nil, false
	}
	return NewGCCToolchain("", "", ""), true
}

func probeClang(hostArch, targetArch string) (Toolchain, bool) {
	if _, err := exec.LookPath("clang"); err != nil {
		return nil, false
	}
	return NewClangToolchain("", "", ""), true
}

func probeMSVC(hostArch, targetArch string) (Toolchain, bool) {
	tc, err := DetectMSVC(hostArch, targetArch)
	if err != nil {
		return nil, false
	}
	if _, err := exec.LookPath("cl.exe"); err != nil && tc.VsRoot == "" {
		return nil, false
	}
	return tc, true
}
