//go:build windows

package toolchain

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/heaths/go-vssetup"
)

// DetectMSVC locates the Visual Studio instance with the highest
// installation version via the Setup Configuration COM API, and builds an
// MSVCToolchain rooted there. Installed workloads are not checked. It falls back to probeMSVCOnPath when no
// instance is found (the caller may have already run vcvarsall.bat in the
// parent shell).
func DetectMSVC(hostArch, targetArch string) (*MSVCToolchain, error) {
	query, err := vssetup.NewQuery()
	if err != nil {
		return probeMSVCOnPath(hostArch, targetArch), nil
	}

	instances, err := query.Instances()
	if err != nil || len(instances) == 0 {
		return probeMSVCOnPath(hostArch, targetArch), nil
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].InstallationVersion > instances[j].InstallationVersion
	})

	best := instances[0]
	tc := NewMSVCToolchain(best.InstallationPath, hostArch, targetArch, best.InstallationVersion)
	return tc, nil
}

// probeMSVCOnPath builds an MSVCToolchain with no known VsRoot, relying on
// cl.exe/link.exe/lib.exe already being resolvable on PATH.
func probeMSVCOnPath(hostArch, targetArch string) *MSVCToolchain {
	return NewMSVCToolchain("", hostArch, targetArch, "")
}

// runVcvarsall shells out to vsRoot's vcvarsall.bat and captures the
// environment it leaves behind (INCLUDE/LIB/LIBPATH/PATH), the way a
// developer command prompt would, so compiler child processes can find
// the MSVC headers/libs without the user having pre-run vcvarsall
// themselves.
func runVcvarsall(vsRoot, hostArch, targetArch string) (EnvOverlay, error) {
	script := filepath.Join(vsRoot, "VC", "Auxiliary", "Build", "vcvarsall.bat")
	cmd := exec.Command("cmd.exe", "/c", script, vcvarsallArch(hostArch, targetArch), "&&", "set")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", script, err)
	}
	return parseSetOutput(out), nil
}

// vcvarsallArch maps a host/target architecture pair to vcvarsall.bat's
// argument form: same-arch native ("x64") or "<host>_<target>" for cross
// compiles ("x64_x86").
func vcvarsallArch(hostArch, targetArch string) string {
	if hostArch == "" {
		hostArch = "x64"
	}
	if targetArch == "" || targetArch == hostArch {
		return hostArch
	}
	return hostArch + "_" + targetArch
}

// parseSetOutput turns `set`'s NAME=VALUE lines into an EnvOverlay.
func parseSetOutput(out []byte) EnvOverlay {
	overlay := make(EnvOverlay)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		overlay[line[:i]] = line[i+1:]
	}
	return overlay
}
