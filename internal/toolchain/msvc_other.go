//go:build !windows

package toolchain

import "github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"

// DetectMSVC is unavailable off Windows: it always fails, so the msvc
// entry in the platform preference order never probes successfully on
// other hosts.
func DetectMSVC(hostArch, targetArch string) (*MSVCToolchain, error) {
	return nil, &lbterrors.ToolchainError{Msg: "MSVC detection is only supported on Windows"}
}

// runVcvarsall has nothing to shell out to off Windows; MSVCToolchain.
// InitEnvironment only calls it when VsRoot is set, which never happens
// here since DetectMSVC above always fails first.
func runVcvarsall(vsRoot, hostArch, targetArch string) (EnvOverlay, error) {
	return nil, &lbterrors.ToolchainError{Msg: "vcvarsall.bat is only supported on Windows"}
}
