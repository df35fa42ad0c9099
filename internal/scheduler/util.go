package scheduler

import (
	"bytes"
	"os"

	"github.com/KhaosTian/LaurelBuildTool/internal/toolchain"
)

// buffer is a minimal bytes.Buffer alias kept local so compile.go and
// link.go don't need to import bytes directly alongside os/exec.
type buffer = bytes.Buffer

// applyEnvOverlay merges overlay on top of the current process
// environment, returning nil (meaning "inherit unmodified") when overlay
// is empty.
func applyEnvOverlay(overlay toolchain.EnvOverlay) []string {
	if len(overlay) == 0 {
		return nil
	}
	env := os.Environ()
	for k, v := range overlay {
		env = append(env, k+"="+v)
	}
	return env
}
