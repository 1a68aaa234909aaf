package execsafety

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMutuallyExclusiveConfig is returned at exec-tool construction time when
// both a sandboxed executor and full-shell mode are requested (spec.md §4.3
// item 2, §7 ConfigurationError).
var ErrMutuallyExclusiveConfig = fmt.Errorf("exec tool: sandboxed executor and full-shell mode are mutually exclusive")

// ValidateConstruction enforces the configuration-time check: requesting
// both sandbox and "full shell" fails construction with a clear error.
func ValidateConstruction(sandboxed, fullShell bool) error {
	if sandboxed && fullShell {
		return ErrMutuallyExclusiveConfig
	}
	return nil
}

// ResolveWorkingDir rebases a relative workingDir onto workspaceRoot and,
// when sandboxed is true, verifies the canonicalized result is a descendant
// of workspaceRoot. It returns the resolved absolute path.
func ResolveWorkingDir(workspaceRoot, workingDir string, sandboxed bool) (string, error) {
	if strings.TrimSpace(workingDir) == "" {
		return workspaceRoot, nil
	}

	resolved := workingDir
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(workspaceRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	if !sandboxed {
		return resolved, nil
	}

	root := filepath.Clean(workspaceRoot)
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", fmt.Errorf("working directory %q escapes workspace %q", workingDir, workspaceRoot)
	}
	return resolved, nil
}

// IsWithinWorkspace reports whether the lexically cleaned path is the
// workspace root or a descendant of it; symlinks are not resolved. The
// sandbox executor and the file tools do not call it.
func IsWithinWorkspace(workspaceRoot, path string) bool {
	root := filepath.Clean(workspaceRoot)
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(root, resolved)
	}
	resolved = filepath.Clean(resolved)
	return resolved == root || strings.HasPrefix(resolved, root+string(filepath.Separator))
}
