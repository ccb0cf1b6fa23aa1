package stdlib

import (
	"path/filepath"
	"strings"

	"github.com/sambeau/vaso/pkg/vaso/errors"
)

// Policy restricts what scripts may touch on the host. A nil *Policy allows
// reads and writes everywhere and denies every command execution.
type Policy struct {
	NoRead          bool     // Deny all reads
	NoWrite         bool     // Deny all writes
	RestrictRead    []string // Denied read directories (blacklist)
	RestrictWrite   []string // Denied write directories (blacklist)
	AllowExecute    []string // Allowed execute directories (whitelist)
	AllowExecuteAll bool     // Allow all executes
}

// checkPathAccess validates host access for operation ("read", "write" or
// "execute") and returns the SEC diagnostic describing a denial.
func (p *Policy) checkPathAccess(path, operation string) *errors.VasoError {
	if p == nil {
		if operation == "execute" {
			return errors.New("SEC-0004", map[string]any{"Path": path})
		}
		return nil
	}

	absPath := resolvePath(path)

	switch operation {
	case "read":
		if p.NoRead || isPathRestricted(absPath, p.RestrictRead) {
			return errors.New("SEC-0002", map[string]any{"Path": path})
		}
	case "write":
		if p.NoWrite || isPathRestricted(absPath, p.RestrictWrite) {
			return errors.New("SEC-0003", map[string]any{"Path": path})
		}
	case "execute":
		if p.AllowExecuteAll {
			return nil
		}
		if !isPathAllowed(absPath, p.AllowExecute) {
			return errors.New("SEC-0004", map[string]any{"Path": path})
		}
	}

	return nil
}

// resolvePath makes path absolute and resolves symlinks. A path that does
// not exist yet resolves through its parent directory.
func resolvePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	absPath = filepath.Clean(absPath)

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	dir, base := filepath.Dir(absPath), filepath.Base(absPath)
	if resolvedDir, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(resolvedDir, base)
	}
	return absPath
}

// isPathAllowed checks if a path is within any allowed directory
func isPathAllowed(path string, allowList []string) bool {
	return withinAny(path, allowList)
}

// isPathRestricted checks if a path is within any restricted directory
func isPathRestricted(path string, restrictList []string) bool {
	return withinAny(path, restrictList)
}

func withinAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		resolved := resolvePath(dir)
		if path == resolved || strings.HasPrefix(path, resolved+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
