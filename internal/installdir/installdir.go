// Package installdir finds the directories that hold a nori installation.
package installdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

var (
	// ErrNoInstallation indicates no installation was found from a directory.
	ErrNoInstallation = errors.New("no nori installation found")

	// ErrMultipleInstallations indicates nested installations.
	ErrMultipleInstallations = errors.New("multiple nori installations found")
)

// HasInstallation reports whether dir holds the disk config or the legacy
// version marker.
func HasInstallation(dir string) bool {
	for _, marker := range []string{paths.ConfigPath(dir), paths.VersionPath(dir)} {
		if info, err := os.Stat(marker); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// GetInstallDirs walks from start to the filesystem root and returns every
// directory holding an installation, closest first.
func GetInstallDirs(start string) ([]string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", start)
	}

	var dirs []string
	seen := make(map[string]bool)
	for {
		if !seen[dir] && HasInstallation(dir) {
			dirs = append(dirs, dir)
		}
		seen[dir] = true

		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs, nil
		}
		dir = parent
	}
}

// Resolve returns the single installation reachable from cwd. Zero or several
// installations produce a user error naming every candidate.
func Resolve(cwd string) (string, error) {
	dirs, err := GetInstallDirs(cwd)
	if err != nil {
		return "", err
	}

	switch len(dirs) {
	case 0:
		return "", errors.NewUserError(
			errors.Wrapf(ErrNoInstallation, "from %s", cwd),
			"Run: nori install",
		)
	case 1:
		return dirs[0], nil
	default:
		return "", errors.NewUserError(
			errors.Wrapf(ErrMultipleInstallations, "%s", strings.Join(dirs, ", ")),
			Remediation(dirs),
		)
	}
}

// Remediation lists each candidate with the command that removes it.
func Remediation(dirs []string) string {
	var b strings.Builder
	b.WriteString("Nested installations conflict. Keep one and remove the others:")
	for _, d := range dirs {
		fmt.Fprintf(&b, "\n  %s\n    nori uninstall --install-dir=%s", d, d)
	}
	return b.String()
}
