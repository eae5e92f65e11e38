package loaders

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// The manifest lives inside the directory it describes and lists the
// slash-separated paths nori wrote there, one per line.

func manifestPath(dir string) string {
	return filepath.Join(dir, paths.ManagedMarker)
}

func readManifest(dir string) ([]string, bool, error) {
	data, err := os.ReadFile(manifestPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "reading manifest in %s", dir)
	}

	var files []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		files = append(files, line)
	}
	return files, true, errors.Wrap(sc.Err(), "parsing manifest")
}

func writeManifest(dir string, files []string) error {
	sorted := slices.Clone(files)
	slices.Sort(sorted)

	var b strings.Builder
	b.WriteString("# Written by nori. Files listed here are removed on uninstall.\n")
	for _, f := range sorted {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	return fileutil.AtomicWriteFile(manifestPath(dir), []byte(b.String()), 0o644)
}

// removeManaged deletes every file listed in dir's manifest, the manifest
// itself, and any directories left empty, including dir. Files nori did not
// write are never touched.
func removeManaged(dir string) error {
	files, found, err := readManifest(dir)
	if err != nil || !found {
		return err
	}

	var errs error
	for _, rel := range files {
		target, ok := fileutil.SafeJoin(dir, rel)
		if !ok {
			continue
		}
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "removing %s", target))
			continue
		}
		fileutil.RemoveEmptyDirs(filepath.Dir(target), dir)
	}
	if errs != nil {
		return errs
	}

	if err := os.Remove(manifestPath(dir)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing manifest")
	}
	fileutil.RemoveEmptyDirs(dir, filepath.Dir(dir))
	return nil
}
