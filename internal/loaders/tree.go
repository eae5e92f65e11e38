package loaders

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/internal/placeholder"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// tree copies one subtree of the composed profile into an agent directory
// and tracks what it wrote.
type tree struct {
	name        string
	description string
	source      string
	target      func(*paths.AgentPaths) string
	check       func(rel string, data []byte) error
}

func (t *tree) Name() string        { return t.name }
func (t *tree) Description() string { return t.description }

// Run replaces the files of the previous install with the composed ones.
func (t *tree) Run(lc *loader.Context) error {
	composed, err := lc.ComposedDir()
	if err != nil {
		return err
	}
	dst := t.target(lc.Paths)

	if err := removeManaged(dst); err != nil {
		return errors.Wrap(err, "removing previous files")
	}

	src := filepath.Join(composed, t.source)
	if !fileutil.IsDir(src) {
		lc.Log().Debug("nothing to install", "loader", t.name, "source", t.source)
		return nil
	}

	written, err := fileutil.CopyDir(src, dst, placeholder.New(lc.Paths).Transform)
	if err != nil {
		return err
	}
	if err := writeManifest(dst, written); err != nil {
		return errors.Wrap(err, "recording installed files")
	}
	lc.Log().Debug("copied files", "loader", t.name, "count", len(written), "target", dst)
	return nil
}

func (t *tree) Uninstall(lc *loader.Context) error {
	return removeManaged(t.target(lc.Paths))
}

func (t *tree) Validate(lc *loader.Context) *loader.Validation {
	dst := t.target(lc.Paths)
	v := loader.NewValidation(t.description)

	files, found, err := readManifest(dst)
	if err != nil {
		v.Addf("%v", err)
		return v
	}
	if !found {
		if fileutil.IsDir(dst) {
			v.Addf("%s is not managed by nori; run nori install", dst)
		} else if expected, err := t.expectsFiles(lc); err != nil {
			v.Addf("%v", err)
		} else if expected {
			v.Addf("%s is missing; run nori install", dst)
		} else {
			v.Message = t.description + ": nothing installed"
		}
		return v
	}

	for _, rel := range files {
		target, ok := fileutil.SafeJoin(dst, rel)
		if !ok {
			v.Addf("manifest entry %q escapes %s; run nori install", rel, dst)
			continue
		}
		data, err := os.ReadFile(target)
		if err != nil {
			v.Addf("missing %s; run nori install", target)
			continue
		}
		if t.check != nil {
			if err := t.check(rel, data); err != nil {
				v.Addf("%s: %v", target, err)
			}
		}
	}
	if v.Valid {
		v.Message = t.description + ": " + pluralFiles(len(files))
	}
	return v
}

// expectsFiles reports whether the selected profile ships any file for this
// tree.
func (t *tree) expectsFiles(lc *loader.Context) (bool, error) {
	if lc.Profile == "" {
		return false, nil
	}
	composed, err := lc.ComposedDir()
	if err != nil {
		return false, err
	}
	found := false
	err = filepath.WalkDir(filepath.Join(composed, t.source), func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found, err
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
