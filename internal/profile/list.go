package profile

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
)

// Info describes an installable profile.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Builtin     bool   `json:"builtin"`
}

// IsValidProfileDir reports whether dir is an installable profile: its name
// does not start with an underscore and it contains the instructions file.
func IsValidProfileDir(dir, instructions string) bool {
	return isValidProfile(os.DirFS(filepath.Dir(dir)), filepath.Base(dir), instructions)
}

func isValidProfile(fsys fs.FS, name, instructions string) bool {
	if strings.HasPrefix(name, "_") {
		return false
	}
	return isFileFS(fsys, filepath.ToSlash(filepath.Join(name, instructions)))
}

// List returns every installable profile, built-in and user-defined, sorted
// by name. Mixins never appear.
func (c *Composer) List() ([]Info, error) {
	byName := make(map[string]Info)

	entries, err := fs.ReadDir(c.builtin, ".")
	if err != nil {
		return nil, errors.Wrap(err, "reading built-in profiles")
	}
	for _, e := range entries {
		if !e.IsDir() || !isValidProfile(c.builtin, e.Name(), c.instructions) {
			continue
		}
		info := Info{Name: e.Name(), Builtin: true}
		if sub, err := fs.Sub(c.builtin, e.Name()); err == nil {
			m, _ := readManifest(sub)
			info.Description = m.Description
		}
		byName[info.Name] = info
	}

	if c.userDir != "" {
		entries, err := os.ReadDir(c.userDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "reading %s", c.userDir)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, builtin := byName[e.Name()]; builtin {
				continue
			}
			dir := filepath.Join(c.userDir, e.Name())
			if !IsValidProfileDir(dir, c.instructions) || ValidateName(e.Name()) != nil {
				continue
			}
			m, _ := readManifest(os.DirFS(dir))
			byName[e.Name()] = Info{Name: e.Name(), Description: m.Description}
		}
	}

	out := make([]Info, 0, len(byName))
	for _, info := range byName {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// BuiltinNames returns the installable built-in profile names, sorted.
func (c *Composer) BuiltinNames() []string {
	entries, err := fs.ReadDir(c.builtin, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && isValidProfile(c.builtin, e.Name(), c.instructions) {
			names = append(names, e.Name())
		}
	}
	return names
}
