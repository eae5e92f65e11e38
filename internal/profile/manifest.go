package profile

import (
	"bytes"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tilework-tech/nori-profiles/internal/errors"
)

// ManifestFile is the optional per-profile manifest.
const ManifestFile = "profile.toml"

// Manifest is the contents of profile.toml.
type Manifest struct {
	Description string   `toml:"description,omitempty"`
	Extends     string   `toml:"extends,omitempty"`
	Mixins      []string `toml:"mixins,omitempty"`
}

var (
	nameRe      = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	referenceRe = regexp.MustCompile(`^_?[a-z0-9]+(-[a-z0-9]+)*$`)
)

// ValidateName checks that name is an installable profile name: lowercase
// alphanumerics separated by single hyphens.
func ValidateName(name string) error {
	if strings.HasPrefix(name, "_") {
		return errors.WithDetailf(ErrNotInstallable, "%q is a mixin", name)
	}
	if !nameRe.MatchString(name) {
		return errors.WithDetail(
			errors.Wrapf(ErrInvalidName, "%q", name),
			"profile names use lowercase letters, digits and single hyphens, e.g. senior-swe",
		)
	}
	return nil
}

// ReadManifestDir reads the manifest of the profile at dir.
func ReadManifestDir(dir string) (Manifest, error) {
	return readManifest(os.DirFS(dir))
}

// readManifest reads profile.toml from the root of fsys. A missing manifest
// yields the zero Manifest.
func readManifest(fsys fs.FS) (Manifest, error) {
	var m Manifest

	data, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return m, errors.Wrapf(err, "reading %s", ManifestFile)
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return m, errors.Wrapf(ErrInvalidManifest, "%v", err)
	}

	if m.Extends != "" && !referenceRe.MatchString(m.Extends) {
		return m, errors.Wrapf(ErrInvalidManifest, "invalid extends %q", m.Extends)
	}
	for _, mixin := range m.Mixins {
		if !referenceRe.MatchString(mixin) {
			return m, errors.Wrapf(ErrInvalidManifest, "invalid mixin %q", mixin)
		}
	}
	return m, nil
}

// marshalManifest encodes m for writing next to a composed profile.
func marshalManifest(m Manifest) ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encoding profile manifest")
	}
	return data, nil
}
