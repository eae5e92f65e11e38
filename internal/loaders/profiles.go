package loaders

import (
	"os"
	"path/filepath"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/internal/profile"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// Profiles writes every built-in profile, composed, into the installed
// profiles directory so users can browse and copy them. Each written
// directory carries a marker; unmarked directories belong to the user.
type Profiles struct{}

// NewProfiles returns the profiles loader.
func NewProfiles() *Profiles { return &Profiles{} }

func (*Profiles) Name() string        { return "profiles" }
func (*Profiles) Description() string { return "built-in profiles" }

func (*Profiles) Run(lc *loader.Context) error {
	if lc.Composer == nil {
		return errors.New("loader context has no composer")
	}
	opts := profile.Options{Paid: lc.Paid()}

	for _, name := range lc.Composer.BuiltinNames() {
		dest := lc.Paths.ProfileDir(name)
		if fileutil.Exists(dest) && !isMarked(dest) {
			lc.Log().Warn("keeping user directory that shadows a built-in profile", "profile", name, "dir", dest)
			continue
		}
		if _, err := lc.Composer.Compose(name, opts, dest); err != nil {
			return errors.Wrapf(err, "writing profile %s", name)
		}
		if err := mark(dest); err != nil {
			return err
		}
	}

	// Surface composition errors for the selected profile before any other
	// loader touches the agent directory.
	_, err := lc.ComposedDir()
	return err
}

func (*Profiles) Uninstall(lc *loader.Context) error {
	entries, err := os.ReadDir(lc.Paths.ProfilesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading profiles directory")
	}

	var errs error
	for _, e := range entries {
		dir := filepath.Join(lc.Paths.ProfilesDir(), e.Name())
		if !e.IsDir() || !isMarked(dir) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "removing %s", dir))
		}
	}
	fileutil.RemoveEmptyDirs(lc.Paths.ProfilesDir(), lc.Paths.AgentDir())
	return errs
}

func (*Profiles) Validate(lc *loader.Context) *loader.Validation {
	v := loader.NewValidation("built-in profiles")
	if lc.Composer == nil {
		return v
	}
	for _, name := range lc.Composer.BuiltinNames() {
		dir := lc.Paths.ProfileDir(name)
		switch {
		case !fileutil.Exists(dir):
			v.Addf("built-in profile %s is not installed; run nori install", name)
		case !isMarked(dir):
			// User-owned copy; not ours to judge.
		case !profile.IsValidProfileDir(dir, lc.Paths.InstructionFilename()):
			v.Addf("%s has no %s; run nori install", dir, lc.Paths.InstructionFilename())
		}
	}

	if lc.Profile != "" && !lc.Composer.Exists(lc.Profile) {
		v.Addf("active profile %q does not exist; run nori switch-profile", lc.Profile)
	}
	return v
}

func isMarked(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, paths.ManagedMarker))
	return err == nil && info.Mode().IsRegular()
}

func mark(dir string) error {
	return errors.Wrap(
		os.WriteFile(filepath.Join(dir, paths.ManagedMarker), []byte("built-in profile written by nori\n"), 0o644),
		"marking profile directory",
	)
}
