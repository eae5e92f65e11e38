package loaders

import (
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/managedblock"
	"github.com/tilework-tech/nori-profiles/internal/placeholder"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// Instructions keeps the composed profile instructions in the managed block
// of the agent's CLAUDE.md or AGENTS.md.
type Instructions struct{}

// NewInstructions returns the instructions loader.
func NewInstructions() *Instructions { return &Instructions{} }

func (*Instructions) Name() string        { return "instructions" }
func (*Instructions) Description() string { return "agent instructions" }

// render returns the current and desired contents of the instructions file.
func (*Instructions) render(lc *loader.Context) (current, desired string, err error) {
	composed, err := lc.ComposedDir()
	if err != nil {
		return "", "", err
	}

	body, err := os.ReadFile(filepath.Join(composed, lc.Paths.InstructionFilename()))
	if err != nil {
		return "", "", errors.Wrapf(err, "reading composed %s", lc.Paths.InstructionFilename())
	}

	current, err = readOptional(lc.Paths.InstructionsFile())
	if err != nil {
		return "", "", err
	}

	desired, err = managedblock.Upsert(current, placeholder.New(lc.Paths).Substitute(string(body)))
	if err != nil {
		return "", "", errors.Wrapf(err, "updating %s", lc.Paths.InstructionsFile())
	}
	return current, desired, nil
}

func (i *Instructions) Run(lc *loader.Context) error {
	current, desired, err := i.render(lc)
	if err != nil {
		return err
	}
	if current == desired && fileutil.Exists(lc.Paths.InstructionsFile()) {
		return nil
	}
	return fileutil.AtomicWriteFile(lc.Paths.InstructionsFile(), []byte(desired), 0o644)
}

// Preview returns a unified diff of the change Run would make.
func (i *Instructions) Preview(lc *loader.Context) (string, error) {
	current, desired, err := i.render(lc)
	if err != nil {
		return "", err
	}
	name := lc.Paths.InstructionsFile()
	return udiff.Unified(name, name, current, desired), nil
}

func (*Instructions) Uninstall(lc *loader.Context) error {
	path := lc.Paths.InstructionsFile()
	current, err := readOptional(path)
	if err != nil || current == "" {
		return err
	}

	result, deleteFile, err := managedblock.Remove(current)
	if err != nil {
		return errors.Wrapf(err, "updating %s", path)
	}
	if deleteFile {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", path)
		}
		return nil
	}
	if result == current {
		return nil
	}
	return fileutil.AtomicWriteFile(path, []byte(result), 0o644)
}

func (*Instructions) Validate(lc *loader.Context) *loader.Validation {
	path := lc.Paths.InstructionsFile()
	v := loader.NewValidation("agent instructions")

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			v.Addf("%s does not exist; run nori install", path)
		} else {
			v.Addf("%v", err)
		}
		return v
	}

	found, err := managedblock.Has(string(content))
	switch {
	case err != nil:
		v.Addf("%s: %v; delete the duplicate nori block and run nori install", path, err)
	case !found:
		v.Addf("%s has no nori managed block; run nori install", path)
	}
	return v
}

func readOptional(path string) (string, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(data), nil
}
