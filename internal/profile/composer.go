package profile

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// MaxExtendsDepth bounds the number of extends hops followed from a profile.
const MaxExtendsDepth = 8

// Mixin names.
const (
	MixinBase     = "_base"
	MixinDocs     = "_docs"
	MixinPaid     = "_paid"
	MixinDocsPaid = "_docs-paid"
)

// Subtrees merged from every layer.
var overlayDirs = []string{"skills", "subagents", "slashcommands"}

var (
	// ErrProfileNotFound indicates a profile or mixin that exists neither in
	// the built-in templates nor in the installed profiles directory.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNotInstallable indicates an attempt to install a mixin directly.
	ErrNotInstallable = errors.New("mixins cannot be installed directly")

	// ErrInvalidName indicates a malformed profile name.
	ErrInvalidName = errors.New("invalid profile name")

	// ErrInvalidManifest indicates a profile.toml that cannot be used.
	ErrInvalidManifest = errors.New("invalid profile manifest")

	// ErrExtendsCycle indicates an extends chain that loops back on itself.
	ErrExtendsCycle = errors.New("extends cycle")

	// ErrExtendsTooDeep indicates an extends chain longer than MaxExtendsDepth.
	ErrExtendsTooDeep = errors.New("extends chain too deep")
)

// Options select the conditional layers.
type Options struct {
	// Paid adds the _paid and _docs-paid mixins.
	Paid bool
}

// Layer is one directory applied during composition.
type Layer struct {
	Name    string
	Builtin bool

	fsys fs.FS
}

func (l Layer) key() string {
	if l.Builtin {
		return "builtin/" + l.Name
	}
	return "user/" + l.Name
}

// Result describes a composed profile.
type Result struct {
	Name        string
	Description string
	Dir         string
	Layers      []Layer
}

// LayerNames returns the applied layer names in order.
func (r *Result) LayerNames() []string {
	names := make([]string, len(r.Layers))
	for i, l := range r.Layers {
		names[i] = l.Name
	}
	return names
}

// Composer resolves and composes profiles for one agent.
type Composer struct {
	instructions string
	builtin      fs.FS
	userDir      string
}

// NewComposer returns a Composer over the embedded templates for the agent of
// p and the profiles installed under p.
func NewComposer(p *paths.AgentPaths) (*Composer, error) {
	builtin, err := Templates(p.Agent())
	if err != nil {
		return nil, err
	}
	return NewComposerFS(p.InstructionFilename(), builtin, p.ProfilesDir()), nil
}

// NewComposerFS returns a Composer over an arbitrary built-in tree. userDir
// may be empty to disable user profiles.
func NewComposerFS(instructions string, builtin fs.FS, userDir string) *Composer {
	return &Composer{instructions: instructions, builtin: builtin, userDir: userDir}
}

// InstructionFilename returns the instructions file basename profiles carry.
func (c *Composer) InstructionFilename() string { return c.instructions }

// IsBuiltin reports whether name is shipped in the embedded templates.
func (c *Composer) IsBuiltin(name string) bool {
	return isDirFS(c.builtin, name)
}

// Exists reports whether name resolves to an installable profile.
func (c *Composer) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	l, ok := c.lookup(name)
	return ok && isValidProfile(l.fsys, ".", c.instructions)
}

// lookup resolves a name to a layer. Built-in names always resolve to the
// embedded templates so that previously installed copies never shadow them.
func (c *Composer) lookup(name string) (Layer, bool) {
	if isDirFS(c.builtin, name) {
		sub, err := fs.Sub(c.builtin, name)
		if err == nil {
			return Layer{Name: name, Builtin: true, fsys: sub}, true
		}
	}
	if c.userDir != "" {
		dir := filepath.Join(c.userDir, name)
		if fileutil.IsDir(dir) {
			return Layer{Name: name, fsys: os.DirFS(dir)}, true
		}
	}
	return Layer{}, false
}

type hop struct {
	layer    Layer
	manifest Manifest
}

// chain walks extends from name and returns the hops nearest first.
func (c *Composer) chain(name string) ([]hop, error) {
	var (
		hops    []hop
		visited = make(map[string]bool)
		trail   []string
		current = name
	)
	for {
		trail = append(trail, current)
		if visited[current] {
			return nil, errors.WithDetailf(ErrExtendsCycle, "%s", strings.Join(trail, " -> "))
		}
		visited[current] = true

		layer, ok := c.lookup(current)
		if !ok {
			if current == name {
				return nil, errors.Wrapf(ErrProfileNotFound, "%q", name)
			}
			return nil, errors.Wrapf(ErrProfileNotFound, "%q extends %q", hops[len(hops)-1].layer.Name, current)
		}

		m, err := readManifest(layer.fsys)
		if err != nil {
			return nil, errors.Wrapf(err, "profile %q", current)
		}
		hops = append(hops, hop{layer: layer, manifest: m})

		if m.Extends == "" {
			return hops, nil
		}
		if len(hops) > MaxExtendsDepth {
			return nil, errors.WithDetailf(ErrExtendsTooDeep,
				"%s exceeds %d levels", strings.Join(trail, " -> "), MaxExtendsDepth)
		}
		current = m.Extends
	}
}

// Layers returns the ordered layers that compose name.
func (c *Composer) Layers(name string, opts Options) ([]Layer, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var (
		layers []Layer
		seen   = make(map[string]bool)
	)
	add := func(l Layer) {
		if seen[l.key()] {
			return
		}
		seen[l.key()] = true
		layers = append(layers, l)
	}

	defaults := []string{MixinBase, MixinDocs}
	if opts.Paid {
		defaults = append(defaults, MixinPaid, MixinDocsPaid)
	}
	for _, mixin := range defaults {
		if !isDirFS(c.builtin, mixin) {
			return nil, errors.WithDetailf(errors.ErrCorruptPackage,
				"built-in mixin %s is missing; reinstall nori", mixin)
		}
		l, _ := c.lookup(mixin)
		add(l)
	}

	hops, err := c.chain(name)
	if err != nil {
		return nil, err
	}
	for i := len(hops) - 1; i >= 0; i-- {
		h := hops[i]
		for _, mixin := range h.manifest.Mixins {
			l, ok := c.lookup(mixin)
			if !ok {
				return nil, errors.Wrapf(ErrProfileNotFound, "mixin %q referenced by %q", mixin, h.layer.Name)
			}
			add(l)
		}
		add(h.layer)
	}

	// A profile may inherit its instructions, but some hop must be a profile.
	for _, h := range hops {
		if isValidProfile(h.layer.fsys, ".", c.instructions) {
			return layers, nil
		}
	}
	return nil, errors.Wrapf(ErrProfileNotFound, "%q has no %s", name, c.instructions)
}

// Compose writes the merged profile name into dest. dest is removed first
// and must not be one of the source directories. Composing the same inputs
// twice produces identical trees.
func (c *Composer) Compose(name string, opts Options, dest string) (*Result, error) {
	layers, err := c.Layers(name, opts)
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(dest); err != nil {
		return nil, errors.Wrapf(err, "clearing %s", dest)
	}
	if err := os.MkdirAll(dest, paths.DefaultDirPerm); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dest)
	}

	result := &Result{Name: name, Dir: dest, Layers: layers}
	if err := c.apply(layers, dest); err != nil {
		os.RemoveAll(dest)
		return nil, err
	}

	own, _ := c.lookup(name)
	m, err := readManifest(own.fsys)
	if err != nil {
		os.RemoveAll(dest)
		return nil, err
	}
	result.Description = m.Description
	if m.Description != "" {
		data, err := marshalManifest(Manifest{Description: m.Description})
		if err != nil {
			os.RemoveAll(dest)
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dest, ManifestFile), data, 0o644); err != nil {
			os.RemoveAll(dest)
			return nil, errors.Wrap(err, "writing profile manifest")
		}
	}
	return result, nil
}

func (c *Composer) apply(layers []Layer, dest string) error {
	for _, l := range layers {
		for _, sub := range overlayDirs {
			if _, err := fileutil.CopyFS(l.fsys, sub, filepath.Join(dest, sub), nil); err != nil {
				return errors.Wrapf(err, "applying %s", l.Name)
			}
		}
		if !isFileFS(l.fsys, c.instructions) {
			continue
		}
		data, err := fs.ReadFile(l.fsys, c.instructions)
		if err != nil {
			return errors.Wrapf(err, "reading %s from %s", c.instructions, l.Name)
		}
		// Instructions replace, never merge.
		if err := os.WriteFile(filepath.Join(dest, c.instructions), data, 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", c.instructions)
		}
	}
	return nil
}

func isDirFS(fsys fs.FS, name string) bool {
	if fsys == nil || name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	info, err := fs.Stat(fsys, name)
	return err == nil && info.IsDir()
}

func isFileFS(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.Mode().IsRegular()
}
