package profile

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilework-tech/nori-profiles/internal/errors"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s), Mode: 0o644} }

func baseFS() fstest.MapFS {
	return fstest.MapFS{
		"_base/CLAUDE.md":                    file("base instructions\n"),
		"_base/skills/using-skills/SKILL.md": file("base skill\n"),
		"_docs/skills/docs/SKILL.md":         file("docs skill\n"),
		"_paid/skills/recall/SKILL.md":       file("paid skill\n"),
		"_docs-paid/subagents/documenter.md": file("docs-paid agent\n"),
	}
}

// readTree returns every file under dir keyed by slash path.
func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		require.NoError(t, err)
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return tree
}

func TestCompose_Idempotent(t *testing.T) {
	builtin, err := Templates("claude-code")
	require.NoError(t, err)
	c := NewComposerFS("CLAUDE.md", builtin, "")

	for _, name := range c.BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "out")

			_, err := c.Compose(name, Options{Paid: true}, dest)
			require.NoError(t, err)
			first := readTree(t, dest)

			_, err = c.Compose(name, Options{Paid: true}, dest)
			require.NoError(t, err)
			assert.Equal(t, first, readTree(t, dest))
		})
	}
}

func TestCompose_SeniorSWEPaidMixins(t *testing.T) {
	builtin, err := Templates("claude-code")
	require.NoError(t, err)
	c := NewComposerFS("CLAUDE.md", builtin, "")

	free := filepath.Join(t.TempDir(), "free")
	res, err := c.Compose("senior-swe", Options{}, free)
	require.NoError(t, err)
	assert.Equal(t, []string{MixinBase, MixinDocs, "senior-swe"}, res.LayerNames())

	tree := readTree(t, free)
	assert.Contains(t, tree, "skills/using-skills/SKILL.md")
	assert.Contains(t, tree, "skills/test-driven-development/SKILL.md")
	assert.NotContains(t, tree, "skills/recall/SKILL.md")
	assert.NotContains(t, tree, "skills/memorize/SKILL.md")
	assert.NotContains(t, tree, "skills/write-noridoc/SKILL.md")
	assert.NotContains(t, tree, "subagents/nori-change-documenter.md")

	paid := filepath.Join(t.TempDir(), "paid")
	res, err = c.Compose("senior-swe", Options{Paid: true}, paid)
	require.NoError(t, err)
	assert.Equal(t, []string{MixinBase, MixinDocs, MixinPaid, MixinDocsPaid, "senior-swe"}, res.LayerNames())

	tree = readTree(t, paid)
	assert.Contains(t, tree, "skills/recall/SKILL.md")
	assert.Contains(t, tree, "skills/write-noridoc/SKILL.md")
	assert.Contains(t, tree, "subagents/nori-change-documenter.md")
	assert.Contains(t, tree["CLAUDE.md"], "# Senior SWE")
	assert.Contains(t, tree[ManifestFile], "Senior software engineer")
}

func TestCompose_ExtendsChain(t *testing.T) {
	fsys := baseFS()
	fsys["parent/CLAUDE.md"] = file("parent instructions\n")
	fsys["parent/skills/shared/SKILL.md"] = file("from parent\n")
	fsys["parent/skills/parent-only/SKILL.md"] = file("parent only\n")
	fsys["child/profile.toml"] = file("description = \"child\"\nextends = \"parent\"\n")
	fsys["child/CLAUDE.md"] = file("child instructions\n")
	fsys["child/skills/shared/SKILL.md"] = file("from child\n")

	c := NewComposerFS("CLAUDE.md", fsys, "")
	dest := filepath.Join(t.TempDir(), "out")
	res, err := c.Compose("child", Options{}, dest)
	require.NoError(t, err)

	assert.Equal(t, []string{MixinBase, MixinDocs, "parent", "child"}, res.LayerNames())
	assert.Equal(t, "child", res.Description)

	tree := readTree(t, dest)
	assert.Equal(t, "child instructions\n", tree["CLAUDE.md"], "instructions must be replaced, not merged")
	assert.Equal(t, "from child\n", tree["skills/shared/SKILL.md"])
	assert.Equal(t, "parent only\n", tree["skills/parent-only/SKILL.md"])
	assert.Equal(t, "base skill\n", tree["skills/using-skills/SKILL.md"])
}

func TestLayers_DeclaredMixinsAppliedOnce(t *testing.T) {
	fsys := baseFS()
	fsys["_extra/skills/extra/SKILL.md"] = file("extra\n")
	fsys["parent/CLAUDE.md"] = file("parent\n")
	fsys["parent/profile.toml"] = file("mixins = [\"_extra\"]\n")
	fsys["child/CLAUDE.md"] = file("child\n")
	fsys["child/profile.toml"] = file("extends = \"parent\"\nmixins = [\"_docs\", \"_extra\"]\n")

	c := NewComposerFS("CLAUDE.md", fsys, "")
	layers, err := c.Layers("child", Options{})
	require.NoError(t, err)

	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}
	assert.Equal(t, []string{MixinBase, MixinDocs, "_extra", "parent", "child"}, names)
}

func TestLayers_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    func() fstest.MapFS
		profile string
		opts    Options
		wantErr error
	}{
		{
			name: "cycle",
			fsys: func() fstest.MapFS {
				f := baseFS()
				f["a/CLAUDE.md"] = file("a")
				f["a/profile.toml"] = file(`extends = "b"`)
				f["b/CLAUDE.md"] = file("b")
				f["b/profile.toml"] = file(`extends = "a"`)
				return f
			},
			profile: "a",
			wantErr: ErrExtendsCycle,
		},
		{
			name: "self extends",
			fsys: func() fstest.MapFS {
				f := baseFS()
				f["a/CLAUDE.md"] = file("a")
				f["a/profile.toml"] = file(`extends = "a"`)
				return f
			},
			profile: "a",
			wantErr: ErrExtendsCycle,
		},
		{
			name: "too deep",
			fsys: func() fstest.MapFS {
				f := baseFS()
				names := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
				for i, n := range names {
					f[n+"/CLAUDE.md"] = file(n)
					if i+1 < len(names) {
						f[n+"/profile.toml"] = file(`extends = "` + names[i+1] + `"`)
					}
				}
				return f
			},
			profile: "p0",
			wantErr: ErrExtendsTooDeep,
		},
		{
			name: "missing mixin",
			fsys: func() fstest.MapFS {
				f := baseFS()
				f["a/CLAUDE.md"] = file("a")
				f["a/profile.toml"] = file(`mixins = ["_nope"]`)
				return f
			},
			profile: "a",
			wantErr: ErrProfileNotFound,
		},
		{
			name: "missing parent",
			fsys: func() fstest.MapFS {
				f := baseFS()
				f["a/CLAUDE.md"] = file("a")
				f["a/profile.toml"] = file(`extends = "ghost"`)
				return f
			},
			profile: "a",
			wantErr: ErrProfileNotFound,
		},
		{
			name:    "missing profile",
			fsys:    baseFS,
			profile: "ghost",
			wantErr: ErrProfileNotFound,
		},
		{
			name: "missing base",
			fsys: func() fstest.MapFS {
				f := baseFS()
				delete(f, "_base/CLAUDE.md")
				delete(f, "_base/skills/using-skills/SKILL.md")
				f["a/CLAUDE.md"] = file("a")
				return f
			},
			profile: "a",
			wantErr: errors.ErrCorruptPackage,
		},
		{
			name: "missing paid mixin only matters when paid",
			fsys: func() fstest.MapFS {
				f := baseFS()
				delete(f, "_paid/skills/recall/SKILL.md")
				f["a/CLAUDE.md"] = file("a")
				return f
			},
			profile: "a",
			opts:    Options{Paid: true},
			wantErr: errors.ErrCorruptPackage,
		},
		{
			name: "unknown manifest field",
			fsys: func() fstest.MapFS {
				f := baseFS()
				f["a/CLAUDE.md"] = file("a")
				f["a/profile.toml"] = file(`extend = "b"`)
				return f
			},
			profile: "a",
			wantErr: ErrInvalidManifest,
		},
		{
			name:    "mixin requested directly",
			fsys:    baseFS,
			profile: "_base",
			wantErr: ErrNotInstallable,
		},
		{
			name: "not a profile",
			fsys: func() fstest.MapFS {
				f := baseFS()
				f["empty/skills/x/SKILL.md"] = file("x")
				return f
			},
			profile: "empty",
			wantErr: ErrProfileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposerFS("CLAUDE.md", tt.fsys(), "")
			_, err := c.Layers(tt.profile, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLayers_MaxDepthAllowed(t *testing.T) {
	f := baseFS()
	names := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	for i, n := range names {
		f[n+"/CLAUDE.md"] = file(n)
		if i+1 < len(names) {
			f[n+"/profile.toml"] = file(`extends = "` + names[i+1] + `"`)
		}
	}

	c := NewComposerFS("CLAUDE.md", f, "")
	layers, err := c.Layers("p0", Options{})
	require.NoError(t, err)
	assert.Len(t, layers, 2+len(names))
	assert.Equal(t, "p8", layers[2].Name, "deepest ancestor is applied first")
}

func TestCompose_UserProfileExtendsBuiltin(t *testing.T) {
	userDir := t.TempDir()
	mine := filepath.Join(userDir, "mine")
	require.NoError(t, os.MkdirAll(filepath.Join(mine, "slashcommands"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mine, "CLAUDE.md"), []byte("mine\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mine, "profile.toml"), []byte("description = \"Mine\"\nextends = \"senior-swe\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(mine, "slashcommands", "go.md"), []byte("go\n"), 0o644))

	builtin, err := Templates("claude-code")
	require.NoError(t, err)
	c := NewComposerFS("CLAUDE.md", builtin, userDir)

	dest := filepath.Join(t.TempDir(), "out")
	res, err := c.Compose("mine", Options{}, dest)
	require.NoError(t, err)

	assert.Equal(t, []string{MixinBase, MixinDocs, "senior-swe", "mine"}, res.LayerNames())
	assert.False(t, res.Layers[len(res.Layers)-1].Builtin)

	tree := readTree(t, dest)
	assert.Equal(t, "mine\n", tree["CLAUDE.md"])
	assert.Equal(t, "go\n", tree["slashcommands/go.md"])
	assert.Contains(t, tree, "skills/test-driven-development/SKILL.md")
}

func TestCompose_BuiltinNotShadowedByInstalledCopy(t *testing.T) {
	userDir := t.TempDir()
	stale := filepath.Join(userDir, "senior-swe")
	require.NoError(t, os.MkdirAll(filepath.Join(stale, "skills", "recall"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "CLAUDE.md"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "skills", "recall", "SKILL.md"), []byte("paid"), 0o644))

	builtin, err := Templates("claude-code")
	require.NoError(t, err)
	c := NewComposerFS("CLAUDE.md", builtin, userDir)

	dest := filepath.Join(t.TempDir(), "out")
	_, err = c.Compose("senior-swe", Options{}, dest)
	require.NoError(t, err)

	tree := readTree(t, dest)
	assert.NotContains(t, tree, "skills/recall/SKILL.md")
	assert.NotEqual(t, "stale", tree["CLAUDE.md"])
}

func TestCompose_ClearsDestination(t *testing.T) {
	c := NewComposerFS("CLAUDE.md", func() fstest.MapFS {
		f := baseFS()
		f["a/CLAUDE.md"] = file("a")
		return f
	}(), "")

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "leftover.md"), []byte("x"), 0o644))

	_, err := c.Compose("a", Options{}, dest)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dest, "leftover.md"))
}

func TestCursorTemplates(t *testing.T) {
	builtin, err := Templates("cursor-agent")
	require.NoError(t, err)
	c := NewComposerFS("AGENTS.md", builtin, "")

	dest := filepath.Join(t.TempDir(), "out")
	_, err = c.Compose("senior-swe", Options{}, dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "AGENTS.md"))
	assert.NoFileExists(t, filepath.Join(dest, "CLAUDE.md"))

	_, err = Templates("emacs")
	assert.Error(t, err)
}
