package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	dirs, err := s.Directories()
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDirectories_PreserveOtherPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "model": "opus",
  "permissions": {"allow": ["Bash(ls:*)"], "additionalDirectories": ["/mine"]}
}`), 0o644))

	require.NoError(t, Update(path, func(s *Settings) error {
		require.NoError(t, s.AddDirectory("/nori/skills"))
		return s.AddDirectory("/nori/skills")
	}))

	s, err := Load(path)
	require.NoError(t, err)
	dirs, err := s.Directories()
	require.NoError(t, err)
	assert.Equal(t, []string{"/mine", "/nori/skills"}, dirs)

	require.NoError(t, s.RemoveDirectory("/nori/skills"))
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "opus", doc["model"])
	perms := doc["permissions"].(map[string]any)
	assert.Equal(t, []any{"Bash(ls:*)"}, perms["allow"])
	assert.Equal(t, []any{"/mine"}, perms["additionalDirectories"])
}

func TestHooks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "hooks": {"SessionStart": [{"hooks": [{"type": "command", "command": "echo user"}]}]}
}`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.AddHook(EventSessionStart, "nori hook autoupdate"))
	require.NoError(t, s.AddHook(EventSessionStart, "nori hook autoupdate"))
	require.NoError(t, s.AddHook(EventSessionStart, "nori hook nested-install-warning"))

	cmds, err := s.HookCommands(EventSessionStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo user", "nori hook autoupdate", "nori hook nested-install-warning"}, cmds)

	n, err := s.RemoveHooks(isNoriHook)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cmds, err = s.HookCommands(EventSessionStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo user"}, cmds)
}

func TestSave_EmptyRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.AddHook(EventSessionStart, "nori hook autoupdate"))
	require.NoError(t, s.Save())
	assert.FileExists(t, path)

	_, err = s.RemoveHooks(isNoriHook)
	require.NoError(t, err)
	require.NoError(t, s.Save())
	assert.NoFileExists(t, path)
}

func TestStatusLine(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	sl, err := s.StatusLine()
	require.NoError(t, err)
	assert.Nil(t, sl)

	require.NoError(t, s.SetStatusLine("/usr/bin/other"))
	require.NoError(t, s.ClearStatusLine(isNori))
	sl, err = s.StatusLine()
	require.NoError(t, err)
	require.NotNil(t, sl)
	assert.Equal(t, "/usr/bin/other", sl.Command)

	require.NoError(t, s.SetStatusLine("nori statusline"))
	require.NoError(t, s.ClearStatusLine(isNori))
	sl, err = s.StatusLine()
	require.NoError(t, err)
	assert.Nil(t, sl)
}

func isNoriHook(cmd string) bool { return strings.HasPrefix(cmd, "nori hook ") }

func isNori(cmd string) bool { return strings.HasPrefix(cmd, "nori ") }

func TestSave_UnchangedLeavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	require.NoError(t, Update(path, func(s *Settings) error {
		_, err := s.RemoveHooks(isNoriHook)
		if err != nil {
			return err
		}
		return s.ClearStatusLine(isNori)
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
