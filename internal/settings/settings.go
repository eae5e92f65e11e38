// Package settings edits the Claude Code settings.json file.
//
// Only the keys nori owns are interpreted: permissions.additionalDirectories,
// hooks, and statusLine. Everything else round-trips unchanged.
package settings

import (
	"encoding/json"
	"os"
	"slices"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// Hook event names.
const (
	EventSessionStart = "SessionStart"
)

// HookCommand is one command entry inside a hook matcher.
type HookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookMatcher groups hook commands under a matcher.
type HookMatcher struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []HookCommand `json:"hooks"`
}

// StatusLine configures the status line command.
type StatusLine struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Padding int    `json:"padding,omitempty"`
}

// Settings is a loaded settings.json document.
type Settings struct {
	path  string
	raw   map[string]json.RawMessage
	dirty bool
}

// Load reads path. A missing file yields empty settings.
func Load(path string) (*Settings, error) {
	s := &Settings{path: path, raw: make(map[string]json.RawMessage)}

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.raw); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if s.raw == nil {
		s.raw = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Update loads path, applies fn, and saves.
func Update(path string, fn func(*Settings) error) error {
	s, err := Load(path)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return s.Save()
}

// Save writes the settings atomically when they changed. A document left
// empty removes the file.
func (s *Settings) Save() error {
	if !s.dirty {
		return nil
	}
	if len(s.raw) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", s.path)
		}
		return nil
	}
	if err := fileutil.AtomicWriteJSON(s.path, s.raw, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", s.path)
	}
	return nil
}

// Path returns the file location.
func (s *Settings) Path() string { return s.path }

func (s *Settings) get(key string, v any) error {
	data, ok := s.raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decoding %s in %s", key, s.path)
	}
	return nil
}

func (s *Settings) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	if existing, ok := s.raw[key]; ok && string(existing) == string(data) {
		return nil
	}
	s.raw[key] = data
	s.dirty = true
	return nil
}

func (s *Settings) del(key string) {
	if _, ok := s.raw[key]; ok {
		delete(s.raw, key)
		s.dirty = true
	}
}

func (s *Settings) permissions() (map[string]json.RawMessage, []string, error) {
	perms := make(map[string]json.RawMessage)
	if err := s.get("permissions", &perms); err != nil {
		return nil, nil, err
	}
	if perms == nil {
		perms = make(map[string]json.RawMessage)
	}
	var dirs []string
	if data, ok := perms["additionalDirectories"]; ok {
		if err := json.Unmarshal(data, &dirs); err != nil {
			return nil, nil, errors.Wrap(err, "decoding permissions.additionalDirectories")
		}
	}
	return perms, dirs, nil
}

func (s *Settings) setDirectories(perms map[string]json.RawMessage, dirs []string) error {
	if len(dirs) == 0 {
		delete(perms, "additionalDirectories")
	} else {
		data, err := json.Marshal(dirs)
		if err != nil {
			return errors.Wrap(err, "encoding additionalDirectories")
		}
		perms["additionalDirectories"] = data
	}
	if len(perms) == 0 {
		s.del("permissions")
		return nil
	}
	return s.set("permissions", perms)
}

// Directories returns permissions.additionalDirectories.
func (s *Settings) Directories() ([]string, error) {
	_, dirs, err := s.permissions()
	return dirs, err
}

// HasDirectory reports whether dir is granted.
func (s *Settings) HasDirectory(dir string) (bool, error) {
	dirs, err := s.Directories()
	return slices.Contains(dirs, dir), err
}

// AddDirectory grants access to dir once.
func (s *Settings) AddDirectory(dir string) error {
	perms, dirs, err := s.permissions()
	if err != nil {
		return err
	}
	if slices.Contains(dirs, dir) {
		return nil
	}
	return s.setDirectories(perms, append(dirs, dir))
}

// RemoveDirectory revokes dir.
func (s *Settings) RemoveDirectory(dir string) error {
	perms, dirs, err := s.permissions()
	if err != nil {
		return err
	}
	if !slices.Contains(dirs, dir) {
		return nil
	}
	return s.setDirectories(perms, slices.DeleteFunc(dirs, func(d string) bool { return d == dir }))
}

func (s *Settings) hooks() (map[string][]HookMatcher, error) {
	hooks := make(map[string][]HookMatcher)
	if err := s.get("hooks", &hooks); err != nil {
		return nil, err
	}
	if hooks == nil {
		hooks = make(map[string][]HookMatcher)
	}
	return hooks, nil
}

func (s *Settings) setHooks(hooks map[string][]HookMatcher) error {
	for event, matchers := range hooks {
		if len(matchers) == 0 {
			delete(hooks, event)
		}
	}
	if len(hooks) == 0 {
		s.del("hooks")
		return nil
	}
	return s.set("hooks", hooks)
}

// HookCommands returns every command registered for event.
func (s *Settings) HookCommands(event string) ([]string, error) {
	hooks, err := s.hooks()
	if err != nil {
		return nil, err
	}
	var cmds []string
	for _, m := range hooks[event] {
		for _, h := range m.Hooks {
			cmds = append(cmds, h.Command)
		}
	}
	return cmds, nil
}

// AddHook registers command for event unless it is already present.
func (s *Settings) AddHook(event, command string) error {
	hooks, err := s.hooks()
	if err != nil {
		return err
	}
	for _, m := range hooks[event] {
		for _, h := range m.Hooks {
			if h.Command == command {
				return nil
			}
		}
	}
	hooks[event] = append(hooks[event], HookMatcher{
		Hooks: []HookCommand{{Type: "command", Command: command}},
	})
	return s.setHooks(hooks)
}

// RemoveHooks drops every hook command, for any event, that match selects.
// Matchers left without commands are removed. It returns the number of
// commands removed.
func (s *Settings) RemoveHooks(match func(command string) bool) (int, error) {
	hooks, err := s.hooks()
	if err != nil {
		return 0, err
	}
	removed := 0
	for event, matchers := range hooks {
		kept := matchers[:0]
		for _, m := range matchers {
			n := len(m.Hooks)
			m.Hooks = slices.DeleteFunc(m.Hooks, func(h HookCommand) bool {
				return match(h.Command)
			})
			removed += n - len(m.Hooks)
			if len(m.Hooks) > 0 {
				kept = append(kept, m)
			}
		}
		hooks[event] = kept
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.setHooks(hooks)
}

// StatusLine returns the configured status line, or nil.
func (s *Settings) StatusLine() (*StatusLine, error) {
	if _, ok := s.raw["statusLine"]; !ok {
		return nil, nil
	}
	var sl StatusLine
	if err := s.get("statusLine", &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

// SetStatusLine points the status line at command.
func (s *Settings) SetStatusLine(command string) error {
	return s.set("statusLine", StatusLine{Type: "command", Command: command})
}

// ClearStatusLine removes the status line when match selects its command. A
// status line configured by someone else is left alone.
func (s *Settings) ClearStatusLine(match func(command string) bool) error {
	sl, err := s.StatusLine()
	if err != nil || sl == nil {
		return err
	}
	if match(sl.Command) {
		s.del("statusLine")
	}
	return nil
}
