// Package diskconfig loads and saves the per-installation JSON config file.
//
// Every writer goes through Update, which re-reads the file, applies the
// mutation, and writes back only the keys whose values changed. Keys this
// package does not know about are carried through untouched. There is no
// file locking: two processes updating the same file concurrently can lose
// one of the writes.
package diskconfig

import (
	"bytes"
	"encoding/json"
	"os"
	"slices"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

// FilePerm is the mode of the config file. It holds credentials.
const FilePerm = 0o600

// Toggle is an enabled/disabled feature flag.
type Toggle string

// Toggle values.
const (
	Enabled  Toggle = "enabled"
	Disabled Toggle = "disabled"
)

// Flip returns the opposite toggle value.
func (t Toggle) Flip() Toggle {
	if t == Disabled {
		return Enabled
	}
	return Disabled
}

// ProfileSelection records the active profile for one agent.
type ProfileSelection struct {
	BaseProfile string `json:"baseProfile"`
}

// RegistryAuth holds credentials for one private registry.
type RegistryAuth struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	RegistryURL string `json:"registryUrl"`
}

// Config is the typed view of .nori-config.json.
type Config struct {
	Username        string `json:"username,omitempty"`
	Password        string `json:"password,omitempty"`
	OrganizationURL string `json:"organizationUrl,omitempty"`

	Profile       *ProfileSelection `json:"profile,omitempty"`
	CursorProfile *ProfileSelection `json:"cursorProfile,omitempty"`

	SendSessionTranscript Toggle `json:"sendSessionTranscript,omitempty"`
	Autoupdate            Toggle `json:"autoupdate,omitempty"`

	InstallDirs   []string       `json:"installDirs,omitempty"`
	RegistryAuths []RegistryAuth `json:"registryAuths,omitempty"`

	// Exists is false when no file was found.
	Exists bool `json:"-"`
	// Path is the file location.
	Path string `json:"-"`

	raw map[string]json.RawMessage
}

// knownKeys are the JSON keys owned by Config.
var knownKeys = []string{
	"username", "password", "organizationUrl",
	"profile", "cursorProfile",
	"sendSessionTranscript", "autoupdate",
	"installDirs", "registryAuths",
}

// Load reads the config at installDir. A missing file yields an empty config
// with Exists == false. Migration defaults are applied in memory only.
func Load(installDir string) (*Config, error) {
	path := paths.ConfigPath(installDir)
	cfg := &Config{Path: path, raw: make(map[string]json.RawMessage)}

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.migrate()
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	if err := json.Unmarshal(data, &cfg.raw); err != nil {
		return nil, errors.WithDetailf(
			errors.Wrapf(errors.ErrInvalidConfig, "parsing %s: %v", path, err),
			"fix or delete %s and run nori install again", path)
	}
	if cfg.raw == nil {
		cfg.raw = make(map[string]json.RawMessage)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "decoding %s: %v", path, err)
	}

	cfg.Exists = true
	cfg.migrate()
	return cfg, nil
}

// migrate fills defaults for fields that older configs predate.
func (c *Config) migrate() {
	if c.SendSessionTranscript == "" {
		c.SendSessionTranscript = Enabled
	}
	if c.Autoupdate == "" {
		c.Autoupdate = Enabled
	}
}

// Update loads the config at installDir, applies fn, and writes back the
// result. Only keys whose values fn changed are rewritten; every other key,
// known or not, keeps its on-disk value.
func Update(installDir string, fn func(*Config) error) (*Config, error) {
	cfg, err := Load(installDir)
	if err != nil {
		return nil, err
	}

	before, err := cfg.fields()
	if err != nil {
		return nil, err
	}
	if err := fn(cfg); err != nil {
		return nil, err
	}
	after, err := cfg.fields()
	if err != nil {
		return nil, err
	}

	merged := make(map[string]json.RawMessage, len(cfg.raw))
	for k, v := range cfg.raw {
		merged[k] = v
	}
	for _, k := range knownKeys {
		if bytes.Equal(before[k], after[k]) {
			continue
		}
		if v, ok := after[k]; ok {
			merged[k] = v
		} else {
			delete(merged, k)
		}
	}

	if err := fileutil.AtomicWriteJSON(cfg.Path, merged, FilePerm); err != nil {
		return nil, errors.Wrapf(err, "writing %s", cfg.Path)
	}
	cfg.raw = merged
	cfg.Exists = true
	return cfg, nil
}

// Delete removes the config file at installDir. A missing file is not an error.
func Delete(installDir string) error {
	err := os.Remove(paths.ConfigPath(installDir))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing config")
	}
	return nil
}

// fields encodes the typed fields into per-key JSON values. Empty values are
// omitted.
func (c *Config) fields() (map[string]json.RawMessage, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return out, nil
}

// HasKey reports whether the file on disk carries key.
func (c *Config) HasKey(key string) bool {
	_, ok := c.raw[key]
	return ok
}

// IsPaid reports whether the config carries a complete auth triple.
func (c *Config) IsPaid() bool {
	return c.Username != "" && c.Password != "" && c.OrganizationURL != ""
}

// ActiveProfile returns the selected profile for agent, or "".
func (c *Config) ActiveProfile(agent string) string {
	if sel := c.selection(agent); sel != nil {
		return sel.BaseProfile
	}
	return ""
}

// SetActiveProfile records name as the active profile for agent. An empty
// name clears the selection.
func (c *Config) SetActiveProfile(agent, name string) {
	var sel *ProfileSelection
	if name != "" {
		sel = &ProfileSelection{BaseProfile: name}
	}
	switch agent {
	case paths.AgentCursor:
		c.CursorProfile = sel
	default:
		c.Profile = sel
	}
}

func (c *Config) selection(agent string) *ProfileSelection {
	if agent == paths.AgentCursor {
		return c.CursorProfile
	}
	return c.Profile
}

// AddInstallDir records dir once.
func (c *Config) AddInstallDir(dir string) {
	if !slices.Contains(c.InstallDirs, dir) {
		c.InstallDirs = append(c.InstallDirs, dir)
	}
}

// RemoveInstallDir forgets dir.
func (c *Config) RemoveInstallDir(dir string) {
	c.InstallDirs = slices.DeleteFunc(c.InstallDirs, func(d string) bool { return d == dir })
}

// RegistryAuthFor returns the credentials for registryURL, comparing
// normalized URLs.
func (c *Config) RegistryAuthFor(registryURL string) *RegistryAuth {
	for i := range c.RegistryAuths {
		if urlutil.Equal(c.RegistryAuths[i].RegistryURL, registryURL) {
			return &c.RegistryAuths[i]
		}
	}
	return nil
}

// IsEmpty reports whether the config holds nothing worth keeping once no
// agent references it: no credentials, registry auths, or profile selections.
func (c *Config) IsEmpty() bool {
	return !c.IsPaid() && len(c.RegistryAuths) == 0 && c.Profile == nil && c.CursorProfile == nil
}
