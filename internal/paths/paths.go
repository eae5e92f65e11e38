package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// Agent identifiers.
const (
	AgentClaudeCode = "claude-code"
	AgentCursor     = "cursor-agent"
)

// Installation-level file names.
const (
	// ConfigFileName is the disk config file at the install root.
	ConfigFileName = ".nori-config.json"

	// VersionFileName is the legacy installation marker.
	VersionFileName = ".nori-installed-version"

	// ManagedMarker marks a directory or manifest written by nori.
	ManagedMarker = ".nori-managed"
)

// agentLayout describes where an agent keeps its files, relative to the install root.
type agentLayout struct {
	dotDir       string
	instructions string
	settings     string
}

var layouts = map[string]agentLayout{
	AgentClaudeCode: {dotDir: ".claude", instructions: "CLAUDE.md", settings: "settings.json"},
	AgentCursor:     {dotDir: ".cursor", instructions: "AGENTS.md"},
}

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// ValidAgent reports whether name is a known agent identifier.
func ValidAgent(name string) bool {
	_, ok := layouts[name]
	return ok
}

// Agents returns all agent identifiers in a stable order.
func Agents() []string {
	return []string{AgentClaudeCode, AgentCursor}
}

// InstructionFilename returns the agent's instructions file basename, or ""
// for unknown agents.
func InstructionFilename(agent string) string {
	return layouts[agent].instructions
}

// ResolveHome returns the user's home directory.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// StateHome returns the XDG state directory for nori (hook logs).
func StateHome() string {
	return filepath.Join(xdg.StateHome, "nori")
}

// ConfigHome returns the XDG config directory for nori CLI settings.
func ConfigHome() string {
	return filepath.Join(xdg.ConfigHome, "nori")
}

// ConfigPath returns the disk config path for an install root.
func ConfigPath(installDir string) string {
	return filepath.Join(installDir, ConfigFileName)
}

// VersionPath returns the legacy version marker path for an install root.
func VersionPath(installDir string) string {
	return filepath.Join(installDir, VersionFileName)
}

// AgentPaths resolves agent-specific locations under one install root.
type AgentPaths struct {
	installDir string
	agent      string
	layout     agentLayout
}

// New returns AgentPaths for agent rooted at installDir.
// The install dir is made absolute.
func New(installDir, agent string) (*AgentPaths, error) {
	layout, ok := layouts[agent]
	if !ok {
		return nil, errors.Newf("unknown agent %q", agent)
	}
	if installDir == "" {
		return nil, errors.New("install directory is required")
	}
	abs, err := filepath.Abs(installDir)
	if err != nil {
		return nil, errors.Wrap(err, "resolving install directory")
	}
	return &AgentPaths{installDir: abs, agent: agent, layout: layout}, nil
}

// InstallDir returns the absolute install root.
func (p *AgentPaths) InstallDir() string { return p.installDir }

// Agent returns the agent identifier.
func (p *AgentPaths) Agent() string { return p.agent }

// AgentDir returns the agent's dot directory, e.g. R/.claude.
func (p *AgentPaths) AgentDir() string {
	return filepath.Join(p.installDir, p.layout.dotDir)
}

// ProfilesDir returns R/<dotdir>/profiles.
func (p *AgentPaths) ProfilesDir() string {
	return filepath.Join(p.AgentDir(), "profiles")
}

// ProfileDir returns the installed location of a named profile.
func (p *AgentPaths) ProfileDir(name string) string {
	return filepath.Join(p.ProfilesDir(), name)
}

// SkillsDir returns R/<dotdir>/skills.
func (p *AgentPaths) SkillsDir() string {
	return filepath.Join(p.AgentDir(), "skills")
}

// CommandsDir returns R/<dotdir>/commands.
func (p *AgentPaths) CommandsDir() string {
	return filepath.Join(p.AgentDir(), "commands")
}

// SubagentsDir returns R/<dotdir>/agents.
func (p *AgentPaths) SubagentsDir() string {
	return filepath.Join(p.AgentDir(), "agents")
}

// InstructionsFile returns the agent instructions file path.
func (p *AgentPaths) InstructionsFile() string {
	return filepath.Join(p.AgentDir(), p.layout.instructions)
}

// InstructionFilename returns the instructions file basename.
func (p *AgentPaths) InstructionFilename() string {
	return p.layout.instructions
}

// SettingsFile returns the agent settings file, or "" when the agent has none.
func (p *AgentPaths) SettingsFile() string {
	if p.layout.settings == "" {
		return ""
	}
	return filepath.Join(p.AgentDir(), p.layout.settings)
}

// ConfigFile returns the disk config path for this install root.
func (p *AgentPaths) ConfigFile() string {
	return ConfigPath(p.installDir)
}
