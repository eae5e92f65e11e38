// Package placeholder rewrites the path tokens used in profile templates.
//
// Templates refer to installed locations with double-curly tokens such as
// {{skills_dir}}; at install time each token becomes the absolute,
// agent-specific path. Unknown tokens are left verbatim so newer templates
// keep working with older binaries.
package placeholder

import (
	"path"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/paths"
)

// Recognized tokens.
const (
	SkillsDir    = "{{skills_dir}}"
	ProfilesDir  = "{{profiles_dir}}"
	CommandsDir  = "{{commands_dir}}"
	SubagentsDir = "{{subagents_dir}}"
	InstallDir   = "{{install_dir}}"
)

// Substituter replaces every recognized token in a single pass.
type Substituter struct {
	replacer *strings.Replacer
}

// New builds a Substituter for the given agent paths.
func New(p *paths.AgentPaths) *Substituter {
	return &Substituter{replacer: strings.NewReplacer(
		SkillsDir, p.SkillsDir(),
		ProfilesDir, p.ProfilesDir(),
		CommandsDir, p.CommandsDir(),
		SubagentsDir, p.SubagentsDir(),
		InstallDir, p.InstallDir(),
	)}
}

// Substitute returns content with every recognized token replaced.
func (s *Substituter) Substitute(content string) string {
	return s.replacer.Replace(content)
}

// Transform is a fileutil.TransformFunc that substitutes template files only.
func (s *Substituter) Transform(rel string, data []byte) []byte {
	if !IsTemplateFile(rel) {
		return data
	}
	return []byte(s.Substitute(string(data)))
}

// IsTemplateFile reports whether a file takes part in substitution.
func IsTemplateFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}
