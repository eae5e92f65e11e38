package loaders

import (
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/internal/settings"
)

// Skills installs the composed skills/ and, for agents with a settings file,
// grants the agent read access to the skills directory.
type Skills struct {
	tree
}

// NewSkills returns the skills loader.
func NewSkills() *Skills {
	return &Skills{tree: tree{
		name:        "skills",
		description: "skills",
		source:      "skills",
		target:      (*paths.AgentPaths).SkillsDir,
		check:       checkSkill,
	}}
}

func (s *Skills) Run(lc *loader.Context) error {
	if err := s.tree.Run(lc); err != nil {
		return err
	}
	if lc.Paths.SettingsFile() == "" {
		return nil
	}
	return settings.Update(lc.Paths.SettingsFile(), func(st *settings.Settings) error {
		return st.AddDirectory(lc.Paths.SkillsDir())
	})
}

func (s *Skills) Uninstall(lc *loader.Context) error {
	if err := s.tree.Uninstall(lc); err != nil {
		return err
	}
	if lc.Paths.SettingsFile() == "" {
		return nil
	}
	return settings.Update(lc.Paths.SettingsFile(), func(st *settings.Settings) error {
		return st.RemoveDirectory(lc.Paths.SkillsDir())
	})
}

func (s *Skills) Validate(lc *loader.Context) *loader.Validation {
	v := s.tree.Validate(lc)
	if lc.Paths.SettingsFile() == "" {
		return v
	}

	st, err := settings.Load(lc.Paths.SettingsFile())
	if err != nil {
		v.Addf("%v", err)
		return v
	}
	granted, err := st.HasDirectory(lc.Paths.SkillsDir())
	if err != nil {
		v.Addf("%v", err)
		return v
	}
	if !granted {
		v.Addf("%s is missing from permissions.additionalDirectories in %s; run nori install",
			lc.Paths.SkillsDir(), st.Path())
	}
	return v
}
