package loaders

import (
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

// ForAgent builds the install pipeline for agent. Order matters: later
// loaders read what the profiles loader prepared.
func ForAgent(agent string) (*loader.Registry, error) {
	r := loader.NewRegistry()
	switch agent {
	case paths.AgentClaudeCode:
		r.MustRegister(
			NewProfiles(),
			NewSkills(),
			NewSlashCommands(),
			NewSubagents(),
			NewHooks(),
			NewStatusLine(),
			NewInstructions(),
		)
	case paths.AgentCursor:
		r.MustRegister(
			NewProfiles(),
			NewSkills(),
			NewSlashCommands(),
			NewSubagents(),
			NewInstructions(),
		)
	default:
		return nil, errors.Newf("no pipeline for agent %q", agent)
	}
	return r, nil
}
