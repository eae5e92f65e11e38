package loaders

import (
	"path"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/pkg/frontmatter"
)

// definition is the frontmatter shared by skills and subagents.
type definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// checkSkill requires every SKILL.md to name and describe itself.
func checkSkill(rel string, data []byte) error {
	if path.Base(rel) != "SKILL.md" {
		return nil
	}
	var def definition
	if _, err := frontmatter.MustParse(data, &def); err != nil {
		return err
	}
	if strings.TrimSpace(def.Name) == "" || strings.TrimSpace(def.Description) == "" {
		return errors.New("frontmatter requires name and description")
	}
	if want := path.Base(path.Dir(rel)); def.Name != want {
		return errors.Newf("frontmatter name %q does not match directory %q", def.Name, want)
	}
	return nil
}

// checkSubagent requires subagent definitions to carry a name.
func checkSubagent(rel string, data []byte) error {
	if path.Ext(rel) != ".md" {
		return nil
	}
	var def definition
	if _, err := frontmatter.MustParse(data, &def); err != nil {
		return err
	}
	if strings.TrimSpace(def.Name) == "" {
		return errors.New("frontmatter requires name")
	}
	return nil
}

// checkCommand accepts commands without frontmatter but rejects broken YAML.
func checkCommand(rel string, data []byte) error {
	if path.Ext(rel) != ".md" {
		return nil
	}
	var matter map[string]any
	_, err := frontmatter.Parse(data, &matter)
	return err
}

// NewSlashCommands installs the composed slashcommands/ into commands/.
func NewSlashCommands() loader.Loader {
	return &tree{
		name:        "slashcommands",
		description: "slash commands",
		source:      "slashcommands",
		target:      (*paths.AgentPaths).CommandsDir,
		check:       checkCommand,
	}
}

// NewSubagents installs the composed subagents/ into agents/.
func NewSubagents() loader.Loader {
	return &tree{
		name:        "subagents",
		description: "subagents",
		source:      "subagents",
		target:      (*paths.AgentPaths).SubagentsDir,
		check:       checkSubagent,
	}
}
