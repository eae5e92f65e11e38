// Package frontmatter parses YAML frontmatter at the top of markdown files,
// as used by skills (SKILL.md) and subagent definitions.
package frontmatter
