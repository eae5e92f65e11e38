// Package paths computes every filesystem location the nori CLI touches.
//
// No function here consults $HOME or the working directory implicitly: an
// installation root is always passed in, so several installations can be
// manipulated within one process (and in tests).
//
// For an install root R and the Claude Code agent:
//
//	R/.nori-config.json            disk config (installation marker)
//	R/.nori-installed-version      legacy installation marker
//	R/.claude/profiles/<name>/     installed profiles
//	R/.claude/skills/              skills
//	R/.claude/commands/            slash commands
//	R/.claude/agents/              subagents
//	R/.claude/CLAUDE.md            instructions file with the managed block
//	R/.claude/settings.json        permissions, hooks, status line
//
// Cursor uses R/.cursor/ with AGENTS.md and no settings file.
package paths
