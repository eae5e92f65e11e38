// Package profile discovers and composes nori profiles.
//
// A profile is a directory holding the agent instructions file plus optional
// skills/, subagents/ and slashcommands/ trees. Directories whose name starts
// with an underscore are mixins: partial overlays that are layered under a
// profile during composition and are never installed on their own.
//
// Built-in profiles and mixins are embedded in the binary. User profiles live
// in the installed profiles directory and are composed the same way.
//
// Composition order:
//
//	_base, _docs, [_paid, _docs-paid], ancestors..., profile
//
// where every ancestor (and the profile) is preceded by the mixins its
// profile.toml declares. Later layers win on file collisions.
package profile
