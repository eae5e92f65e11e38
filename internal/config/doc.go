// Package config holds the user-level CLI settings.
//
// Settings resolve, highest precedence first, from NORI_* environment
// variables, $XDG_CONFIG_HOME/nori/config.yaml, and built-in defaults.
package config
