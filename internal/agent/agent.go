// Package agent describes the coding agents nori installs into.
package agent

import (
	"log/slog"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/loaders"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/internal/profile"
	"github.com/tilework-tech/nori-profiles/pkg/fileutil"
)

// DefaultProfile is installed when nothing else is selected.
const DefaultProfile = "senior-swe"

// Agent is one install target.
type Agent struct {
	// Name is the identifier used by --agent.
	Name string

	// DisplayName is shown to users.
	DisplayName string

	// ProfileField is the disk config key holding the agent's selection.
	ProfileField string
}

// Paths returns the agent's locations under installDir.
func (a *Agent) Paths(installDir string) (*paths.AgentPaths, error) {
	return paths.New(installDir, a.Name)
}

// Pipeline returns a fresh loader registry for the agent.
func (a *Agent) Pipeline() (*loader.Registry, error) {
	return loaders.ForAgent(a.Name)
}

// Installed reports whether nori has written anything for the agent under
// installDir.
func (a *Agent) Installed(installDir string) bool {
	p, err := a.Paths(installDir)
	if err != nil {
		return false
	}
	return fileutil.IsDir(p.ProfilesDir())
}

// SelectedProfile returns the profile recorded in cfg, or "".
func (a *Agent) SelectedProfile(cfg *diskconfig.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.ActiveProfile(a.Name)
}

// ContextOptions configures NewContext.
type ContextOptions struct {
	InstallDir string
	Config     *diskconfig.Config
	Profile    string
	Binary     string
	Logger     *slog.Logger
}

// NewContext builds the loader context for one pipeline run. The caller
// closes it.
func (a *Agent) NewContext(opts ContextOptions) (*loader.Context, error) {
	p, err := a.Paths(opts.InstallDir)
	if err != nil {
		return nil, err
	}
	c, err := profile.NewComposer(p)
	if err != nil {
		return nil, err
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &diskconfig.Config{}
	}
	return &loader.Context{
		Paths:    p,
		Config:   cfg,
		Composer: c,
		Profile:  opts.Profile,
		Binary:   opts.Binary,
		Logger:   opts.Logger,
	}, nil
}
