package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/cmd"
	"github.com/tilework-tech/nori-profiles/internal/agent"
	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/installdir"
	"github.com/tilework-tech/nori-profiles/internal/logging"
	"github.com/tilework-tech/nori-profiles/internal/registry"
)

// loggerFrom returns the logger set up by the root command.
func loggerFrom(cmd *cobra.Command) *slog.Logger {
	return logging.FromContext(cmd.Context())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// currentAgent returns the agent named by --agent or the settings.
func currentAgent() (*agent.Agent, error) {
	name := agentFlag
	if name == "" {
		name = settings.Agent
	}
	a, err := agents.Get(name)
	if err != nil {
		return nil, errors.NewUserError(err, "Pass --agent=claude-code or --agent=cursor-agent")
	}
	return a, nil
}

// existingInstallDir returns --install-dir when set, otherwise the single
// installation reachable from the working directory.
func existingInstallDir() (string, error) {
	if installDirFlag != "" {
		dir, err := filepath.Abs(installDirFlag)
		if err != nil {
			return "", errors.Wrapf(err, "resolving %s", installDirFlag)
		}
		if !installdir.HasInstallation(dir) {
			return "", errors.NewUserError(
				errors.Wrapf(installdir.ErrNoInstallation, "in %s", dir),
				"Run: nori install --install-dir="+dir,
			)
		}
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.NewSystemError(err, "")
	}
	return installdir.Resolve(cwd)
}

// enclosingInstallDirs returns the installations above dir, closest first.
func enclosingInstallDirs(dir string) ([]string, error) {
	dirs, err := installdir.GetInstallDirs(dir)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(dirs, func(d string) bool { return d == dir }), nil
}

// targetInstallDir is where install writes: --install-dir, else an
// existing installation reachable from the working directory, else the
// working directory itself. Nested installations found from the working
// directory are refused; an explicit --install-dir is trusted.
func targetInstallDir() (string, error) {
	if installDirFlag != "" {
		return filepath.Abs(installDirFlag)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.NewSystemError(err, "")
	}
	dirs, err := installdir.GetInstallDirs(cwd)
	if err != nil {
		return "", err
	}
	switch len(dirs) {
	case 0:
		return cwd, nil
	case 1:
		return dirs[0], nil
	default:
		return installdir.Resolve(cwd)
	}
}

// loadConfig reads and validates the disk config in dir.
func loadConfig(dir string) (*diskconfig.Config, error) {
	cfg, err := diskconfig.Load(dir)
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	if err := cfg.Validate(); err != nil {
		ee := errors.NewConfigError(err)
		ee.Suggestion = "Fix " + cfg.Path + " and retry; run 'nori check' for details"
		return nil, ee
	}
	return cfg, nil
}

// binaryPath is the command written into hooks and the status line.
func binaryPath() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			return resolved
		}
		return exe
	}
	return "nori"
}

// newResolver wires the registry client used by the registry-* commands.
func newResolver(cmd *cobra.Command) *registry.Resolver {
	return &registry.Resolver{
		API:       registry.NewClient(registry.WithUserAgent(cmdUserAgent())),
		Tokens:    registry.NewPasswordTokenSource(nil),
		PublicURL: settings.RegistryURL,
		Logger:    loggerFrom(cmd),
	}
}

func cmdUserAgent() string {
	return cmd.UserAgent()
}
