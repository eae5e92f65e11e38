package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/agent"
	"github.com/tilework-tech/nori-profiles/internal/cli/prompt"
	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/installdir"
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/loaders"
	"github.com/tilework-tech/nori-profiles/internal/profile"
)

var (
	installNonInteractive bool
	installProfile        string
	installDryRun         bool
)

// newSelector is replaced in tests.
var newSelector = prompt.NewSelector

func init() {
	installCmd.Flags().BoolVar(&installNonInteractive, "non-interactive", false,
		"never prompt; keep the current profile or use "+agent.DefaultProfile)
	installCmd.Flags().StringVar(&installProfile, "profile", "",
		"profile to install")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false,
		"show what would change without writing anything")
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or refresh a profile",
	Long: `Install composes the selected profile and writes it into the agent's
directories: built-in profiles, skills, slash commands, subagents, session
hooks, the status line, and the managed block of the instructions file.

Running install again is safe. It refreshes every artifact nori owns and
leaves everything else alone.`,
	Example: `  # Install, choosing a profile interactively
  nori install

  # Install a specific profile without prompting
  nori install --profile documenter --non-interactive

  # Preview the instructions change
  nori install --dry-run`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, _ []string) error {
	a, err := currentAgent()
	if err != nil {
		return err
	}
	dir, err := targetInstallDir()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}

	lc, err := a.NewContext(agent.ContextOptions{
		InstallDir: dir,
		Config:     cfg,
		Binary:     binaryPath(),
		Logger:     loggerFrom(cmd),
	})
	if err != nil {
		return err
	}
	defer lc.Close()

	name, err := chooseProfile(lc.Composer, installProfile, a.SelectedProfile(cfg), installNonInteractive)
	if err != nil {
		return err
	}
	lc.Profile = name

	if installDryRun {
		return previewInstall(cmd, a, lc)
	}
	if err := installProfileInto(a, lc); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Installed profile %s for %s in %s\n", name, a.DisplayName, dir)
	}
	warnEnclosing(cmd, dir)
	return nil
}

// warnEnclosing reports installations above dir on stderr.
func warnEnclosing(cmd *cobra.Command, dir string) {
	outer, err := enclosingInstallDirs(dir)
	if err != nil {
		loggerFrom(cmd).Debug("checking for enclosing installations", "error", err)
		return
	}
	if len(outer) == 0 {
		return
	}
	loggerFrom(cmd).Warn("installation is nested inside another", "dir", dir, "outer", outer)
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is nested inside %s.\n%s\n",
		dir, strings.Join(outer, ", "), installdir.Remediation(append([]string{dir}, outer...)))
}

// installProfileInto runs the pipeline and records the selection.
func installProfileInto(a *agent.Agent, lc *loader.Context) error {
	pipe, err := a.Pipeline()
	if err != nil {
		return err
	}
	if err := pipe.Install(lc); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) || errors.Is(err, profile.ErrExtendsCycle) ||
			errors.Is(err, profile.ErrExtendsTooDeep) || errors.Is(err, profile.ErrInvalidManifest) {
			return errors.NewUserError(err, "Run: nori list-profiles")
		}
		if errors.Is(err, errors.ErrCorruptPackage) {
			return errors.NewSystemError(err, "Reinstall nori")
		}
		return errors.NewSystemError(err, "Run: nori check")
	}

	dir := lc.Paths.InstallDir()
	cfg, err := diskconfig.Update(dir, func(c *diskconfig.Config) error {
		c.SetActiveProfile(a.Name, lc.Profile)
		c.AddInstallDir(dir)
		return nil
	})
	if err != nil {
		return errors.NewSystemError(err, "")
	}
	lc.Config = cfg
	return nil
}

// chooseProfile picks the explicit name, the user's choice on a terminal,
// the existing selection, or the default, in that order.
func chooseProfile(c *profile.Composer, explicit, current string, nonInteractive bool) (string, error) {
	if explicit != "" {
		return requireProfile(c, explicit)
	}

	sel := newSelector()
	if !nonInteractive && sel.Interactive() {
		infos, err := c.List()
		if err != nil {
			return "", err
		}
		choice, err := sel.SelectProfile(infos, current)
		if err != nil {
			return "", errors.NewUserError(err, "Pass --profile to choose without prompting")
		}
		return choice.Name, nil
	}

	if current != "" && c.Exists(current) {
		return current, nil
	}
	return agent.DefaultProfile, nil
}

func requireProfile(c *profile.Composer, name string) (string, error) {
	if err := profile.ValidateName(name); err != nil {
		return "", errors.NewUserError(err, "Run: nori list-profiles")
	}
	if !c.Exists(name) {
		return "", errors.NewUserError(
			errors.Wrapf(profile.ErrProfileNotFound, "%q", name),
			"Run: nori list-profiles, or fetch it with: nori registry-download "+name,
		)
	}
	return name, nil
}

func previewInstall(cmd *cobra.Command, a *agent.Agent, lc *loader.Context) error {
	out := cmd.OutOrStdout()

	layers, err := lc.Composer.Layers(lc.Profile, profile.Options{Paid: lc.Paid()})
	if err != nil {
		return errors.NewUserError(err, "Run: nori list-profiles")
	}
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}
	pipe, err := a.Pipeline()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Would install profile %s for %s in %s\n", lc.Profile, a.DisplayName, lc.Paths.InstallDir())
	fmt.Fprintf(out, "  layers:  %s\n", strings.Join(names, " → "))
	fmt.Fprintf(out, "  loaders: %s\n", strings.Join(pipe.Names(), ", "))

	diff, err := loaders.NewInstructions().Preview(lc)
	if err != nil {
		return errors.NewUserError(err, "Run: nori check")
	}
	if diff == "" {
		fmt.Fprintf(out, "\n%s is up to date\n", lc.Paths.InstructionsFile())
		return nil
	}
	fmt.Fprintf(out, "\n%s", diff)
	return nil
}
