package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/agent"
	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove everything nori installed for the agent",
	Long: `Uninstall runs every loader in reverse order, removing the files and
settings entries nori owns. Your own skills, commands and instructions
outside the managed block are left in place.

The disk config forgets the agent's profile and this installation. When
nothing else remains in it, the config file is removed.`,
	Example: `  nori uninstall
  nori uninstall --install-dir ~/work/project`,
	Args: cobra.NoArgs,
	RunE: runUninstall,
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	a, err := currentAgent()
	if err != nil {
		return err
	}
	dir, err := existingInstallDir()
	if err != nil {
		return err
	}
	cfg, err := diskconfig.Load(dir)
	if err != nil {
		return errors.NewConfigError(err)
	}

	lc, err := a.NewContext(agent.ContextOptions{
		InstallDir: dir,
		Config:     cfg,
		Profile:    a.SelectedProfile(cfg),
		Binary:     binaryPath(),
		Logger:     loggerFrom(cmd),
	})
	if err != nil {
		return err
	}
	defer lc.Close()

	pipe, err := a.Pipeline()
	if err != nil {
		return err
	}
	// Loader failures are reported after the config is updated so a partial
	// uninstall still forgets the selection.
	uninstallErr := pipe.Uninstall(lc)

	if cfg.Exists {
		updated, err := diskconfig.Update(dir, func(c *diskconfig.Config) error {
			c.SetActiveProfile(a.Name, "")
			c.RemoveInstallDir(dir)
			return nil
		})
		if err != nil {
			return errors.NewSystemError(err, "")
		}
		if updated.IsEmpty() {
			if err := diskconfig.Delete(dir); err != nil {
				return errors.NewSystemError(err, "")
			}
			if err := os.Remove(paths.VersionPath(dir)); err != nil && !os.IsNotExist(err) {
				return errors.NewSystemError(err, "")
			}
		}
	}

	if uninstallErr != nil {
		return errors.NewSystemError(uninstallErr, "Run: nori check")
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled nori for %s from %s\n", a.DisplayName, dir)
	}
	return nil
}
