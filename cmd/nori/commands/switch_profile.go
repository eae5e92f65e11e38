package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/agent"
	"github.com/tilework-tech/nori-profiles/internal/errors"
)

func init() {
	rootCmd.AddCommand(switchProfileCmd)
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch-profile [name]",
	Short: "Switch the installed profile",
	Long: `Switch-profile reinstalls the agent's artifacts from another profile and
records it as the active one. Without a name you choose from the available
profiles on a terminal.`,
	Example: `  nori switch-profile documenter
  nori switch-profile`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwitchProfile,
}

func runSwitchProfile(cmd *cobra.Command, args []string) error {
	a, err := currentAgent()
	if err != nil {
		return err
	}
	dir, err := existingInstallDir()
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

	current := a.SelectedProfile(cfg)
	var name string
	if len(args) == 1 {
		name, err = requireProfile(lc.Composer, args[0])
	} else {
		sel := newSelector()
		if !sel.Interactive() {
			return errors.NewUserError(
				errors.New("no profile given"),
				"Run: nori switch-profile <name>; see nori list-profiles",
			)
		}
		name, err = chooseProfile(lc.Composer, "", current, false)
	}
	if err != nil {
		return err
	}

	lc.Profile = name
	if err := installProfileInto(a, lc); err != nil {
		return err
	}

	if !quiet {
		out := cmd.OutOrStdout()
		if current != "" && current != name {
			fmt.Fprintf(out, "Switched %s from %s to %s\n", a.DisplayName, current, name)
		} else {
			fmt.Fprintf(out, "Installed profile %s for %s\n", name, a.DisplayName)
		}
	}
	return nil
}
