package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/agent"
	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/installdir"
)

var listProfilesJSON bool

func init() {
	listProfilesCmd.Flags().BoolVar(&listProfilesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listProfilesCmd)
}

var listProfilesCmd = &cobra.Command{
	Use:     "list-profiles",
	Aliases: []string{"profiles"},
	Short:   "List installable profiles",
	Long: `List the built-in profiles and the profiles in the agent's profiles
directory. The active profile is marked with an asterisk.`,
	Args: cobra.NoArgs,
	RunE: runListProfiles,
}

type profileJSON struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Builtin     bool   `json:"builtin"`
	Active      bool   `json:"active"`
}

func runListProfiles(cmd *cobra.Command, _ []string) error {
	a, err := currentAgent()
	if err != nil {
		return err
	}
	dir, err := listingDir()
	if err != nil {
		return err
	}
	cfg, err := diskconfig.Load(dir)
	if err != nil {
		return errors.NewConfigError(err)
	}
	lc, err := a.NewContext(agent.ContextOptions{InstallDir: dir, Config: cfg, Logger: loggerFrom(cmd)})
	if err != nil {
		return err
	}
	defer lc.Close()

	infos, err := lc.Composer.List()
	if err != nil {
		return errors.NewSystemError(err, "")
	}
	active := a.SelectedProfile(cfg)

	out := cmd.OutOrStdout()
	if listProfilesJSON {
		list := make([]profileJSON, len(infos))
		for i, p := range infos {
			list[i] = profileJSON{
				Name:        p.Name,
				Description: p.Description,
				Builtin:     p.Builtin,
				Active:      p.Name == active,
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No profiles found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tSOURCE\tDESCRIPTION")
	for _, p := range infos {
		mark := " "
		if p.Name == active {
			mark = "*"
		}
		source := "user"
		if p.Builtin {
			source = "builtin"
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", mark, p.Name, source, p.Description)
	}
	return w.Flush()
}

// listingDir is the installation to read from, falling back to the working
// directory when none is reachable so built-in profiles can still be listed.
func listingDir() (string, error) {
	if installDirFlag != "" {
		return filepath.Abs(installDirFlag)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.NewSystemError(err, "")
	}
	dir, err := installdir.Resolve(cwd)
	if errors.Is(err, installdir.ErrNoInstallation) {
		return cwd, nil
	}
	return dir, err
}
