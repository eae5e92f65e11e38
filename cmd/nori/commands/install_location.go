package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/installdir"
)

func init() {
	rootCmd.AddCommand(installLocationCmd)
}

var installLocationCmd = &cobra.Command{
	Use:   "install-location",
	Short: "Print the installations reachable from the current directory",
	Long: `Print every directory from the current one up to the filesystem root
that holds a nori installation, closest first. Exits non-zero when there
is none.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		start := installDirFlag
		if start == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return errors.NewSystemError(err, "")
			}
			start = cwd
		}
		dirs, err := installdir.GetInstallDirs(start)
		if err != nil {
			return errors.NewSystemError(err, "")
		}
		if len(dirs) == 0 {
			return errors.NewUserError(
				errors.Wrapf(installdir.ErrNoInstallation, "from %s", start),
				"Run: nori install",
			)
		}
		for _, d := range dirs {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}
