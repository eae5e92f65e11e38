package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
)

func init() {
	rootCmd.AddCommand(toggleSessionTranscriptsCmd, toggleAutoupdateCmd)
}

var toggleSessionTranscriptsCmd = &cobra.Command{
	Use:   "toggle-session-transcripts",
	Short: "Turn sending session transcripts on or off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle(cmd, "Session transcripts", func(c *diskconfig.Config) *diskconfig.Toggle {
			return &c.SendSessionTranscript
		})
	},
}

var toggleAutoupdateCmd = &cobra.Command{
	Use:   "toggle-autoupdate",
	Short: "Turn automatic updates on or off",
	Long: `Toggle whether the session-start hook installs newer nori releases in
the background.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle(cmd, "Autoupdate", func(c *diskconfig.Config) *diskconfig.Toggle {
			return &c.Autoupdate
		})
	},
}

// runToggle flips the field returned by field and persists only that key.
func runToggle(cmd *cobra.Command, label string, field func(*diskconfig.Config) *diskconfig.Toggle) error {
	dir, err := existingInstallDir()
	if err != nil {
		return err
	}
	if _, err := loadConfig(dir); err != nil {
		return err
	}

	var now diskconfig.Toggle
	if _, err := diskconfig.Update(dir, func(c *diskconfig.Config) error {
		t := field(c)
		*t = t.Flip()
		now = *t
		return nil
	}); err != nil {
		return errors.NewSystemError(err, "")
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", label, now)
	}
	return nil
}
