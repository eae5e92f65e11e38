package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/installdir"
)

func init() {
	rootCmd.AddCommand(statuslineCmd)
}

var statuslineCmd = &cobra.Command{
	Use:    "statusline",
	Short:  "Print the status line for the host agent",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runStatusline,
}

type statuslinePayload struct {
	Cwd       string `json:"cwd"`
	Workspace struct {
		CurrentDir string `json:"current_dir"`
	} `json:"workspace"`
}

// runStatusline prints one line and always succeeds.
func runStatusline(c *cobra.Command, _ []string) error {
	fmt.Fprintln(c.OutOrStdout(), statusText(c.InOrStdin()))
	return nil
}

func statusText(r io.Reader) string {
	var p statuslinePayload
	if data, err := io.ReadAll(io.LimitReader(r, 1<<20)); err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &p)
	}
	cwd := p.Workspace.CurrentDir
	if cwd == "" {
		cwd = p.Cwd
	}
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	dirs, err := installdir.GetInstallDirs(cwd)
	if err != nil || len(dirs) == 0 {
		return "nori: not installed"
	}
	cfg, err := diskconfig.Load(dirs[0])
	if err != nil {
		return "nori: config error"
	}

	a, err := currentAgent()
	if err != nil {
		return "nori"
	}
	name := a.SelectedProfile(cfg)
	if name == "" {
		name = "no profile"
	}
	line := "nori: " + name
	if len(dirs) > 1 {
		line += fmt.Sprintf(" (%d nested installs)", len(dirs))
	}
	return line
}
