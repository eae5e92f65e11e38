package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/registry"
)

var downloadRegistry string

func init() {
	registryDownloadCmd.Flags().StringVar(&downloadRegistry, "registry", "", "download from this registry")
	rootCmd.AddCommand(registryDownloadCmd)
}

var registryDownloadCmd = &cobra.Command{
	Use:   "registry-download <name>[@version]",
	Short: "Download a profile from a registry",
	Long: `Download a profile into the agent's profiles directory. The name is looked
up in the public registry and every configured private registry. When more
than one registry has it, pass --registry to choose.

Without a version the registry's latest is used.`,
	Example: `  nori registry-download reviewer
  nori registry-download reviewer@1.2.0 --registry https://registry.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runRegistryDownload,
}

func runRegistryDownload(cmd *cobra.Command, args []string) error {
	name, version, err := registry.ParseSpec(args[0])
	if err != nil {
		return errors.NewUserError(err, "Use the form <name> or <name>@<major.minor.patch>")
	}
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
	p, err := a.Paths(dir)
	if err != nil {
		return err
	}

	res, err := newResolver(cmd).Download(commandContext(cmd), registry.DownloadRequest{
		Name:         name,
		Version:      version,
		RegistryURL:  downloadRegistry,
		Config:       cfg,
		ProfilesDir:  p.ProfilesDir(),
		Instructions: p.InstructionFilename(),
	})
	if err != nil {
		return registryError(err, "registry-download")
	}

	if !quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Downloaded %s@%s from %s to %s\n", res.Name, res.Version, res.RegistryURL, res.Dir)
		fmt.Fprintf(out, "Activate it with: nori switch-profile %s\n", res.Name)
	}
	return nil
}
