package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/registry"
)

var (
	uploadRegistry    string
	uploadVersion     string
	uploadDescription string
)

func init() {
	registryUploadCmd.Flags().StringVar(&uploadRegistry, "registry", "", "publish to this registry")
	registryUploadCmd.Flags().StringVar(&uploadVersion, "version", "",
		"version to publish (default: next patch after the registry's latest, or "+registry.FirstVersion+")")
	registryUploadCmd.Flags().StringVar(&uploadDescription, "description", "",
		"description (default: from the profile manifest)")
	rootCmd.AddCommand(registryUploadCmd)
}

var registryUploadCmd = &cobra.Command{
	Use:   "registry-upload <name>",
	Short: "Publish a profile to a private registry",
	Long: `Pack the named profile from the agent's profiles directory and publish it.
The target is --registry when given, otherwise the single private registry
in the disk config's registryAuths.`,
	Example: `  nori registry-upload reviewer
  nori registry-upload reviewer --version 2.0.0 --registry https://registry.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runRegistryUpload,
}

func runRegistryUpload(cmd *cobra.Command, args []string) error {
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
	p, err := a.Paths(dir)
	if err != nil {
		return err
	}

	name := args[0]
	res, err := newResolver(cmd).Upload(commandContext(cmd), registry.UploadOptions{
		Name:         name,
		Dir:          p.ProfileDir(name),
		RegistryURL:  uploadRegistry,
		Version:      uploadVersion,
		Description:  uploadDescription,
		Config:       cfg,
		Instructions: p.InstructionFilename(),
	})
	if err != nil {
		return registryError(err, "registry-upload")
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Published %s@%s\n", res.Name, res.Version)
	}
	return nil
}
