package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/registry"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

var (
	searchRegistry string
	searchJSON     bool
)

func init() {
	registrySearchCmd.Flags().StringVar(&searchRegistry, "registry", "", "search only this registry")
	registrySearchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(registrySearchCmd)
}

var registrySearchCmd = &cobra.Command{
	Use:   "registry-search <query>",
	Short: "Search the profile registries",
	Long: `Search the public registry and every private registry listed in the
disk config's registryAuths. Registries that cannot be reached are skipped.`,
	Example: `  nori registry-search review
  nori registry-search review --registry https://registry.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runRegistrySearch,
}

func runRegistrySearch(cmd *cobra.Command, args []string) error {
	cfg, err := optionalConfig()
	if err != nil {
		return err
	}

	hits := newResolver(cmd).Search(commandContext(cmd), args[0], cfg)
	if searchRegistry != "" {
		if _, err := urlutil.Normalize(searchRegistry); err != nil {
			return errors.NewUserError(err, "Pass --registry as an http(s) URL")
		}
		filtered := hits[:0]
		for _, h := range hits {
			if urlutil.Equal(h.RegistryURL, searchRegistry) {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		if hits == nil {
			hits = []registry.RegistryHits{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Fprintf(out, "No profiles match %q.\n", args[0])
		return nil
	}
	for i, h := range hits {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s\n", h.RegistryURL)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, p := range h.Profiles {
			fmt.Fprintf(w, "  %s\t%s\n", p.Name, p.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// optionalConfig loads the disk config of the reachable installation, or an
// empty one when there is none. Only the public registry is searched then.
func optionalConfig() (*diskconfig.Config, error) {
	dir, err := listingDir()
	if err != nil {
		return nil, err
	}
	return loadConfig(dir)
}
