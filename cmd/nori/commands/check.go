package commands

import (
	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/internal/agent"
	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/doctor"
	"github.com/tilework-tech/nori-profiles/internal/errors"
)

var checkJSON bool

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false,
		"output results as JSON")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"doctor"},
	Short:   "Check the health of the installation",
	Long: `Run diagnostic checks on the nori installation.

Validates the disk config, looks for nested installations, and asks every
loader whether its artifacts are in place.

Output modes:
  (default)   Show errors and warnings
  -v          Show all checks including passed ones
  --json      Machine-readable JSON output

Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := currentAgent()
	if err != nil {
		return err
	}
	dir, err := listingDir()
	if err != nil {
		return err
	}

	runner := doctor.NewRunner(
		doctor.NewConfigCheck(dir),
		doctor.NewNestingCheck(dir),
	)

	// A broken config is reported by its own check; loaders still run
	// against the defaults.
	cfg, err := diskconfig.Load(dir)
	if err != nil {
		cfg = &diskconfig.Config{}
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
	if lc.Profile == "" {
		lc.Profile = agent.DefaultProfile
	}

	pipe, err := a.Pipeline()
	if err != nil {
		return err
	}
	runner.AddCheck(doctor.LoaderChecks(pipe, lc)...)

	report := runner.Run()
	report.InstallDir = dir
	report.Agent = a.Name

	format := doctor.FormatText
	if checkJSON {
		format = doctor.FormatJSON
	}
	if !quiet || checkJSON {
		if err := doctor.NewReporter(cmd.OutOrStdout(), format, verbosity > 0).Report(report); err != nil {
			return err
		}
	}

	if report.HasErrors() {
		return errors.NewUserError(errCheckFailed, "Run: nori install")
	}
	return nil
}

var errCheckFailed = errors.New("installation check failed")
