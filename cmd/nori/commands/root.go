// Package commands implements the CLI commands for nori.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/cmd"
	"github.com/tilework-tech/nori-profiles/internal/agent"
	"github.com/tilework-tech/nori-profiles/internal/config"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/logging"
)

// installDirFlag holds the value of the --install-dir flag.
var installDirFlag string

// agentFlag holds the value of the --agent flag.
var agentFlag string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// settings holds the CLI settings loaded by initConfig.
var settings = &config.Config{
	RegistryURL: config.DefaultRegistryURL,
	UpdateURL:   config.DefaultUpdateURL,
	Agent:       config.DefaultAgent,
}

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

// agents is the set of supported agents, built once per process.
var agents = agent.Default()

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&installDirFlag, "install-dir", "",
		"installation root (default: the installation above the current directory)")
	rootCmd.PersistentFlags().StringVarP(&agentFlag, "agent", "a", "",
		"target agent: claude-code, cursor-agent (default from settings)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("nori version {{.Version}}\n")

	// Silence errors and usage so main controls error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	configLoadErr = nil
	config.Init()
	cfg, err := config.Load("")
	if err != nil {
		configLoadErr = err
		return
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		configLoadErr = errors.CombineErrors(errs[0], combine(errs[1:]))
		return
	}
	settings = cfg
}

func combine(errs []error) error {
	var out error
	for _, err := range errs {
		out = errors.CombineErrors(out, err)
	}
	return out
}

var rootCmd = &cobra.Command{
	Use:   "nori",
	Short: "Install and manage coding-agent profiles",
	Long: `nori installs profiles into coding agents such as Claude Code and Cursor.

A profile bundles agent instructions, skills, subagents and slash commands.
nori composes the selected profile from its mixins, writes it into the
agent's directories, and keeps a managed block in the agent's instructions
file so your own content is never touched.`,
	Example: `  # Install the default profile into the current project
  nori install

  # Switch to another profile
  nori switch-profile documenter

  # Check the installation
  nori check`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return validateGlobalFlags(cmd)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("cannot use --quiet and --verbose together"), "Pass one of -q or -v")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity
		if v == 0 {
			if val, ok := os.LookupEnv("NORI_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2
				case "2":
					v = 3
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logging.RedactAttr,
	}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// validateGlobalFlags reports settings problems and unknown agents.
func validateGlobalFlags(cmd *cobra.Command) error {
	if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Hidden {
		return nil
	}
	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}
	if agentFlag != "" {
		if _, err := agents.Get(agentFlag); err != nil {
			return errors.NewUserError(err, "Run 'nori --help' to see supported agents")
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
