package commands

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-profiles/cmd"
	"github.com/tilework-tech/nori-profiles/internal/hook"
	"github.com/tilework-tech/nori-profiles/internal/logging"
	"github.com/tilework-tech/nori-profiles/internal/update"
)

// Replaced in tests.
var (
	startInstall = update.StartInstall
	hookLogPath  = hook.LogPath
)

func init() {
	rootCmd.AddCommand(hookCmd)
}

var hookCmd = &cobra.Command{
	Use:    "hook <name>",
	Short:  "Run a session hook",
	Long:   "Run a session hook for the host agent. Available hooks: " + strings.Join(hook.Names(), ", ") + ".",
	Hidden: true,
	Args:   cobra.ArbitraryArgs,
	// Config and flag problems are logged by the hook instead of failing it.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
	RunE:               runHook,
}

// runHook never fails. The host agent's session must not be disrupted, so
// problems go to the hook log.
func runHook(c *cobra.Command, args []string) error {
	log, f, err := logging.OpenFile(hookLogPath(), slog.LevelInfo)
	if err != nil {
		log = logging.NewDiscard()
	} else {
		defer f.Close()
	}
	if len(args) == 0 {
		log.Error("missing hook name", "available", hook.Names())
		return nil
	}
	log = log.With("hook", args[0])
	if len(args) > 1 {
		log.Warn("ignoring extra arguments", "args", args[1:])
	}
	if configLoadErr != nil {
		log.Warn("using default settings", "error", configLoadErr)
	}

	env := &hook.Env{
		Stdin:  c.InOrStdin(),
		Stdout: c.OutOrStdout(),
		Logger: log,
		Binary: binaryPath(),
		Update: &update.Checker{
			URL:     settings.UpdateURL,
			Current: cmd.Version,
			Logger:  log,
		},
		Start: startInstall,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("hook panicked", "panic", r)
		}
	}()
	if err := hook.Run(commandContext(c), args[0], env); err != nil {
		log.Error("hook finished with error", "error", err)
	}
	return nil
}
