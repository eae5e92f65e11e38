// Package hook implements the commands the agent runs on session events.
//
// A hook reads the agent's JSON payload from stdin and may print a JSON
// object for the agent on stdout. Hooks never fail the session: every error
// is logged and swallowed.
package hook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/logging"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

// LogFile is the hook log under the state directory.
const LogFile = "hooks.log"

// ErrUnknownHook is returned for names with no registered hook.
var ErrUnknownHook = errors.New("unknown hook")

// Payload is the subset of the agent's hook input nori reads.
type Payload struct {
	SessionID string `json:"session_id,omitempty"`
	Event     string `json:"hook_event_name,omitempty"`
	Cwd       string `json:"cwd"`
}

// Output is written to stdout when a hook has something to say.
type Output struct {
	SystemMessage string `json:"systemMessage,omitempty"`
}

// Env is what a hook may touch.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Logger *slog.Logger

	// Binary is the nori executable used for background work.
	Binary string

	// Update is used by the autoupdate hook.
	Update UpdateChecker
	// Start launches a detached install; tests replace it.
	Start func(binary, installDir, logFile string) (int, error)
}

func (e *Env) log() *slog.Logger {
	if e.Logger == nil {
		return logging.NewDiscard()
	}
	return e.Logger
}

// Func is one hook implementation. A nil Output prints nothing.
type Func func(ctx context.Context, env *Env, p Payload) (*Output, error)

var hooks = map[string]Func{
	"autoupdate":             Autoupdate,
	"nested-install-warning": NestedInstallWarning,
}

// Names returns the registered hook names, sorted.
func Names() []string {
	names := make([]string, 0, len(hooks))
	for n := range hooks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes the named hook. The returned error is for logging only;
// callers exit 0 regardless.
func Run(ctx context.Context, name string, env *Env) error {
	fn, ok := hooks[name]
	if !ok {
		return errors.Wrapf(ErrUnknownHook, "%q", name)
	}

	p, err := readPayload(env.Stdin)
	if err != nil {
		env.log().Warn("ignoring unreadable hook payload", "hook", name, "error", err)
	}
	if p.Cwd == "" {
		p.Cwd, _ = os.Getwd()
	}

	out, err := fn(ctx, env, p)
	if err != nil {
		env.log().Error("hook failed", "hook", name, "cwd", p.Cwd, "error", err)
		return err
	}
	if out == nil || out.SystemMessage == "" {
		return nil
	}
	return errors.Wrap(json.NewEncoder(env.Stdout).Encode(out), "writing hook output")
}

func readPayload(r io.Reader) (Payload, error) {
	var p Payload
	if r == nil {
		return p, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return p, errors.Wrap(err, "reading stdin")
	}
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, errors.Wrap(err, "decoding payload")
	}
	return p, nil
}

// LogPath returns the hook log file location.
func LogPath() string {
	return filepath.Join(paths.StateHome(), LogFile)
}
