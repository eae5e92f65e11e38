// Package loader runs the ordered pipeline of installation units.
//
// A Loader owns one surface of an installation (profile copies, skills,
// hooks, the instructions file, ...). Install runs loaders in registration
// order and stops at the first failure; Uninstall runs them in reverse and
// keeps going, so one broken surface never strands the others.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/logging"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/internal/profile"
)

// Sentinel errors for registry operations.
var (
	ErrDuplicateLoader   = errors.New("loader already registered")
	ErrInvalidLoaderName = errors.New("invalid loader name")
)

var loaderNameRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Loader is one installable unit.
//
// Run and Uninstall must be idempotent. Uninstall removes only what the
// loader itself wrote and treats missing artifacts as already removed.
type Loader interface {
	Name() string
	Description() string
	Run(lc *Context) error
	Uninstall(lc *Context) error
}

// Validator is implemented by loaders that can check their installed state.
type Validator interface {
	Validate(lc *Context) *Validation
}

// Validation is the read-only health report of one loader.
type Validation struct {
	Valid   bool     `json:"valid"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// Addf records a problem and its remediation.
func (v *Validation) Addf(format string, args ...any) {
	v.Valid = false
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// NewValidation returns a passing validation with message.
func NewValidation(message string) *Validation {
	return &Validation{Valid: true, Message: message}
}

// Context is the state shared by every loader during one pipeline run.
type Context struct {
	Paths    *paths.AgentPaths
	Config   *diskconfig.Config
	Composer *profile.Composer

	// Profile is the profile being installed.
	Profile string

	// Binary is the command written into hooks and the status line.
	Binary string

	Logger *slog.Logger

	mu       sync.Mutex
	composed string
}

// DefaultBinary is used when Context.Binary is empty.
const DefaultBinary = "nori"

// Log returns the logger, never nil.
func (lc *Context) Log() *slog.Logger {
	if lc.Logger == nil {
		return logging.NewDiscard()
	}
	return lc.Logger
}

// Command returns the binary followed by args, space separated. A binary
// path that the shell would split or expand is double-quoted.
func (lc *Context) Command(args ...string) string {
	bin := lc.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	return strings.Join(append([]string{quoteBinary(bin)}, args...), " ")
}

// IsCommand reports whether command runs this context's binary, or any binary
// named nori, with sub as its first argument.
func (lc *Context) IsCommand(command, sub string) bool {
	bin, args := ParseCommand(command)
	if len(args) == 0 || args[0] != sub {
		return false
	}
	return bin == lc.Binary || IsNoriBinary(bin)
}

// IsNoriBinary reports whether the base name of bin is nori, ignoring a
// Windows ".exe" suffix. Both slash styles separate directories.
func IsNoriBinary(bin string) bool {
	bin = strings.ReplaceAll(bin, `\`, "/")
	if i := strings.LastIndexByte(bin, '/'); i >= 0 {
		bin = bin[i+1:]
	}
	return strings.TrimSuffix(strings.ToLower(bin), ".exe") == DefaultBinary
}

// ParseCommand splits a command written by Command into its binary and
// arguments. An unterminated quote yields an empty binary.
func ParseCommand(command string) (string, []string) {
	s := strings.TrimLeft(command, " \t")
	if !strings.HasPrefix(s, `"`) {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return "", nil
		}
		return fields[0], fields[1:]
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && strings.IndexByte(shellEscaped, s[i+1]) >= 0:
			i++
			b.WriteByte(s[i])
		case c == '"':
			return b.String(), strings.Fields(s[i+1:])
		default:
			b.WriteByte(c)
		}
	}
	return "", nil
}

// Characters escaped with a backslash inside double quotes.
const shellEscaped = "\"\\$`"

func quoteBinary(bin string) string {
	if !strings.ContainsAny(bin, " \t\"'$`&;|<>()*?!#~\\") {
		return bin
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(bin); i++ {
		c := bin[i]
		switch {
		case c == '\\' && i+1 < len(bin) && strings.IndexByte(shellEscaped, bin[i+1]) < 0:
			b.WriteByte(c)
		case strings.IndexByte(shellEscaped, c) >= 0:
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Paid reports whether the installation has full credentials.
func (lc *Context) Paid() bool {
	return lc.Config != nil && lc.Config.IsPaid()
}

// ComposedDir returns the composed tree of the profile being installed,
// composing it into a temporary directory on first use.
func (lc *Context) ComposedDir() (string, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.composed != "" {
		return lc.composed, nil
	}
	if lc.Profile == "" {
		return "", errors.New("no profile selected")
	}
	if lc.Composer == nil {
		return "", errors.New("loader context has no composer")
	}

	tmp, err := os.MkdirTemp("", "nori-profile-*")
	if err != nil {
		return "", errors.Wrap(err, "creating composition directory")
	}
	res, err := lc.Composer.Compose(lc.Profile, profile.Options{Paid: lc.Paid()}, tmp)
	if err != nil {
		os.RemoveAll(tmp)
		return "", errors.Wrapf(err, "composing profile %s", lc.Profile)
	}
	lc.Log().Debug("composed profile", "profile", lc.Profile, "layers", res.LayerNames(), "dir", tmp)
	lc.composed = tmp
	return tmp, nil
}

// Close removes the composed tree.
func (lc *Context) Close() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.composed == "" {
		return nil
	}
	err := os.RemoveAll(lc.composed)
	lc.composed = ""
	return errors.Wrap(err, "removing composition directory")
}
