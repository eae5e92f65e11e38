// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/logging"
	"github.com/tilework-tech/nori-profiles/internal/profile"
)

// Sentinel errors for profile selection.
var (
	ErrNoProfiles         = errors.New("no profiles to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector handles interactive profile selection prompts.
type Selector struct {
	reader io.Reader
	writer io.Writer
	fuzzy  bool
}

// NewSelector creates a Selector on stdin and stdout. The fuzzy finder is
// used when both are terminals.
func NewSelector() *Selector {
	return &Selector{
		reader: os.Stdin,
		writer: os.Stdout,
		fuzzy:  logging.IsTTY(os.Stdin) && logging.IsTTY(os.Stdout),
	}
}

// NewSelectorWithIO creates a numbered-list Selector with custom reader and
// writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{reader: r, writer: w}
}

// Interactive reports whether the selector can prompt a person.
func (s *Selector) Interactive() bool {
	return s.fuzzy
}

// SelectProfile asks the user to choose one of profiles. current, when
// present in the list, is the default.
//
// Returns:
//   - ErrNoProfiles if the list is empty
//   - The profile if only one exists (auto-selects without prompting)
//   - ErrInvalidSelection if the input is out of range
//   - ErrSelectionCancelled on EOF or when the finder is aborted
func (s *Selector) SelectProfile(profiles []profile.Info, current string) (*profile.Info, error) {
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if len(profiles) == 1 {
		return &profiles[0], nil
	}
	if s.fuzzy {
		return s.find(profiles)
	}
	return s.numbered(profiles, current)
}

func (s *Selector) find(profiles []profile.Info) (*profile.Info, error) {
	idx, err := fuzzyfinder.Find(
		profiles,
		func(i int) string {
			return profiles[i].Name
		},
		fuzzyfinder.WithPromptString("profile> "),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			p := profiles[i]
			source := "installed"
			if p.Builtin {
				source = "built-in"
			}
			return fmt.Sprintf("Name: %s\nSource: %s\n\n%s", p.Name, source, p.Description)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "profile selection failed")
	}
	return &profiles[idx], nil
}

func (s *Selector) numbered(profiles []profile.Info, current string) (*profile.Info, error) {
	def := 0
	for i, p := range profiles {
		if p.Name == current {
			def = i
		}
	}

	fmt.Fprintln(s.writer, "Available profiles:")
	for i, p := range profiles {
		line := fmt.Sprintf("  [%d] %s", i+1, p.Name)
		if p.Description != "" {
			line += " - " + p.Description
		}
		if p.Name == current {
			line += " (current)"
		}
		fmt.Fprintln(s.writer, line)
	}
	fmt.Fprintf(s.writer, "Select [%d]: ", def+1)

	input, err := bufio.NewReader(s.reader).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(input) == "" {
			return nil, ErrSelectionCancelled
		}
		if !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "reading selection")
		}
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return &profiles[def], nil
	}

	// Accept a name as well as a number.
	for i := range profiles {
		if profiles[i].Name == input {
			return &profiles[i], nil
		}
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number or profile name", input)
	}
	if selection < 1 || selection > len(profiles) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(profiles))
	}
	return &profiles[selection-1], nil
}
