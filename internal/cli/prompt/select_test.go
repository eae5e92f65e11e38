package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/tilework-tech/nori-profiles/internal/profile"
)

var profiles = []profile.Info{
	{Name: "amol", Description: "Opinionated workflow", Builtin: true},
	{Name: "senior-swe", Description: "Senior engineer", Builtin: true},
	{Name: "mine"},
}

func TestSelectProfile_EmptyList(t *testing.T) {
	t.Parallel()

	s := NewSelectorWithIO(strings.NewReader(""), &bytes.Buffer{})
	if _, err := s.SelectProfile(nil, ""); err == nil || !strings.Contains(err.Error(), "no profiles") {
		t.Fatalf("expected ErrNoProfiles, got %v", err)
	}
}

func TestSelectProfile_SingleItem(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	got, err := s.SelectProfile(profiles[:1], "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "amol" {
		t.Errorf("expected amol, got %q", got.Name)
	}
	if buf.Len() > 0 {
		t.Errorf("expected no output for single item, got: %s", buf.String())
	}
}

func TestSelectProfile_ValidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		current string
		want    string
	}{
		{name: "explicit first", input: "1\n", want: "amol"},
		{name: "explicit third", input: "3\n", want: "mine"},
		{name: "default is first", input: "\n", want: "amol"},
		{name: "default is current", input: "\n", current: "senior-swe", want: "senior-swe"},
		{name: "by name", input: "mine\n", want: "mine"},
		{name: "whitespace trimmed", input: "  2  \n", want: "senior-swe"},
		{name: "no trailing newline", input: "3", want: "mine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSelectorWithIO(strings.NewReader(tt.input), &bytes.Buffer{})
			got, err := s.SelectProfile(profiles, tt.current)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.Name)
			}
		})
	}
}

func TestSelectProfile_InvalidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "too low", input: "0\n", wantErr: "out of range"},
		{name: "too high", input: "4\n", wantErr: "out of range"},
		{name: "unknown name", input: "staff\n", wantErr: "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSelectorWithIO(strings.NewReader(tt.input), &bytes.Buffer{})
			_, err := s.SelectProfile(profiles, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestSelectProfile_Cancelled(t *testing.T) {
	t.Parallel()

	s := NewSelectorWithIO(&eofReader{}, &bytes.Buffer{})
	_, err := s.SelectProfile(profiles, "")
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("expected ErrSelectionCancelled, got: %v", err)
	}
}

func TestSelectProfile_OutputFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader("1\n"), &buf)
	if _, err := s.SelectProfile(profiles, "senior-swe"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Available profiles:",
		"[1] amol - Opinionated workflow",
		"[2] senior-swe - Senior engineer (current)",
		"[3] mine",
		"Select [2]:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in output: %s", want, output)
		}
	}
}

// eofReader simulates immediate EOF (like Ctrl+D).
type eofReader struct{}

func (r *eofReader) Read(_ []byte) (int, error) {
	return 0, io.EOF
}
