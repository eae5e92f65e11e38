package errors

import (
	"fmt"
	"testing"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrNotFound, ExitUser),
			want: "resource not found",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(Wrap(ErrInvalidConfig, "loading config"), ExitUser),
			want: "loading config: invalid configuration",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitSystem),
			want: "exit code 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ExitError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	err := NewUserError(Wrapf(ErrAmbiguous, "profile %q", "senior-swe"), "pass --registry")
	if !Is(err, ErrAmbiguous) {
		t.Error("Is() should find ErrAmbiguous through ExitError")
	}
	if Is(err, ErrNotFound) {
		t.Error("Is() should not match ErrNotFound")
	}

	var exitErr *ExitError
	wrapped := fmt.Errorf("command failed: %w", err)
	if !As(wrapped, &exitErr) {
		t.Fatal("As() should find ExitError through fmt wrapping")
	}
	if exitErr.Suggestion != "pass --registry" {
		t.Errorf("Suggestion = %q, want %q", exitErr.Suggestion, "pass --registry")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", New("boom"), ExitUser},
		{"system error", NewSystemError(New("network down"), ""), ExitSystem},
		{"wrapped config error", Wrap(NewConfigError(ErrInvalidConfig), "install"), ExitUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewConfigError(t *testing.T) {
	e := NewConfigError(New("config error"))
	if e.Code != ExitUser {
		t.Errorf("Code = %d, want %d", e.Code, ExitUser)
	}
	if e.Suggestion != "Run: nori check" {
		t.Errorf("Suggestion = %q, want 'Run: nori check'", e.Suggestion)
	}
}
