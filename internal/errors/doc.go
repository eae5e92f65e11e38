// Package errors provides error handling conventions for the nori CLI.
//
// It re-exports the wrapping helpers from github.com/cockroachdb/errors so
// callers need a single import, defines sentinel errors for the failure
// classes the CLI distinguishes (configuration, ambiguity, not-found), and
// the [ExitError] type that carries an exit code and a remediation
// suggestion up to main.
//
// # Sentinel Errors
//
//	if errors.Is(err, errors.ErrAmbiguous) {
//	    // ask the user to disambiguate
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, ambiguity)
//   - ExitSystem (2): System-related error (I/O, network, permissions)
//
// # ExitError
//
//	err := errors.NewUserError(errors.ErrInvalidConfig, "Run: nori check")
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//	    fmt.Fprintln(os.Stderr, exitErr.Suggestion)
//	    os.Exit(exitErr.Code)
//	}
package errors
