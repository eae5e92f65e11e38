package config

import (
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidAgent indicates an unrecognized agent name.
	ErrInvalidAgent = errors.New("invalid agent")

	// ErrInvalidURL indicates a URL setting that is not http(s).
	ErrInvalidURL = errors.New("invalid URL")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if !paths.ValidAgent(cfg.Agent) {
		errs = append(errs, &FieldError{Field: "agent", Value: cfg.Agent, Err: ErrInvalidAgent})
	}

	for field, value := range map[string]string{"registry_url": cfg.RegistryURL, "update_url": cfg.UpdateURL} {
		if !urlutil.ValidHTTP(value) {
			errs = append(errs, &FieldError{Field: field, Value: value, Err: ErrInvalidURL})
		}
	}

	return errs
}

// FieldError reports an invalid setting.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
