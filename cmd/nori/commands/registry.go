package commands

import (
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/profile"
	"github.com/tilework-tech/nori-profiles/internal/registry"
)

// registryError assigns an exit code to a registry failure. Lookups that
// miss, credentials that are refused, and ambiguous names are the user's to
// fix; anything else is a network or server failure.
func registryError(err error, command string) error {
	var exit *errors.ExitError
	if errors.As(err, &exit) {
		return err
	}
	var amb *registry.AmbiguousError
	if errors.As(err, &amb) {
		return errors.NewUserError(err, amb.Suggestion(command))
	}
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return errors.NewUserError(err, "Check the name with: nori registry-search <query>")
	case errors.Is(err, registry.ErrUnauthorized):
		return errors.NewUserError(err, "Check the registryAuths credentials in the nori config")
	case errors.Is(err, profile.ErrInvalidName), errors.Is(err, registry.ErrNoVersion):
		return errors.NewUserError(err, "")
	case errors.Is(err, registry.ErrChecksum), errors.Is(err, registry.ErrInvalidArchive):
		return errors.NewSystemError(err, "The registry served a damaged archive; try again later")
	}
	return errors.NewSystemError(err, "Check your network connection and try again")
}
