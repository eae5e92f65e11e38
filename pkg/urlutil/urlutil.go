// Package urlutil normalizes registry URLs so that equivalent spellings
// compare equal.
package urlutil

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// Normalize lowercases the scheme and host, strips trailing slashes, and
// defaults the scheme to https.
//
//	Normalize("Registry.Example.com/") == "https://registry.example.com"
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(err, "parsing URL %q", raw)
	}
	if u.Host == "" {
		return "", errors.Newf("URL %q has no host", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.Fragment = ""
	return u.String(), nil
}

// Equal reports whether a and b normalize to the same URL. URLs that fail to
// normalize are compared verbatim.
func Equal(a, b string) bool {
	na, errA := Normalize(a)
	nb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return na == nb
}

// ValidHTTP reports whether raw is an absolute http or https URL with a host.
func ValidHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
