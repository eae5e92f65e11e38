package diskconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

// ValidationError lists every problem found in a config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, errors.ErrInvalidConfig) hold.
func (e *ValidationError) Is(target error) bool {
	return target == errors.ErrInvalidConfig
}

// Validate checks the auth triple, URLs, toggles and registry auths.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	present := map[string]string{
		"username":        c.Username,
		"password":        c.Password,
		"organizationUrl": c.OrganizationURL,
	}
	var have, missing []string
	for _, key := range []string{"username", "password", "organizationUrl"} {
		if present[key] != "" {
			have = append(have, key)
		} else {
			if c.HasKey(key) {
				add("%s must be a non-empty string", key)
			}
			missing = append(missing, key)
		}
	}
	if len(have) > 0 && len(missing) > 0 {
		add("auth requires username, password and organizationUrl together; missing %s", strings.Join(missing, ", "))
	}
	if c.OrganizationURL != "" && !urlutil.ValidHTTP(c.OrganizationURL) {
		add("organizationUrl %q is not a valid URL", c.OrganizationURL)
	}

	for key, v := range map[string]Toggle{"sendSessionTranscript": c.SendSessionTranscript, "autoupdate": c.Autoupdate} {
		if v != "" && v != Enabled && v != Disabled {
			add("%s must be %q or %q, got %q", key, Enabled, Disabled, v)
		}
	}

	for sel, name := range map[string]*ProfileSelection{"profile": c.Profile, "cursorProfile": c.CursorProfile} {
		if name != nil && name.BaseProfile == "" {
			add("%s.baseProfile must not be empty", sel)
		}
	}

	seen := make(map[string]RegistryAuth)
	for i, ra := range c.RegistryAuths {
		if ra.Username == "" || ra.Password == "" || ra.RegistryURL == "" {
			add("registryAuths[%d] requires username, password and registryUrl", i)
			continue
		}
		norm, err := urlutil.Normalize(ra.RegistryURL)
		if err != nil || !urlutil.ValidHTTP(norm) {
			add("registryAuths[%d].registryUrl %q is not a valid URL", i, ra.RegistryURL)
			continue
		}
		if prev, ok := seen[norm]; ok && (prev.Username != ra.Username || prev.Password != ra.Password) {
			add("registryAuths has conflicting credentials for %s", norm)
			continue
		}
		seen[norm] = ra
	}

	if len(problems) == 0 {
		return nil
	}
	// Map iteration above is unordered.
	slices.Sort(problems)
	return &ValidationError{Problems: problems}
}
