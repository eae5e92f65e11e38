package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/logging"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

// SearchResult is one registry where a profile was found.
type SearchResult struct {
	RegistryURL string
	Packument   *Packument
	Token       string
}

// AmbiguousError lists every registry that holds a profile.
type AmbiguousError struct {
	Name    string
	Matches []SearchResult
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "profile %q was found in %d registries:", e.Name, len(e.Matches))
	for _, m := range e.Matches {
		fmt.Fprintf(&b, "\n  %s", m.RegistryURL)
		if v := m.Packument.Latest(); v != "" {
			fmt.Fprintf(&b, " (%s)", v)
		}
		if d := m.Packument.Description; d != "" {
			fmt.Fprintf(&b, ": %s", d)
		}
	}
	return b.String()
}

// Is makes errors.Is(err, errors.ErrAmbiguous) hold.
func (e *AmbiguousError) Is(target error) bool { return target == errors.ErrAmbiguous }

// Suggestion returns the commands that disambiguate, one per registry.
func (e *AmbiguousError) Suggestion(command string) string {
	var b strings.Builder
	b.WriteString("Re-run with an explicit registry:")
	for _, m := range e.Matches {
		fmt.Fprintf(&b, "\n  nori %s %s --registry=%s", command, e.Name, m.RegistryURL)
	}
	return b.String()
}

// Resolver searches the public registry and the configured private ones.
type Resolver struct {
	API       API
	Tokens    TokenSource
	PublicURL string
	Logger    *slog.Logger
}

func (r *Resolver) log() *slog.Logger {
	if r.Logger == nil {
		return logging.NewDiscard()
	}
	return r.Logger
}

// target is one registry to query.
type target struct {
	url  string
	auth *diskconfig.RegistryAuth
}

// targets returns the public registry followed by every private registry
// not already listed, compared by normalized URL.
func (r *Resolver) targets(cfg *diskconfig.Config) []target {
	var out []target
	seen := make(map[string]bool)

	if public, err := urlutil.Normalize(r.PublicURL); err == nil {
		out = append(out, target{url: public})
		seen[public] = true
	}
	if cfg == nil {
		return out
	}
	for i := range cfg.RegistryAuths {
		ra := &cfg.RegistryAuths[i]
		norm, err := urlutil.Normalize(ra.RegistryURL)
		if err != nil {
			r.log().Warn("skipping registry with invalid URL", "registry", ra.RegistryURL, "error", err)
			continue
		}
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, target{url: norm, auth: ra})
	}
	return out
}

func (r *Resolver) token(ctx context.Context, t target) (string, error) {
	if t.auth == nil || r.Tokens == nil {
		return "", nil
	}
	return r.Tokens.Token(ctx, *t.auth)
}

// lookup fetches name from one registry. A 404 is (nil, nil).
func (r *Resolver) lookup(ctx context.Context, name string, t target) (*SearchResult, error) {
	tok, err := r.token(ctx, t)
	if err != nil {
		return nil, errors.Wrapf(err, "authenticating to %s", t.url)
	}
	p, err := r.API.Packument(ctx, t.url, name, tok)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &SearchResult{RegistryURL: t.url, Packument: p, Token: tok}, nil
}

// SearchAll looks name up in every registry, one at a time. Failing
// registries are logged and contribute nothing.
func (r *Resolver) SearchAll(ctx context.Context, name string, cfg *diskconfig.Config) []SearchResult {
	var results []SearchResult
	for _, t := range r.targets(cfg) {
		res, err := r.lookup(ctx, name, t)
		if err != nil {
			r.log().Debug("registry lookup failed", "registry", t.url, "profile", name, "error", err)
			continue
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results
}

// SearchSpecific looks name up in registryURL only, using configured
// credentials for it when present. Not found is (nil, nil).
func (r *Resolver) SearchSpecific(ctx context.Context, name, registryURL string, cfg *diskconfig.Config) (*SearchResult, error) {
	norm, err := urlutil.Normalize(registryURL)
	if err != nil {
		return nil, errors.NewUserError(err, "Pass a registry URL such as https://registry.example.com")
	}
	t := target{url: norm}
	if cfg != nil {
		t.auth = cfg.RegistryAuthFor(norm)
	}
	return r.lookup(ctx, name, t)
}

// Resolve applies the tie-break policy: no match is not found, one match
// proceeds, several matches are ambiguous. An explicit registryURL limits
// the lookup to that registry.
func (r *Resolver) Resolve(ctx context.Context, name, registryURL string, cfg *diskconfig.Config) (*SearchResult, error) {
	if registryURL != "" {
		res, err := r.SearchSpecific(ctx, name, registryURL, cfg)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, errors.Wrapf(errors.ErrNotFound, "profile %q in %s", name, registryURL)
		}
		return res, nil
	}

	matches := r.SearchAll(ctx, name, cfg)
	switch len(matches) {
	case 0:
		return nil, errors.Wrapf(errors.ErrNotFound, "profile %q in any registry", name)
	case 1:
		return &matches[0], nil
	default:
		return nil, &AmbiguousError{Name: name, Matches: matches}
	}
}

// RegistryHits groups search results by registry.
type RegistryHits struct {
	RegistryURL string
	Profiles    []ProfileSummary
}

// Search runs query against every registry. Registries that fail or return
// nothing are omitted.
func (r *Resolver) Search(ctx context.Context, query string, cfg *diskconfig.Config) []RegistryHits {
	var out []RegistryHits
	for _, t := range r.targets(cfg) {
		tok, err := r.token(ctx, t)
		if err != nil {
			r.log().Debug("registry authentication failed", "registry", t.url, "error", err)
			continue
		}
		hits, err := r.API.Search(ctx, t.url, query, tok)
		if err != nil {
			r.log().Debug("registry search failed", "registry", t.url, "error", err)
			continue
		}
		if len(hits) > 0 {
			out = append(out, RegistryHits{RegistryURL: t.url, Profiles: hits})
		}
	}
	return out
}

// privateTargets returns every configured registry with credentials, in
// config order, deduplicated by normalized URL.
func privateTargets(cfg *diskconfig.Config) []target {
	if cfg == nil {
		return nil
	}
	var out []target
	seen := make(map[string]bool)
	for i := range cfg.RegistryAuths {
		ra := &cfg.RegistryAuths[i]
		norm, err := urlutil.Normalize(ra.RegistryURL)
		if err != nil || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, target{url: norm, auth: ra})
	}
	return out
}
