package registry

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/pkg/urlutil"
)

const publicURL = "https://registry.tilework.tech"

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Search(_ context.Context, registryURL, query, token string) ([]ProfileSummary, error) {
	args := m.Called(registryURL, query, token)
	hits, _ := args.Get(0).([]ProfileSummary)
	return hits, args.Error(1)
}

func (m *mockAPI) Packument(_ context.Context, registryURL, name, token string) (*Packument, error) {
	args := m.Called(registryURL, name, token)
	p, _ := args.Get(0).(*Packument)
	return p, args.Error(1)
}

func (m *mockAPI) Tarball(_ context.Context, registryURL, name, version, token string) ([]byte, error) {
	args := m.Called(registryURL, name, version, token)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockAPI) Upload(_ context.Context, registryURL, name string, up UploadRequest, token string) (*UploadResult, error) {
	args := m.Called(registryURL, name, up, token)
	res, _ := args.Get(0).(*UploadResult)
	return res, args.Error(1)
}

// staticTokens issues "tok:<normalized url>" and fails for urls in fail.
type staticTokens struct {
	fail map[string]bool
}

func (s staticTokens) Token(_ context.Context, auth diskconfig.RegistryAuth) (string, error) {
	norm, err := urlutil.Normalize(auth.RegistryURL)
	if err != nil {
		return "", err
	}
	if s.fail[norm] {
		return "", errors.Wrap(ErrUnauthorized, norm)
	}
	return "tok:" + norm, nil
}

var notFound = &StatusError{Method: "GET", Code: 404}

func newResolver(api API) *Resolver {
	return &Resolver{API: api, Tokens: staticTokens{}, PublicURL: publicURL}
}

func configWith(urls ...string) *diskconfig.Config {
	cfg := &diskconfig.Config{}
	for _, u := range urls {
		cfg.RegistryAuths = append(cfg.RegistryAuths, diskconfig.RegistryAuth{
			Username: "u", Password: "p", RegistryURL: u,
		})
	}
	return cfg
}

func packument(name, latest string) *Packument {
	return &Packument{
		Name:        name,
		Description: name + " profile",
		DistTags:    map[string]string{"latest": latest},
		Versions:    map[string]VersionInfo{latest: {}},
	}
}
