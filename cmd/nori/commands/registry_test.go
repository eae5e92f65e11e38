package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/registry"
)

// fakeRegistry serves one profile, "reviewer", at version 1.0.0.
func fakeRegistry(t *testing.T) *httptest.Server {
	t.Helper()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "CLAUDE.md"), []byte("# Reviewer\n"), 0o644))
	archive, err := registry.Pack(src)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /profiles/search", func(w http.ResponseWriter, r *http.Request) {
		var hits []registry.ProfileSummary
		if strings.Contains("reviewer", r.URL.Query().Get("q")) {
			hits = append(hits, registry.ProfileSummary{Name: "reviewer", Description: "Reviews code"})
		}
		_ = json.NewEncoder(w).Encode(hits)
	})
	mux.HandleFunc("GET /profiles/reviewer", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(registry.Packument{
			Name:     "reviewer",
			DistTags: map[string]string{"latest": "1.0.0"},
			Versions: map[string]registry.VersionInfo{"1.0.0": {}},
		})
	})
	mux.HandleFunc("GET /profiles/reviewer/tarball/reviewer-1.0.0.tgz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("NORI_REGISTRY_URL", srv.URL)
	return srv
}

func TestRegistrySearch(t *testing.T) {
	srv := fakeRegistry(t)
	dir := installed(t, "senior-swe")

	out, _, err := execute(t, "", "registry-search", "review", "--install-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, srv.URL)
	assert.Contains(t, out, "reviewer")

	out, _, err = execute(t, "", "registry-search", "zzz", "--install-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No profiles match")
}

func TestRegistryDownload(t *testing.T) {
	fakeRegistry(t)
	dir := installed(t, "senior-swe")

	out, _, err := execute(t, "", "registry-download", "reviewer", "--install-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Downloaded reviewer@1.0.0")
	assert.FileExists(t, filepath.Join(dir, ".claude", "profiles", "reviewer", "CLAUDE.md"))

	_, _, err = execute(t, "", "switch-profile", "reviewer", "--install-dir", dir)
	require.NoError(t, err)

	_, _, err = execute(t, "", "registry-download", "reviewer", "--install-dir", dir)
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
}

func TestRegistryDownload_Errors(t *testing.T) {
	fakeRegistry(t)

	tests := []struct {
		name string
		spec string
		want int
	}{
		{"unknown profile", "missing", errors.ExitUser},
		{"bad spec", "reviewer@latest", errors.ExitUser},
		{"unknown version", "reviewer@9.9.9", errors.ExitUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, _, err := execute(t, "", "registry-download", tt.spec, "--install-dir", dir)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.ExitCode(err))
			assert.NoDirExists(t, filepath.Join(dir, ".claude", "profiles", "reviewer"))
		})
	}
}

func TestRegistryUpload_NoPrivateRegistry(t *testing.T) {
	fakeRegistry(t)
	dir := installed(t, "senior-swe")

	_, _, err := execute(t, "", "registry-upload", "senior-swe", "--install-dir", dir)
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.ExitCode(err))
}
