package update

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registry(t *testing.T, body string, code int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/nori-ai"
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		newer   bool
	}{
		{name: "older", current: "1.2.3", latest: "1.3.0", newer: true},
		{name: "same", current: "1.3.0", latest: "1.3.0"},
		{name: "ahead", current: "2.0.0", latest: "1.3.0"},
		{name: "v prefix", current: "v1.2.3", latest: "1.2.4", newer: true},
		{name: "dev build", current: "dev", latest: "1.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Checker{
				URL:     registry(t, `{"dist-tags":{"latest":"`+tt.latest+`"}}`, http.StatusOK),
				Current: tt.current,
			}
			st, err := c.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.newer, st.Newer)
			assert.Equal(t, tt.latest, st.Latest)
		})
	}
}

func TestChecker_Errors(t *testing.T) {
	for name, srv := range map[string]struct {
		body string
		code int
	}{
		"server error": {`oops`, http.StatusInternalServerError},
		"no latest":    {`{"dist-tags":{}}`, http.StatusOK},
		"bad version":  {`{"dist-tags":{"latest":"soon"}}`, http.StatusOK},
		"bad json":     {`{`, http.StatusOK},
	} {
		t.Run(name, func(t *testing.T) {
			c := &Checker{URL: registry(t, srv.body, srv.code), Current: "1.0.0"}
			_, err := c.Check(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestStartInstall_DoesNotWait(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script := filepath.Join(dir, "fake-nori")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > "+marker+"\n"), 0o755))

	pid, err := StartInstall(script, dir, filepath.Join(dir, "install.log"))
	require.NoError(t, err)
	assert.Positive(t, pid)

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && len(data) > 0
	}, 5*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Contains(t, string(data), "install --non-interactive --install-dir="+dir)
}
