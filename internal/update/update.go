// Package update checks the npm registry for a newer nori release and starts
// a background reinstall when one is available.
package update

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/logging"
)

// packument is the subset of an npm packument the check reads.
type packument struct {
	DistTags map[string]string `json:"dist-tags"`
}

// Checker compares the running version with the registry's latest.
type Checker struct {
	// URL is the packument endpoint, e.g. https://registry.npmjs.org/nori-ai.
	URL     string
	Current string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// Status is the outcome of a check.
type Status struct {
	Current string
	Latest  string
	Newer   bool
}

func (c *Checker) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Checker) log() *slog.Logger {
	if c.Logger == nil {
		return logging.NewDiscard()
	}
	return c.Logger
}

// Latest returns the "latest" dist-tag of the package.
func (c *Checker) Latest(ctx context.Context) (*semver.Version, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating update request")
	}
	req.Header.Set("Accept", "application/vnd.npm.install-v1+json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching latest version")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("update check: %s returned %d", c.URL, resp.StatusCode)
	}

	var p packument
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decoding packument")
	}
	latest := p.DistTags["latest"]
	if latest == "" {
		return nil, errors.New("packument has no latest version")
	}
	v, err := semver.NewVersion(latest)
	if err != nil {
		return nil, errors.Wrapf(err, "latest version %q", latest)
	}
	return v, nil
}

// Check reports whether the registry has a version newer than Current.
// A Current that is not a semantic version (a dev build) is never outdated.
func (c *Checker) Check(ctx context.Context) (*Status, error) {
	latest, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{Current: c.Current, Latest: latest.String()}

	current, err := semver.NewVersion(c.Current)
	if err != nil {
		c.log().Debug("current version is not semver, skipping comparison", "version", c.Current)
		return st, nil
	}
	st.Newer = latest.GreaterThan(current)
	return st, nil
}

// StartInstall launches `binary install --non-interactive` for installDir
// in its own session and returns without waiting. Output goes to logFile
// when it can be opened.
func StartInstall(binary, installDir, logFile string) (int, error) {
	cmd := exec.Command(binary, "install", "--non-interactive", "--install-dir="+installDir)
	cmd.Dir = installDir
	cmd.Stdin = nil
	detach(cmd)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			cmd.Stdout = f
			cmd.Stderr = f
			defer f.Close()
		}
	}

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrapf(err, "starting %s install", binary)
	}
	pid := cmd.Process.Pid
	// The child outlives us; drop the handle without waiting.
	if err := cmd.Process.Release(); err != nil {
		return pid, errors.Wrap(err, "releasing background install")
	}
	return pid, nil
}
