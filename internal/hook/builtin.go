package hook

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/installdir"
	"github.com/tilework-tech/nori-profiles/internal/paths"
	"github.com/tilework-tech/nori-profiles/internal/update"
)

// UpdateChecker reports whether a newer release exists.
type UpdateChecker interface {
	Check(ctx context.Context) (*update.Status, error)
}

// NestedInstallWarning warns when more than one installation is reachable
// from the session directory.
func NestedInstallWarning(_ context.Context, _ *Env, p Payload) (*Output, error) {
	dirs, err := installdir.GetInstallDirs(p.Cwd)
	if err != nil {
		return nil, err
	}
	if len(dirs) < 2 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "nori: %d nested installations affect this directory; skills and instructions may conflict.\n", len(dirs))
	b.WriteString(installdir.Remediation(dirs))
	return &Output{SystemMessage: b.String()}, nil
}

// Autoupdate starts a background reinstall of the closest installation when
// a newer release is published and autoupdate is enabled.
func Autoupdate(ctx context.Context, env *Env, p Payload) (*Output, error) {
	dirs, err := installdir.GetInstallDirs(p.Cwd)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		env.log().Debug("no installation, skipping update check", "cwd", p.Cwd)
		return nil, nil
	}
	dir := dirs[0]

	cfg, err := diskconfig.Load(dir)
	if err != nil {
		return nil, err
	}
	if cfg.Autoupdate == diskconfig.Disabled {
		env.log().Debug("autoupdate disabled", "installDir", dir)
		return nil, nil
	}
	if env.Update == nil {
		return nil, nil
	}

	st, err := env.Update.Check(ctx)
	if err != nil {
		return nil, err
	}
	if !st.Newer {
		env.log().Debug("up to date", "version", st.Current)
		return nil, nil
	}

	start := env.Start
	if start == nil {
		start = update.StartInstall
	}
	binary := env.Binary
	if binary == "" {
		binary = "nori"
	}
	pid, err := start(binary, dir, filepath.Join(paths.StateHome(), "autoupdate.log"))
	if err != nil {
		return nil, err
	}
	env.log().Info("started background update", "from", st.Current, "to", st.Latest, "pid", pid, "installDir", dir)
	return &Output{
		SystemMessage: fmt.Sprintf("nori %s is available (running %s); updating in the background.", st.Latest, st.Current),
	}, nil
}
