package profile

import (
	"embed"
	"io/fs"
	"path"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

//go:embed all:templates
var templatesFS embed.FS

// Templates returns the embedded profiles tree for agent. Entries at its root
// are profile and mixin directories.
func Templates(agent string) (fs.FS, error) {
	if !paths.ValidAgent(agent) {
		return nil, errors.Newf("no templates for agent %q", agent)
	}
	sub, err := fs.Sub(templatesFS, path.Join("templates", agent, "profiles"))
	if err != nil {
		return nil, errors.Wrapf(err, "opening templates for %s", agent)
	}
	return sub, nil
}
