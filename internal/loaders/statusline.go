package loaders

import (
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/settings"
)

// StatusLine points the Claude Code status line at nori.
type StatusLine struct{}

// NewStatusLine returns the statusline loader.
func NewStatusLine() *StatusLine { return &StatusLine{} }

func (*StatusLine) Name() string        { return "statusline" }
func (*StatusLine) Description() string { return "status line" }

func (*StatusLine) Run(lc *loader.Context) error {
	return settings.Update(lc.Paths.SettingsFile(), func(st *settings.Settings) error {
		return st.SetStatusLine(lc.Command("statusline"))
	})
}

func (*StatusLine) Uninstall(lc *loader.Context) error {
	return settings.Update(lc.Paths.SettingsFile(), func(st *settings.Settings) error {
		return st.ClearStatusLine(noriCommand(lc, "statusline"))
	})
}

func (*StatusLine) Validate(lc *loader.Context) *loader.Validation {
	v := loader.NewValidation("status line")
	st, err := settings.Load(lc.Paths.SettingsFile())
	if err != nil {
		v.Addf("%v", err)
		return v
	}
	sl, err := st.StatusLine()
	switch {
	case err != nil:
		v.Addf("%v", err)
	case sl == nil:
		v.Addf("statusLine is not configured in %s; run nori install", st.Path())
	case !lc.IsCommand(sl.Command, "statusline"):
		v.Message = "status line is configured by another tool: " + sl.Command
	}
	return v
}
