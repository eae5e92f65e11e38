package loaders

import (
	"github.com/tilework-tech/nori-profiles/internal/loader"
	"github.com/tilework-tech/nori-profiles/internal/settings"
)

// Session-start hooks registered by nori.
var sessionHooks = []string{"autoupdate", "nested-install-warning"}

// Hooks registers the nori hook commands in settings.json.
type Hooks struct{}

// NewHooks returns the hooks loader.
func NewHooks() *Hooks { return &Hooks{} }

func (*Hooks) Name() string        { return "hooks" }
func (*Hooks) Description() string { return "session hooks" }

func (*Hooks) Run(lc *loader.Context) error {
	return settings.Update(lc.Paths.SettingsFile(), func(st *settings.Settings) error {
		if _, err := st.RemoveHooks(noriCommand(lc, "hook")); err != nil {
			return err
		}
		for _, name := range sessionHooks {
			if err := st.AddHook(settings.EventSessionStart, lc.Command("hook", name)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (*Hooks) Uninstall(lc *loader.Context) error {
	return settings.Update(lc.Paths.SettingsFile(), func(st *settings.Settings) error {
		_, err := st.RemoveHooks(noriCommand(lc, "hook"))
		return err
	})
}

func (*Hooks) Validate(lc *loader.Context) *loader.Validation {
	v := loader.NewValidation("session hooks")
	st, err := settings.Load(lc.Paths.SettingsFile())
	if err != nil {
		v.Addf("%v", err)
		return v
	}
	cmds, err := st.HookCommands(settings.EventSessionStart)
	if err != nil {
		v.Addf("%v", err)
		return v
	}

	match := noriCommand(lc, "hook")
	for _, name := range sessionHooks {
		found := false
		for _, c := range cmds {
			if _, args := loader.ParseCommand(c); match(c) && len(args) == 2 && args[1] == name {
				found = true
				break
			}
		}
		if !found {
			v.Addf("SessionStart hook %q is not registered in %s; run nori install", name, st.Path())
		}
	}
	return v
}

// noriCommand matches "<nori> <sub> ..." commands written by any nori
// binary, wherever it was installed from.
func noriCommand(lc *loader.Context, sub string) func(string) bool {
	return func(command string) bool { return lc.IsCommand(command, sub) }
}
