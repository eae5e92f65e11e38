package loader

import "github.com/tilework-tech/nori-profiles/internal/errors"

// Registry holds loaders in registration order.
type Registry struct {
	loaders []Loader
	byName  map[string]Loader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Loader)}
}

// Register appends l to the pipeline.
func (r *Registry) Register(l Loader) error {
	name := l.Name()
	if !loaderNameRe.MatchString(name) {
		return errors.Wrapf(ErrInvalidLoaderName, "%q", name)
	}
	if _, exists := r.byName[name]; exists {
		return errors.Wrapf(ErrDuplicateLoader, "%q", name)
	}
	r.loaders = append(r.loaders, l)
	r.byName[name] = l
	return nil
}

// MustRegister is Register for static pipelines.
func (r *Registry) MustRegister(loaders ...Loader) *Registry {
	for _, l := range loaders {
		if err := r.Register(l); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the loader called name.
func (r *Registry) Get(name string) (Loader, bool) {
	l, ok := r.byName[name]
	return l, ok
}

// All returns the loaders in registration order.
func (r *Registry) All() []Loader {
	out := make([]Loader, len(r.loaders))
	copy(out, r.loaders)
	return out
}

// Names returns the loader names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.loaders))
	for i, l := range r.loaders {
		names[i] = l.Name()
	}
	return names
}

// Install runs every loader in order and stops at the first failure.
func (r *Registry) Install(lc *Context) error {
	log := lc.Log()
	for _, l := range r.loaders {
		log.Debug("running loader", "loader", l.Name())
		if err := l.Run(lc); err != nil {
			return errors.Wrapf(err, "%s", l.Description())
		}
		log.Info("installed", "loader", l.Name())
	}
	return nil
}

// Uninstall runs every loader in reverse order. Failures are logged and
// combined; every loader gets its turn.
func (r *Registry) Uninstall(lc *Context) error {
	log := lc.Log()
	var errs error
	for i := len(r.loaders) - 1; i >= 0; i-- {
		l := r.loaders[i]
		if err := l.Uninstall(lc); err != nil {
			log.Warn("uninstall failed", "loader", l.Name(), "error", err)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "uninstalling %s", l.Name()))
			continue
		}
		log.Info("uninstalled", "loader", l.Name())
	}
	return errs
}

// Result pairs a loader with its validation.
type Result struct {
	Loader     string
	Validation *Validation
}

// Validate runs every Validator in order. Loaders without validation are
// skipped.
func (r *Registry) Validate(lc *Context) []Result {
	var results []Result
	for _, l := range r.loaders {
		v, ok := l.(Validator)
		if !ok {
			continue
		}
		results = append(results, Result{Loader: l.Name(), Validation: v.Validate(lc)})
	}
	return results
}
