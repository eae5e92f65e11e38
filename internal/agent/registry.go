package agent

import (
	"sync"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

// Sentinel errors for registry operations.
var (
	// ErrAgentAlreadyRegistered is returned when a name is registered twice.
	ErrAgentAlreadyRegistered = errors.New("agent already registered")

	// ErrUnknownAgent is returned for names that are not registered.
	ErrUnknownAgent = errors.New("unknown agent")
)

// Registry holds the supported agents. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewRegistry creates a new empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*Agent)}
}

// Default returns a registry holding every agent nori supports.
func Default() *Registry {
	r := NewRegistry()
	for _, a := range []*Agent{
		{Name: paths.AgentClaudeCode, DisplayName: "Claude Code", ProfileField: "profile"},
		{Name: paths.AgentCursor, DisplayName: "Cursor", ProfileField: "cursorProfile"},
	} {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a, whose name must have a known path layout.
func (r *Registry) Register(a *Agent) error {
	if !paths.ValidAgent(a.Name) {
		return errors.Wrapf(ErrUnknownAgent, "%q has no path layout", a.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.Name]; exists {
		return errors.Wrapf(ErrAgentAlreadyRegistered, "%q", a.Name)
	}
	r.agents[a.Name] = a
	return nil
}

// Get returns the agent called name.
func (r *Registry) Get(name string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[name]
	if !ok {
		return nil, errors.WithDetailf(
			errors.Wrapf(ErrUnknownAgent, "%q", name),
			"supported agents: %v", paths.Agents(),
		)
	}
	return a, nil
}

// All returns the registered agents in the order of paths.Agents().
func (r *Registry) All() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Agent, 0, len(r.agents))
	for _, name := range paths.Agents() {
		if a, ok := r.agents[name]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Installed returns the agents with an installation under installDir.
func (r *Registry) Installed(installDir string) []*Agent {
	var out []*Agent
	for _, a := range r.All() {
		if a.Installed(installDir) {
			out = append(out, a)
		}
	}
	return out
}
