package actions

import (
	"fmt"

	"hyperagent/internal/events"
	"hyperagent/internal/instances"
	"hyperagent/internal/marketplace"
	"hyperagent/internal/remote"
)

// Deps carries the shared services actions are built on. Sessions is
// required; the rest may be nil and the corresponding actions degrade
// gracefully (no marketplace actions, no persistence, no audit events).
type Deps struct {
	Sessions    *remote.Manager
	Marketplace *marketplace.Client
	Store       *instances.Repository
	Audit       events.Publisher
}

// Registry holds the fixed action set, resolvable by name.
type Registry struct {
	ordered []Action
	byName  map[string]Action
}

// NewRegistry builds the full action table. The set is static: it is decided
// here at construction and never changes afterwards.
func NewRegistry(deps Deps) *Registry {
	all := []Action{
		NewSSHAccessAction(deps.Sessions),
		NewRemoteShellAction(deps.Sessions, deps.Audit),
		NewSpinUpSnapNodeAction(deps.Sessions, deps.Store),
	}

	if deps.Marketplace != nil {
		all = append(all,
			NewGetAvailableGPUsAction(deps.Marketplace),
			NewGetGPUStatusAction(deps.Marketplace),
			NewRentComputeAction(deps.Marketplace, deps.Store),
		)
	}

	byName := make(map[string]Action, len(all))
	for _, action := range all {
		byName[action.Name] = action
	}

	return &Registry{
		ordered: all,
		byName:  byName,
	}
}

// All returns the actions in registration order.
func (r *Registry) All() []Action {
	return r.ordered
}

func (r *Registry) Get(name string) (Action, bool) {
	action, ok := r.byName[name]
	return action, ok
}

// Dispatch runs the named action. An unknown name comes back as a string
// reply, the same way action failures do.
func (r *Registry) Dispatch(name string, args Args) string {
	action, ok := r.byName[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
	return action.Run(args)
}
