package flow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/futig/joke-flows/internal/entity"
)

// Registry holds the flows served by the entry points
type Registry struct {
	mu    sync.RWMutex
	flows map[string]*Flow
}

func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]*Flow)}
}

func (r *Registry) Register(f *Flow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flows[f.Name()]; ok {
		return fmt.Errorf("flow %q already registered", f.Name())
	}
	r.flows[f.Name()] = f
	return nil
}

func (r *Registry) Get(name string) (*Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.flows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrFlowNotFound, name)
	}
	return f, nil
}

// Run looks up a flow and runs it
func (r *Registry) Run(ctx context.Context, name string, req entity.FlowRequest) (string, error) {
	f, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return f.Run(ctx, req)
}

// List returns the registered flows sorted by name
func (r *Registry) List() []entity.FlowInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]entity.FlowInfo, 0, len(r.flows))
	for _, f := range r.flows {
		infos = append(infos, f.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Build compiles and registers every definition
func Build(defs []Definition, deps Deps) (*Registry, error) {
	r := NewRegistry()
	for _, def := range defs {
		f, err := New(def, deps)
		if err != nil {
			return nil, err
		}
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}
