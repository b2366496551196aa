package kinds

import (
	"context"
	"sort"
	"sync"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
)

// Lister is the list operation of a backend, consumed through adapters.
type Lister interface {
	List(ctx context.Context, clusterId string, kind model.ResourceKind, req model.FetchRequest) (*model.FetchResponse, error)
}

// Adapter binds a kind's descriptor to the function that fetches its pages.
type Adapter struct {
	*Descriptor
	Fetch model.FetchFunc
}

// Registry maps resource kinds to adapters. Adding a kind means registering
// one adapter; nothing downstream changes.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.ResourceKind]*Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[model.ResourceKind]*Adapter)}
}

// NewRegistryForLister registers every built-in kind against lister.
func NewRegistryForLister(lister Lister) (*Registry, error) {
	r := NewRegistry()
	for _, kind := range BuiltinKinds() {
		if err := r.Bind(kind, lister); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(a *Adapter) error {
	if a == nil || a.Descriptor == nil {
		return errors.New("adapter descriptor is missing")
	}
	if a.Kind == "" {
		return errors.New("adapter kind is missing")
	}
	if a.Fetch == nil {
		return errors.Errorf("adapter for kind [%s] has no fetch function", a.Kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.adapters[a.Kind]; dup {
		return errors.Errorf("adapter for kind [%s] already registered", a.Kind)
	}
	r.adapters[a.Kind] = a
	return nil
}

// Bind registers a built-in kind, fetching through lister.
func (r *Registry) Bind(kind model.ResourceKind, lister Lister) error {
	d, err := GetDescriptor(kind)
	if err != nil {
		return err
	}
	return r.Register(&Adapter{Descriptor: d, Fetch: ListerFetchFunc(kind, lister)})
}

// BindConfigured registers kinds declared in configuration.
func (r *Registry) BindConfigured(cfgs []*model.KindConfig, lister Lister) error {
	for _, cfg := range cfgs {
		d, err := GenericDescriptor(cfg)
		if err != nil {
			return err
		}
		if err := r.Register(&Adapter{Descriptor: d, Fetch: ListerFetchFunc(cfg.Name, lister)}); err != nil {
			return err
		}
	}
	return nil
}

// ListerFetchFunc adapts a Lister into a kind's fetch function.
func ListerFetchFunc(kind model.ResourceKind, lister Lister) model.FetchFunc {
	return func(ctx context.Context, clusterId string, req model.FetchRequest) (*model.FetchResponse, error) {
		return lister.List(ctx, clusterId, kind, req)
	}
}

func (r *Registry) Adapter(kind model.ResourceKind) (*Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[kind]
	if !ok {
		return nil, model.UnsupportedKind(kind)
	}
	return a, nil
}

func (r *Registry) FetchFnFor(kind model.ResourceKind) (model.FetchFunc, error) {
	a, err := r.Adapter(kind)
	if err != nil {
		return nil, err
	}
	return a.Fetch, nil
}

func (r *Registry) DefaultSortFor(kind model.ResourceKind) (model.SortType, error) {
	a, err := r.Adapter(kind)
	if err != nil {
		return model.SortType{}, err
	}
	return a.DefaultSort, nil
}

func (r *Registry) ColumnsFor(kind model.ResourceKind) ([]*Column, error) {
	a, err := r.Adapter(kind)
	if err != nil {
		return nil, err
	}
	return a.Columns, nil
}

func (r *Registry) CapabilitiesFor(kind model.ResourceKind) (Capabilities, error) {
	a, err := r.Adapter(kind)
	if err != nil {
		return Capabilities{}, err
	}
	return a.Capabilities, nil
}

// Kinds lists the registered kinds, sorted.
func (r *Registry) Kinds() []model.ResourceKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]model.ResourceKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
