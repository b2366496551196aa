package kinds

import (
	"sort"
	"sync"

	"github.com/openziti/rbrowse/kernel/model"
)

// Capabilities describes what a kind's backend supports for paging.
type Capabilities struct {
	// ReusableCursors is true when a start key issued by the backend can be
	// sent again later to re-read the same page. When false, stepping back
	// replays from the first page.
	ReusableCursors bool
	// Sortable is false when the backend ignores the sort field.
	Sortable bool
}

// Descriptor holds the static, per-kind metadata: default sort, columns and
// paging capabilities.
type Descriptor struct {
	Kind         model.ResourceKind
	DefaultSort  model.SortType
	Columns      []*Column
	Capabilities Capabilities
}

// DescriptorFactory creates a new Descriptor for a kind.
type DescriptorFactory func() *Descriptor

var (
	descriptorsMu sync.RWMutex
	descriptors   = make(map[model.ResourceKind]DescriptorFactory)
)

// RegisterKind registers the descriptor factory for a built-in kind.
// e.g. RegisterKind(model.KindNode, func() *Descriptor { return &Descriptor{...} })
func RegisterKind(kind model.ResourceKind, factory DescriptorFactory) {
	descriptorsMu.Lock()
	defer descriptorsMu.Unlock()
	if _, dup := descriptors[kind]; dup {
		panic("RegisterKind called twice for " + string(kind))
	}
	descriptors[kind] = factory
}

// GetDescriptor creates a new descriptor for a registered kind.
func GetDescriptor(kind model.ResourceKind) (*Descriptor, error) {
	descriptorsMu.RLock()
	defer descriptorsMu.RUnlock()
	factory, ok := descriptors[kind]
	if !ok {
		return nil, model.UnsupportedKind(kind)
	}
	return factory(), nil
}

// BuiltinKinds lists the kinds registered through RegisterKind, sorted.
func BuiltinKinds() []model.ResourceKind {
	descriptorsMu.RLock()
	defer descriptorsMu.RUnlock()
	kinds := make([]model.ResourceKind, 0, len(descriptors))
	for k := range descriptors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func byName() model.SortType {
	return model.SortType{FieldName: "name", Dir: model.SortAsc}
}
