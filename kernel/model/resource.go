package model

import "sort"

// ResourceKind identifies which class of resource is being listed.
type ResourceKind string

const (
	KindNode           ResourceKind = "node"
	KindWindowsDesktop ResourceKind = "windows_desktop"
	KindDatabase       ResourceKind = "db"
	KindApp            ResourceKind = "app"
	KindKubeCluster    ResourceKind = "kube_cluster"
	KindEC2Instance    ResourceKind = "ec2_instance"
)

func (k ResourceKind) String() string {
	return string(k)
}

// Resource is a single record returned by a backend list call. Kind-specific
// fields live in Attrs.
type Resource struct {
	Id     string            `yaml:"id" json:"id"`
	Kind   ResourceKind      `yaml:"kind" json:"kind"`
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Attrs  map[string]string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

// Key is the stable identity of a resource across page refreshes.
func (r Resource) Key() string {
	return string(r.Kind) + "/" + r.Name
}

// Field resolves a sortable or displayable field by name. Well known fields
// map onto struct members, everything else is looked up in Attrs.
func (r Resource) Field(name string) string {
	switch name {
	case "id":
		return r.Id
	case "kind":
		return string(r.Kind)
	case "name":
		return r.Name
	}
	return r.Attrs[name]
}

// SortedLabels returns the resource labels ordered by name.
func (r Resource) SortedLabels() []ResourceLabel {
	labels := make([]ResourceLabel, 0, len(r.Labels))
	for k, v := range r.Labels {
		labels = append(labels, ResourceLabel{Name: k, Value: v})
	}
	sort.Slice(labels, func(i, j int) bool {
		return labels[i].Name < labels[j].Name
	})
	return labels
}

// Clone returns a deep copy, so readers never share maps with the owner.
func (r Resource) Clone() Resource {
	out := r
	if r.Labels != nil {
		out.Labels = make(map[string]string, len(r.Labels))
		for k, v := range r.Labels {
			out.Labels[k] = v
		}
	}
	if r.Attrs != nil {
		out.Attrs = make(map[string]string, len(r.Attrs))
		for k, v := range r.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// ResourceLabel is a name/value pair attached to a resource.
type ResourceLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Selection tracks which resources the caller has checked for a bulk action.
// It is keyed by Resource.Key so it survives page refreshes.
type Selection map[string]struct{}

func NewSelection() Selection {
	return make(Selection)
}

func (s Selection) Toggle(r Resource) {
	if _, ok := s[r.Key()]; ok {
		delete(s, r.Key())
		return
	}
	s[r.Key()] = struct{}{}
}

func (s Selection) Has(r Resource) bool {
	_, ok := s[r.Key()]
	return ok
}

func (s Selection) Len() int {
	return len(s)
}
