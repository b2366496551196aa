// Package loader reads resource datasets served by the memory and file backends.
package loader

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/openziti/rbrowse/kernel/kinds"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var clusterIdPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)

type DatasetYaml struct {
	Clusters map[string]ClusterYaml `yaml:"clusters"`
}

type ClusterYaml struct {
	Resources []ResourceYaml `yaml:"resources"`
}

// ResourceYaml keeps every key besides id, kind, name and labels as an
// attribute.
type ResourceYaml struct {
	Id     string                 `yaml:"id,omitempty"`
	Kind   string                 `yaml:"kind"`
	Name   string                 `yaml:"name"`
	Labels map[string]string      `yaml:"labels,omitempty"`
	Attrs  map[string]interface{} `yaml:",inline"`
}

// Dataset holds resources per cluster, in file order.
type Dataset struct {
	Clusters map[string][]model.Resource
}

// ClusterIds returns the ids of every cluster, sorted.
func (d *Dataset) ClusterIds() []string {
	ids := make([]string, 0, len(d.Clusters))
	for id := range d.Clusters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset [%s]", path)
	}
	return ParseDataset(data)
}

// ParseDataset decodes and validates a dataset. Validation warnings do not
// fail the parse.
func ParseDataset(data []byte) (*Dataset, error) {
	var doc DatasetYaml
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing dataset")
	}
	if result := validate(&doc); !result.IsValid() {
		return nil, result
	}
	ds := &Dataset{Clusters: make(map[string][]model.Resource, len(doc.Clusters))}
	for clusterId, cluster := range doc.Clusters {
		resources := make([]model.Resource, 0, len(cluster.Resources))
		for _, r := range cluster.Resources {
			resources = append(resources, r.toResource())
		}
		ds.Clusters[clusterId] = resources
	}
	return ds, nil
}

// SaveDataset writes ds in the format LoadDataset reads.
func SaveDataset(path string, ds *Dataset) error {
	doc := DatasetYaml{Clusters: make(map[string]ClusterYaml, len(ds.Clusters))}
	for clusterId, resources := range ds.Clusters {
		cluster := ClusterYaml{}
		for _, r := range resources {
			cluster.Resources = append(cluster.Resources, fromResource(r))
		}
		doc.Clusters[clusterId] = cluster
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "marshalling dataset")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing dataset [%s]", path)
	}
	return nil
}

func (r ResourceYaml) toResource() model.Resource {
	out := model.Resource{
		Id:   r.Id,
		Kind: model.ResourceKind(r.Kind),
		Name: r.Name,
	}
	if len(r.Labels) > 0 {
		out.Labels = make(map[string]string, len(r.Labels))
		for k, v := range r.Labels {
			out.Labels[k] = v
		}
	}
	if len(r.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(r.Attrs))
		for k, v := range r.Attrs {
			out.Attrs[k] = fmt.Sprint(v)
		}
	}
	return out
}

func fromResource(r model.Resource) ResourceYaml {
	out := ResourceYaml{
		Id:     r.Id,
		Kind:   string(r.Kind),
		Name:   r.Name,
		Labels: r.Labels,
	}
	if len(r.Attrs) > 0 {
		out.Attrs = make(map[string]interface{}, len(r.Attrs))
		for k, v := range r.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// ValidationError points at the offending dataset path, e.g.
// "clusters.root.resources[2].name".
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) Error() string {
	if len(r.Errors) == 1 {
		return "invalid dataset: " + r.Errors[0].String()
	}
	msg := fmt.Sprintf("invalid dataset, %d errors:", len(r.Errors))
	for _, e := range r.Errors {
		msg += "\n\t" + e.String()
	}
	return msg
}

func (r *ValidationResult) addError(path, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) addWarning(path, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateDatasetBytes checks a dataset without loading it. The error is
// only set when the document cannot be decoded at all.
func ValidateDatasetBytes(data []byte) (*ValidationResult, error) {
	var doc DatasetYaml
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing dataset")
	}
	return validate(&doc), nil
}

func validate(doc *DatasetYaml) *ValidationResult {
	result := &ValidationResult{}
	if len(doc.Clusters) == 0 {
		result.addWarning("clusters", "dataset defines no clusters")
	}
	clusterIds := make([]string, 0, len(doc.Clusters))
	for id := range doc.Clusters {
		clusterIds = append(clusterIds, id)
	}
	sort.Strings(clusterIds)

	for _, clusterId := range clusterIds {
		base := "clusters." + clusterId
		if !clusterIdPattern.MatchString(clusterId) {
			result.addError(base, "cluster id must start with a letter and contain only letters, digits, '.', '_' or '-'")
		}
		cluster := doc.Clusters[clusterId]
		if len(cluster.Resources) == 0 {
			result.addWarning(base+".resources", "cluster has no resources")
		}
		seen := map[string]int{}
		for i, r := range cluster.Resources {
			path := fmt.Sprintf("%s.resources[%d]", base, i)
			if r.Kind == "" {
				result.addError(path+".kind", "kind is required")
			} else if _, err := kinds.GetDescriptor(model.ResourceKind(r.Kind)); err != nil {
				result.addWarning(path+".kind", "kind [%s] is not built in and must be declared in the config", r.Kind)
			}
			if r.Name == "" {
				result.addError(path+".name", "name is required")
			}
			for k := range r.Labels {
				if k == "" {
					result.addError(path+".labels", "label names must not be empty")
				}
			}
			if r.Kind == "" || r.Name == "" {
				continue
			}
			key := r.Kind + "/" + r.Name
			if first, dup := seen[key]; dup {
				result.addError(path, "duplicate resource [%s], first defined at resources[%d]", key, first)
				continue
			}
			seen[key] = i
		}
	}
	return result
}
