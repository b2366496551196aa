package kinds

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/oliveagle/jsonpath"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
)

// Column is per-kind rendering metadata: a title and a JSONPath into the
// JSON form of a resource, e.g. "$.attrs.hostname".
type Column struct {
	Title string
	Path  string

	compiled *jsonpath.Compiled
}

func NewColumn(title, path string) (*Column, error) {
	compiled, err := jsonpath.Compile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid column path [%s]", path)
	}
	return &Column{Title: title, Path: path, compiled: compiled}, nil
}

// MustColumn is NewColumn for paths known at compile time.
func MustColumn(title, path string) *Column {
	c, err := NewColumn(title, path)
	if err != nil {
		panic(err)
	}
	return c
}

// Value extracts the column from a resource document produced by Document.
// Missing fields render as empty strings.
func (c *Column) Value(doc interface{}) string {
	if c.compiled == nil {
		return ""
	}
	v, err := c.compiled.Lookup(doc)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, t[k]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// Document converts a resource into the generic form JSONPath works on.
func Document(r model.Resource) (interface{}, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling resource")
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshaling resource")
	}
	return doc, nil
}

// Row renders one resource against a set of columns.
func Row(r model.Resource, columns []*Column) []string {
	row := make([]string, len(columns))
	doc, err := Document(r)
	if err != nil {
		return row
	}
	for i, c := range columns {
		row[i] = c.Value(doc)
	}
	return row
}
