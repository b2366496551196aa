package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type SortDir string

const (
	SortAsc  SortDir = "ASC"
	SortDesc SortDir = "DESC"
)

// SortType names the field a list is ordered by and the direction.
type SortType struct {
	FieldName string  `yaml:"fieldName" json:"fieldName"`
	Dir       SortDir `yaml:"dir" json:"dir"`
}

func (s SortType) String() string {
	return fmt.Sprintf("%s:%s", s.FieldName, strings.ToLower(string(s.Dir)))
}

// ParseSort accepts "field", "field:asc" or "field:desc".
func ParseSort(s string) (SortType, error) {
	field, dir, found := strings.Cut(strings.TrimSpace(s), ":")
	if field == "" {
		return SortType{}, errors.Errorf("invalid sort [%s]: missing field name", s)
	}
	result := SortType{FieldName: field, Dir: SortAsc}
	if !found {
		return result, nil
	}
	switch strings.ToUpper(dir) {
	case string(SortAsc):
	case string(SortDesc):
		result.Dir = SortDesc
	default:
		return SortType{}, errors.Errorf("invalid sort direction [%s]", dir)
	}
	return result, nil
}

// ResourceFilter is the single source of truth for how a list is narrowed
// and ordered. Search and Query are mutually exclusive.
type ResourceFilter struct {
	Sort   *SortType `json:"sort,omitempty"`
	Search string    `json:"search,omitempty"`
	Query  string    `json:"query,omitempty"`
}

// Clone copies the filter, including the sort pointer.
func (f ResourceFilter) Clone() ResourceFilter {
	out := f
	if f.Sort != nil {
		s := *f.Sort
		out.Sort = &s
	}
	return out
}

func (f ResourceFilter) Equal(o ResourceFilter) bool {
	if f.Search != o.Search || f.Query != o.Query {
		return false
	}
	if f.Sort == nil || o.Sort == nil {
		return f.Sort == nil && o.Sort == nil
	}
	return *f.Sort == *o.Sort
}
