package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	s, err := ParseSort("hostname")
	require.NoError(t, err)
	assert.Equal(t, SortType{FieldName: "hostname", Dir: SortAsc}, s)

	s, err = ParseSort("name:DESC")
	require.NoError(t, err)
	assert.Equal(t, SortType{FieldName: "name", Dir: SortDesc}, s)
	assert.Equal(t, "name:desc", s.String())

	_, err = ParseSort(":asc")
	assert.Error(t, err)

	_, err = ParseSort("name:up")
	assert.Error(t, err)
}

func TestResourceFilter_CloneIsIndependent(t *testing.T) {
	f := ResourceFilter{Sort: &SortType{FieldName: "name", Dir: SortAsc}, Search: "foo"}

	c := f.Clone()
	c.Sort.Dir = SortDesc

	assert.Equal(t, SortAsc, f.Sort.Dir)
	assert.False(t, f.Equal(c))
}

func TestResourceFilter_Equal(t *testing.T) {
	a := ResourceFilter{Sort: &SortType{FieldName: "name", Dir: SortAsc}}
	b := ResourceFilter{Sort: &SortType{FieldName: "name", Dir: SortAsc}}
	assert.True(t, a.Equal(b))

	assert.False(t, a.Equal(ResourceFilter{}))
	assert.True(t, ResourceFilter{Query: "x"}.Equal(ResourceFilter{Query: "x"}))
}

func TestSelection_KeyedByKindAndName(t *testing.T) {
	sel := NewSelection()
	r := Resource{Id: "1", Kind: KindNode, Name: "alpha"}

	sel.Toggle(r)
	assert.True(t, sel.Has(Resource{Id: "other-id", Kind: KindNode, Name: "alpha"}))
	assert.False(t, sel.Has(Resource{Kind: KindWindowsDesktop, Name: "alpha"}))

	sel.Toggle(r)
	assert.Equal(t, 0, sel.Len())
}

func TestResource_Field(t *testing.T) {
	r := Resource{Id: "1", Kind: KindNode, Name: "alpha", Attrs: map[string]string{"hostname": "alpha.local"}}

	assert.Equal(t, "alpha", r.Field("name"))
	assert.Equal(t, "alpha.local", r.Field("hostname"))
	assert.Equal(t, "", r.Field("missing"))
}
