package query

import (
	"strconv"
	"testing"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envProd = model.ResourceLabel{Name: "env", Value: "prod"}

func TestAddLabelToQuery_ExistingQuery(t *testing.T) {
	got := AddLabelToQuery(model.ResourceFilter{Query: "a==b"}, envProd)
	assert.Equal(t, `a==b && labels["env"] == "prod"`, got)
}

func TestAddLabelToQuery_FoldsSearch(t *testing.T) {
	got := AddLabelToQuery(model.ResourceFilter{Search: "foo"}, envProd)
	assert.Equal(t, `search("foo") && labels["env"] == "prod"`, got)
}

func TestAddLabelToQuery_Empty(t *testing.T) {
	got := AddLabelToQuery(model.ResourceFilter{}, envProd)
	assert.Equal(t, `labels["env"] == "prod"`, got)
}

func TestAddLabelToQuery_QueryAndSearch(t *testing.T) {
	// both can only be set if the caller bypassed the filter state; keep both
	got := AddLabelToQuery(model.ResourceFilter{Query: `name == "x"`, Search: "foo"}, envProd)
	assert.Equal(t, `name == "x" && search("foo") && labels["env"] == "prod"`, got)
}

func TestAddLabelToQuery_Chained(t *testing.T) {
	q := AddLabelToQuery(model.ResourceFilter{}, envProd)
	q = AddLabelToQuery(model.ResourceFilter{Query: q}, model.ResourceLabel{Name: "team", Value: "core"})
	assert.Equal(t, `labels["env"] == "prod" && labels["team"] == "core"`, q)
}

func TestLabelClause_EscapesQuotes(t *testing.T) {
	label := model.ResourceLabel{Name: `we"ird`, Value: `say "hi" \ bye`}

	clause := LabelClause(label)
	assert.Equal(t, `labels["we\"ird"] == "say \"hi\" \\ bye"`, clause)

	// the literals unquote back to the originals
	name, err := strconv.Unquote(`"we\"ird"`)
	require.NoError(t, err)
	assert.Equal(t, label.Name, name)
}

func TestSearchClause_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `search("a \"b\"")`, SearchClause(`a "b"`))
}

func TestAnd_SkipsBlank(t *testing.T) {
	assert.Equal(t, "a && b", And("", " a ", "   ", "b"))
	assert.Equal(t, "", And())
}

func TestAddLabelToQuery_GroupsDisjunction(t *testing.T) {
	got := AddLabelToQuery(model.ResourceFilter{Query: `name == "a" || name == "b"`}, envProd)
	assert.Equal(t, `(name == "a" || name == "b") && labels["env"] == "prod"`, got)
}

func TestAddLabelToQuery_NestedOrNotGrouped(t *testing.T) {
	for _, q := range []string{
		`(name == "a" || name == "b") && kind == "node"`,
		`name == "a||b"`,
		`labels["x||y"] == "z"`,
		`name == "say \"||\""`,
	} {
		assert.Equal(t, q+` && labels["env"] == "prod"`, AddLabelToQuery(model.ResourceFilter{Query: q}, envProd), q)
	}
}
