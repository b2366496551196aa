package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, n int) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		env := "dev"
		if i%2 == 0 {
			env = "prod"
		}
		_, err := s.Upsert(ctx, "root", model.Resource{
			Kind:   model.KindNode,
			Name:   fmt.Sprintf("node-%02d", i),
			Labels: map[string]string{"env": env},
			Attrs:  map[string]string{"hostname": fmt.Sprintf("host-%02d", n-i)},
		})
		require.NoError(t, err)
	}
	_, err := s.Upsert(ctx, "root", model.Resource{Kind: model.KindWindowsDesktop, Name: "ws-01"})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "leaf", model.Resource{Kind: model.KindNode, Name: "leaf-node"})
	require.NoError(t, err)
	return s
}

func itemNames(items []model.Resource) []string {
	var out []string
	for _, r := range items {
		out = append(out, r.Name)
	}
	return out
}

func TestMemoryStore_ListPages(t *testing.T) {
	s := seededStore(t, 25)
	ctx := context.Background()

	var all []string
	req := model.FetchRequest{Limit: 10}
	for page := 0; ; page++ {
		require.Less(t, page, 5)
		resp, err := s.List(ctx, "root", model.KindNode, req)
		require.NoError(t, err)
		assert.Equal(t, 25, resp.TotalCount)
		all = append(all, itemNames(resp.Items)...)
		if resp.StartKey == "" {
			break
		}
		req.StartKey = resp.StartKey
	}
	require.Len(t, all, 25)
	assert.Equal(t, "node-00", all[0])
	assert.Equal(t, "node-24", all[24])
}

func TestMemoryStore_StartKeysAreReusable(t *testing.T) {
	s := seededStore(t, 25)
	ctx := context.Background()

	first, err := s.List(ctx, "root", model.KindNode, model.FetchRequest{Limit: 10})
	require.NoError(t, err)
	a, err := s.List(ctx, "root", model.KindNode, model.FetchRequest{Limit: 10, StartKey: first.StartKey})
	require.NoError(t, err)
	b, err := s.List(ctx, "root", model.KindNode, model.FetchRequest{Limit: 10, StartKey: first.StartKey})
	require.NoError(t, err)
	assert.Equal(t, itemNames(a.Items), itemNames(b.Items))
}

func TestMemoryStore_Sort(t *testing.T) {
	s := seededStore(t, 5)
	resp, err := s.List(context.Background(), "root", model.KindNode, model.FetchRequest{
		Limit: 10,
		Sort:  &model.SortType{FieldName: "hostname", Dir: model.SortAsc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"node-04", "node-03", "node-02", "node-01", "node-00"}, itemNames(resp.Items))

	resp, err = s.List(context.Background(), "root", model.KindNode, model.FetchRequest{
		Limit: 2,
		Sort:  &model.SortType{FieldName: "name", Dir: model.SortDesc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"node-04", "node-03"}, itemNames(resp.Items))
}

func TestMemoryStore_SearchAndQuery(t *testing.T) {
	s := seededStore(t, 10)
	ctx := context.Background()

	resp, err := s.List(ctx, "root", model.KindNode, model.FetchRequest{Limit: 50, Search: "prod"})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.TotalCount)

	resp, err = s.List(ctx, "root", model.KindNode, model.FetchRequest{Limit: 50, Query: `labels["env"] == "dev" && name != "node-01"`})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.TotalCount)

	_, err = s.List(ctx, "root", model.KindNode, model.FetchRequest{Limit: 50, Query: `labels[`})
	assert.Error(t, err)
}

func TestMemoryStore_ListScopedToClusterAndKind(t *testing.T) {
	s := seededStore(t, 3)
	ctx := context.Background()

	resp, err := s.List(ctx, "leaf", model.KindNode, model.FetchRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf-node"}, itemNames(resp.Items))

	resp, err = s.List(ctx, "root", model.KindWindowsDesktop, model.FetchRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"ws-01"}, itemNames(resp.Items))

	assert.Equal(t, []string{"leaf", "root"}, s.Clusters())
}

func TestMemoryStore_BadStartKey(t *testing.T) {
	s := seededStore(t, 3)
	_, err := s.List(context.Background(), "root", model.KindNode, model.FetchRequest{Limit: 1, StartKey: encodeStartKey("gone")})
	assert.True(t, errors.Is(err, ErrBadStartKey))

	_, err = s.List(context.Background(), "root", model.KindNode, model.FetchRequest{Limit: 1, StartKey: "%%%"})
	assert.True(t, errors.Is(err, ErrBadStartKey))
}

func TestMemoryStore_CRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Upsert(ctx, "root", model.Resource{Kind: model.KindApp, Name: "grafana"})
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)

	updated, err := s.Upsert(ctx, "root", model.Resource{Kind: model.KindApp, Name: "grafana", Labels: map[string]string{"env": "prod"}})
	require.NoError(t, err)
	assert.Equal(t, created.Id, updated.Id)

	got, err := s.Get(ctx, "root", model.KindApp, "grafana")
	require.NoError(t, err)
	assert.Equal(t, "prod", got.Labels["env"])

	got.Labels["env"] = "mutated"
	again, err := s.Get(ctx, "root", model.KindApp, "grafana")
	require.NoError(t, err)
	assert.Equal(t, "prod", again.Labels["env"])

	require.NoError(t, s.Delete(ctx, "root", model.KindApp, "grafana"))
	_, err = s.Get(ctx, "root", model.KindApp, "grafana")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "root", model.KindApp, "grafana"), ErrNotFound))

	_, err = s.Upsert(ctx, "root", model.Resource{Kind: model.KindApp})
	assert.Error(t, err)
}
