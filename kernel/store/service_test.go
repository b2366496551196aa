package store

import (
	"context"
	"testing"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_RequiresBackend(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.Error(t, err)
}

func TestService_VerbChecks(t *testing.T) {
	backend := seededStore(t, 3)
	ctx := context.Background()

	readOnly, err := NewService(ServiceConfig{
		Backend:    backend,
		Authorizer: &RoleAuthorizer{Rules: map[string][]string{"node": {VerbRead, VerbList}}},
	})
	require.NoError(t, err)

	resp, err := readOnly.List(ctx, "root", model.KindNode, model.FetchRequest{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 3)

	_, err = readOnly.Get(ctx, "root", model.KindNode, "node-00")
	require.NoError(t, err)

	_, err = readOnly.List(ctx, "root", model.KindWindowsDesktop, model.FetchRequest{Limit: 10})
	assert.True(t, errors.Is(err, ErrAccessDenied))

	_, err = readOnly.Upsert(ctx, "root", model.Resource{Kind: model.KindNode, Name: "new"})
	assert.True(t, errors.Is(err, ErrAccessDenied))

	assert.True(t, errors.Is(readOnly.Delete(ctx, "root", model.KindNode, "node-00"), ErrAccessDenied))
	_, err = backend.Get(ctx, "root", model.KindNode, "node-00")
	assert.NoError(t, err)
}

func TestService_ListNeedsBothReadAndList(t *testing.T) {
	svc, err := NewService(ServiceConfig{
		Backend:    seededStore(t, 1),
		Authorizer: &RoleAuthorizer{Rules: map[string][]string{"node": {VerbRead}}},
	})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), "root", model.KindNode, model.FetchRequest{Limit: 10})
	assert.True(t, errors.Is(err, ErrAccessDenied))
	assert.Contains(t, err.Error(), "list")
}

func TestService_WildcardRules(t *testing.T) {
	svc, err := NewService(ServiceConfig{
		Backend:    NewMemoryStore(),
		Authorizer: &RoleAuthorizer{Rules: map[string][]string{Wildcard: {Wildcard}}},
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Upsert(ctx, "root", model.Resource{Kind: model.KindDatabase, Name: "orders"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "root", model.KindDatabase, "orders"))
}

func TestService_DefaultsToAllowAll(t *testing.T) {
	svc, err := NewService(ServiceConfig{Backend: seededStore(t, 2)})
	require.NoError(t, err)

	_, err = svc.Upsert(context.Background(), "root", model.Resource{Kind: model.KindApp, Name: "grafana"})
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf", "root"}, svc.Clusters())
}
