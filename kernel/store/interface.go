// Package store holds the backends the browser lists resources from.
package store

import (
	"context"

	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrAccessDenied = errors.New("access denied")
	ErrBadStartKey  = errors.New("invalid start key")
	ErrBadQuery     = errors.New("invalid query")
)

// ResourceStore serves paged lists of resources per cluster and kind, and
// the CRUD operations behind them.
type ResourceStore interface {
	List(ctx context.Context, clusterId string, kind model.ResourceKind, req model.FetchRequest) (*model.FetchResponse, error)
	Get(ctx context.Context, clusterId string, kind model.ResourceKind, name string) (*model.Resource, error)
	Upsert(ctx context.Context, clusterId string, r model.Resource) (*model.Resource, error)
	Delete(ctx context.Context, clusterId string, kind model.ResourceKind, name string) error
	Clusters() []string
}
