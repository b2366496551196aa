package store

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/openziti/rbrowse/kernel/model"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
)

// MemoryStore is an in-memory ResourceStore. Lists are sorted, filtered by
// search or predicate and cut into pages; the start key of a page is the
// encoded key of its first resource.
type MemoryStore struct {
	resources cmap.ConcurrentMap[string, model.Resource] // cluster/kind/name -> resource
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{resources: cmap.New[model.Resource]()}
}

func storeKey(clusterId string, kind model.ResourceKind, name string) string {
	return clusterId + "/" + string(kind) + "/" + name
}

func (s *MemoryStore) List(_ context.Context, clusterId string, kind model.ResourceKind, req model.FetchRequest) (*model.FetchResponse, error) {
	if req.Limit <= 0 {
		req.Limit = model.DefaultPageSize
	}
	pred, err := ParsePredicate(req.Query)
	if err != nil {
		return nil, errors.Wrapf(ErrBadQuery, "%v", err)
	}

	prefix := clusterId + "/" + string(kind) + "/"
	var matches []model.Resource
	for key, r := range s.resources.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !MatchSearch(&r, req.Search) || !pred(&r) {
			continue
		}
		matches = append(matches, r)
	}
	sortResources(matches, req.Sort)

	start := 0
	if req.StartKey != "" {
		name, err := decodeStartKey(req.StartKey)
		if err != nil {
			return nil, err
		}
		start = -1
		for i, r := range matches {
			if r.Name == name {
				start = i
				break
			}
		}
		if start < 0 {
			return nil, errors.Wrapf(ErrBadStartKey, "resource [%s] is no longer listed", name)
		}
	}

	end := start + req.Limit
	if end > len(matches) {
		end = len(matches)
	}
	resp := &model.FetchResponse{TotalCount: len(matches)}
	for _, r := range matches[start:end] {
		resp.Items = append(resp.Items, r.Clone())
	}
	if end < len(matches) {
		resp.StartKey = encodeStartKey(matches[end].Name)
	}
	return resp, nil
}

// sortResources orders by the sort field, then by name so that pages are
// stable when the field has duplicates.
func sortResources(items []model.Resource, by *model.SortType) {
	field, desc := "name", false
	if by != nil && by.FieldName != "" {
		field, desc = by.FieldName, by.Dir == model.SortDesc
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Field(field), items[j].Field(field)
		if a == b {
			return items[i].Name < items[j].Name
		}
		if desc {
			return a > b
		}
		return a < b
	})
}

func encodeStartKey(name string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(name))
}

func decodeStartKey(key string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return "", errors.Wrapf(ErrBadStartKey, "%v", err)
	}
	return string(data), nil
}

func (s *MemoryStore) Get(_ context.Context, clusterId string, kind model.ResourceKind, name string) (*model.Resource, error) {
	r, ok := s.resources.Get(storeKey(clusterId, kind, name))
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s/%s in cluster [%s]", kind, name, clusterId)
	}
	out := r.Clone()
	return &out, nil
}

// Upsert stores r, keeping the id of an existing resource with the same
// kind and name and assigning a new one otherwise.
func (s *MemoryStore) Upsert(_ context.Context, clusterId string, r model.Resource) (*model.Resource, error) {
	if r.Kind == "" || r.Name == "" {
		return nil, errors.New("resource kind and name are required")
	}
	r = r.Clone()
	key := storeKey(clusterId, r.Kind, r.Name)
	stored := s.resources.Upsert(key, r, func(exists bool, old, next model.Resource) model.Resource {
		if next.Id == "" {
			if exists {
				next.Id = old.Id
			} else {
				next.Id = uuid.NewString()
			}
		}
		return next
	})
	out := stored.Clone()
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, clusterId string, kind model.ResourceKind, name string) error {
	key := storeKey(clusterId, kind, name)
	if !s.resources.Has(key) {
		return errors.Wrapf(ErrNotFound, "%s/%s in cluster [%s]", kind, name, clusterId)
	}
	s.resources.Remove(key)
	return nil
}

// Clusters returns the ids of clusters holding at least one resource.
func (s *MemoryStore) Clusters() []string {
	seen := map[string]bool{}
	for _, key := range s.resources.Keys() {
		seen[key[:strings.Index(key, "/")]] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *MemoryStore) Count() int {
	return s.resources.Count()
}

// Snapshot returns every resource grouped by cluster, sorted by key.
func (s *MemoryStore) Snapshot() map[string][]model.Resource {
	keys := s.resources.Keys()
	sort.Strings(keys)
	out := map[string][]model.Resource{}
	for _, key := range keys {
		r, ok := s.resources.Get(key)
		if !ok {
			continue
		}
		clusterId := key[:strings.Index(key, "/")]
		out[clusterId] = append(out[clusterId], r.Clone())
	}
	return out
}
